package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// column is one db-tagged struct field. Options after the name:
//
//	readonly  selected but never inserted (serial ids, database defaults)
type column struct {
	name     string
	index    int
	readonly bool
}

var columnCache sync.Map // reflect.Type -> []column

// Columns lists the db columns of a model in declaration order, for explicit SELECT lists.
func Columns(model any) ([]string, error) {
	_, cols, err := modelColumns(model)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, c.name)
	}
	return out, nil
}

// MustColumns is Columns for package-level column lists; it panics on a malformed model.
func MustColumns(model any) []string {
	cols, err := Columns(model)
	if err != nil {
		panic(fmt.Sprintf("querybuilder: %v", err))
	}
	return cols
}

// InsertModel inserts every writable column of model.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	value, cols, err := modelColumns(model)
	if err != nil {
		return "", nil, err
	}

	names := make([]string, 0, len(cols))
	values := make([]any, 0, len(cols))
	for _, c := range cols {
		if c.readonly {
			continue
		}
		names = append(names, c.name)
		values = append(values, value.Field(c.index).Interface())
	}
	if len(names) == 0 {
		return "", nil, fmt.Errorf("model %s has no writable db columns", value.Type())
	}

	return InsertInto(table).
		Columns(names...).
		Values(values...).
		Suffix(suffix).
		ToSQL()
}

func modelColumns(model any) (reflect.Value, []column, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return reflect.Value{}, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return reflect.Value{}, nil, fmt.Errorf("model must be struct, got %s", value.Kind())
	}

	typ := value.Type()
	if cached, ok := columnCache.Load(typ); ok {
		return value, cached.([]column), nil
	}

	cols := make([]column, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(field.Tag.Get("db"), ",")
		name = strings.TrimSpace(name)
		if name == "" || name == "-" {
			continue
		}
		cols = append(cols, column{
			name:     name,
			index:    i,
			readonly: strings.TrimSpace(opts) == "readonly",
		})
	}
	if len(cols) == 0 {
		return reflect.Value{}, nil, fmt.Errorf("model %s has no db columns", typ)
	}

	columnCache.Store(typ, cols)
	return value, cols, nil
}

package querybuilder

import (
	"strings"
	"testing"
)

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("public_id", "status").
		From("matches").
		Where(Eq("tournament_public_id", "t1"), IsNull("deleted_at")).
		OrderBy("id").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT public_id, status FROM matches WHERE tournament_public_id = $1 AND deleted_at IS NULL ORDER BY id LIMIT 10"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "t1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_InAndForUpdate(t *testing.T) {
	query, args, err := Select("*").
		From("matches").
		Where(In("public_id", []any{"m1", "m2"}), Expr("version >= ?", int64(3))).
		ForUpdate().
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT * FROM matches WHERE public_id IN ($1, $2) AND version >= $3 FOR UPDATE"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_EmptyInMatchesNothing(t *testing.T) {
	query, _, err := Select("*").From("matches").Where(In("public_id", nil)).ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}
	if query != "SELECT * FROM matches WHERE 1=0" {
		t.Fatalf("unexpected query: %s", query)
	}
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("match_events").
		Columns("public_id", "event_type").
		Values("e1", "goal").
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO match_events (public_id, event_type) VALUES ($1, $2) RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "e1" || args[1] != "goal" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("matches").
		Set("score_a", 2).
		SetExpr("version", "version + ?", 1).
		SetExpr("updated_at", "NOW()").
		Where(Eq("public_id", "m1"), Eq("version", int64(4))).
		Suffix("RETURNING updated_at").
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE matches SET score_a = $1, version = version + $2, updated_at = NOW() WHERE public_id = $3 AND version = $4 RETURNING updated_at"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 4 || args[0] != 2 || args[2] != "m1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModel_SkipsReadonlyAndUntaggedFields(t *testing.T) {
	type row struct {
		ID       int64  `db:"id,readonly"`
		PublicID string `db:"public_id"`
		Type     string `db:"event_type"`
		Skipped  string `db:"-"`
		internal string
	}

	query, args, err := InsertModel("match_events", &row{ID: 9, PublicID: "e1", Type: "goal"}, "RETURNING id")
	if err != nil {
		t.Fatalf("build insert model query: %v", err)
	}
	if query != "INSERT INTO match_events (public_id, event_type) VALUES ($1, $2) RETURNING id" {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 2 || args[0] != "e1" || args[1] != "goal" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestColumns(t *testing.T) {
	t.Parallel()

	type row struct {
		ID       int64  `db:"id,readonly"`
		PublicID string `db:"public_id"`
		Name     string `db:"name"`
		Ignored  string
	}

	cols, err := Columns(row{})
	if err != nil {
		t.Fatalf("columns: %v", err)
	}
	if strings.Join(cols, ",") != "id,public_id,name" {
		t.Fatalf("unexpected columns: %v", cols)
	}

	query, _, err := Select(cols...).From("roster_players").ToSQL()
	if err != nil {
		t.Fatalf("build select: %v", err)
	}
	if query != "SELECT id, public_id, name FROM roster_players" {
		t.Fatalf("unexpected query: %s", query)
	}
}

func TestColumns_RejectsBadModels(t *testing.T) {
	t.Parallel()

	type untagged struct{ Name string }
	var nilRow *struct {
		ID int64 `db:"id"`
	}

	for _, model := range []any{42, untagged{}, nilRow} {
		if _, err := Columns(model); err == nil {
			t.Fatalf("expected error for %T", model)
		}
	}
}

func TestMustColumns_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	MustColumns("not a struct")
}

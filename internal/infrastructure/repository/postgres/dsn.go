package postgres

import (
	"net/url"
	"strings"
)

const preparedBinaryFlag = "disable_prepared_binary_result"

// DSN prepares a connection string for lib/pq. URL and key=value forms are both accepted; with
// disablePreparedBinary the flag is added unless the string already sets it either way.
func DSN(raw string, disablePreparedBinary bool) string {
	raw = strings.TrimSpace(raw)
	if !disablePreparedBinary || raw == "" {
		return raw
	}

	if parsed, err := url.Parse(raw); err == nil && parsed.Scheme != "" {
		query := parsed.Query()
		if query.Get(preparedBinaryFlag) != "" {
			return raw
		}
		query.Set(preparedBinaryFlag, "yes")
		parsed.RawQuery = query.Encode()
		return parsed.String()
	}

	if _, ok := keywordValue(raw, preparedBinaryFlag); ok {
		return raw
	}
	return raw + " " + preparedBinaryFlag + "=yes"
}

// DatabaseName returns the database a DSN points at, or "" when it names none.
func DatabaseName(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if parsed, err := url.Parse(dsn); err == nil && parsed.Scheme != "" {
		return strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/"))
	}
	name, _ := keywordValue(dsn, "dbname")
	return name
}

func keywordValue(dsn, key string) (string, bool) {
	for _, token := range strings.Fields(dsn) {
		k, v, ok := strings.Cut(token, "=")
		if !ok || k != key {
			continue
		}
		return strings.Trim(strings.TrimSpace(v), `"'`), true
	}
	return "", false
}

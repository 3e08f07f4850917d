package database

import "testing"

func TestOpenMemoryRunsMigrations(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"users", "results", "sessions"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
	if db.Dialect() != SQLite {
		t.Errorf("dialect = %q, want %q", db.Dialect(), SQLite)
	}
}

func TestDetectDialect(t *testing.T) {
	cases := []struct {
		dsn  string
		want Dialect
	}{
		{"neurocalm.db", SQLite},
		{":memory:", SQLite},
		{"postgres://u:p@localhost:5432/neurocalm", Postgres},
		{"postgresql://localhost/neurocalm?sslmode=disable", Postgres},
		{"host=localhost user=neurocalm dbname=neurocalm", Postgres},
	}
	for _, c := range cases {
		if got := DetectDialect(c.dsn); got != c.want {
			t.Errorf("DetectDialect(%q) = %q, want %q", c.dsn, got, c.want)
		}
	}
}

func TestRebind(t *testing.T) {
	pg := &DB{dialect: Postgres}
	got := pg.Rebind(`UPDATE results SET anx_score = ?, anx_interpretation = ? WHERE id = ? AND user_id = ?`)
	want := `UPDATE results SET anx_score = $1, anx_interpretation = $2 WHERE id = $3 AND user_id = $4`
	if got != want {
		t.Errorf("Rebind = %q, want %q", got, want)
	}

	lite := &DB{dialect: SQLite}
	q := `SELECT * FROM users WHERE email = ?`
	if got := lite.Rebind(q); got != q {
		t.Errorf("sqlite Rebind changed query: %q", got)
	}
}

func TestSQLiteDSN(t *testing.T) {
	if got := sqliteDSN(":memory:"); got != ":memory:?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)" {
		t.Errorf("memory dsn = %q", got)
	}
	if got := sqliteDSN("file:test.db?mode=rwc"); got != "file:test.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)" {
		t.Errorf("file dsn = %q", got)
	}
}

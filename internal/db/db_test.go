package db

import (
	"io/fs"
	"strings"
	"testing"
)

func TestRunMigrations_InvalidDirection(t *testing.T) {
	err := RunMigrations(nil, "sideways")
	if err == nil || !strings.Contains(err.Error(), "invalid migration direction") {
		t.Fatalf("RunMigrations error = %v", err)
	}
}

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	if len(ups) == 0 {
		t.Fatal("no migrations embedded")
	}
	for v := range ups {
		if !downs[v] {
			t.Errorf("migration %s has no down file", v)
		}
	}
}

func TestMigrationsCreateIconsTable(t *testing.T) {
	data, err := fs.ReadFile(migrationsFS, "migrations/000001_create_icons.up.sql")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	sql := string(data)
	if !strings.Contains(sql, "CREATE TABLE IF NOT EXISTS icons") || !strings.Contains(sql, "UNIQUE (slug)") {
		t.Errorf("unexpected migration:\n%s", sql)
	}
}

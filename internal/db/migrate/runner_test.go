package migrate

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/sean-huni/store-sub000/internal/db"
)

func TestParseDirection(t *testing.T) {
	for _, valid := range []string{"up", "down"} {
		if _, err := ParseDirection(valid); err != nil {
			t.Errorf("ParseDirection(%q) error = %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "UP", "sideways"} {
		if _, err := ParseDirection(invalid); err == nil {
			t.Errorf("ParseDirection(%q) should return error", invalid)
		}
	}
}

func TestRun_EmptyURL(t *testing.T) {
	if err := Run("", Up); err == nil {
		t.Fatal("Run with empty url should return error")
	}
}

func TestRun_InvalidDirection(t *testing.T) {
	err := Run("postgres://localhost/test", Direction("left"))
	if err == nil || !strings.Contains(err.Error(), "direction") {
		t.Errorf("Run() error = %v, want direction error", err)
	}
}

func TestMigrationFS_PairsUpAndDown(t *testing.T) {
	entries, err := fs.ReadDir(db.MigrationFS, "migrations")
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}

	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	if ups == 0 || ups != downs {
		t.Errorf("migrations: %d up, %d down", ups, downs)
	}
}

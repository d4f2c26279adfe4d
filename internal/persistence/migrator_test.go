package persistence

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeMigration(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadMigrationDir_SortsByVersion(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "0010_indexes.up.sql")
	writeMigration(t, dir, "0002_snapshots.up.sql")
	writeMigration(t, dir, "0001_init.up.sql")
	writeMigration(t, dir, "0001_init.down.sql")
	writeMigration(t, dir, "notes.txt")

	files, err := loadMigrationDir(dir, ".up.sql")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("got %d files, want 3", len(files))
	}
	// Numeric order, not lexical: 10 sorts after 2.
	wantVersions := []int64{1, 2, 10}
	for i, f := range files {
		if f.Version != wantVersions[i] {
			t.Errorf("file %d: version %d, want %d", i, f.Version, wantVersions[i])
		}
		if strings.HasSuffix(f.Filename, ".down.sql") {
			t.Errorf("down file leaked into up list: %s", f.Filename)
		}
	}
}

func TestLoadMigrationDir_RejectsBadPrefix(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "init.up.sql")

	if _, err := loadMigrationDir(dir, ".up.sql"); err == nil {
		t.Fatal("expected error for file without numeric version prefix")
	}
}

func TestParseVersion(t *testing.T) {
	v, err := parseVersion("0001_init.up.sql")
	if err != nil || v != 1 {
		t.Fatalf("got (%d, %v), want (1, nil)", v, err)
	}
	if _, err := parseVersion("0xff_bad.up.sql"); err == nil {
		t.Fatal("expected error for non-decimal prefix")
	}
}

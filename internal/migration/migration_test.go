package migration

import (
	"database/sql"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/antaqor/yuki/migrations"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newRunner(t *testing.T, db *sql.DB, files fstest.MapFS) *Runner {
	t.Helper()
	r, err := NewRunner(db, files, DriverSQLite)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return r
}

func TestNewRunnerRejectsUnknownDriver(t *testing.T) {
	if _, err := NewRunner(nil, fstest.MapFS{}, Driver("mysql")); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestReadMigrationFiles(t *testing.T) {
	tests := []struct {
		name    string
		files   fstest.MapFS
		want    []int
		wantErr bool
	}{
		{
			name: "sorted by version",
			files: fstest.MapFS{
				"002_second.sql": {Data: []byte("SELECT 2;")},
				"001_first.sql":  {Data: []byte("SELECT 1;")},
				"README.md":      {Data: []byte("ignored")},
			},
			want: []int{1, 2},
		},
		{
			name:    "missing underscore",
			files:   fstest.MapFS{"001.sql": {Data: []byte("SELECT 1;")}},
			wantErr: true,
		},
		{
			name:    "version zero",
			files:   fstest.MapFS{"000_init.sql": {Data: []byte("SELECT 1;")}},
			wantErr: true,
		},
		{
			name: "duplicate version",
			files: fstest.MapFS{
				"001_a.sql": {Data: []byte("SELECT 1;")},
				"1_b.sql":   {Data: []byte("SELECT 1;")},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRunner(t, nil, tt.files)
			got, err := r.ReadMigrationFiles()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d migrations, want %d", len(got), len(tt.want))
			}
			for i, m := range got {
				if m.Version != tt.want[i] {
					t.Errorf("migration %d: version %d, want %d", i, m.Version, tt.want[i])
				}
			}
		})
	}
}

func TestApplyIsIncremental(t *testing.T) {
	db := openSQLite(t)
	files := fstest.MapFS{
		"001_users.sql": {Data: []byte("CREATE TABLE users (id INTEGER PRIMARY KEY);")},
	}

	applied, err := newRunner(t, db, files).Apply(nil)
	if err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	if applied != 1 {
		t.Errorf("applied %d, want 1", applied)
	}

	files["002_posts.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE posts (id INTEGER PRIMARY KEY);")}
	r := newRunner(t, db, files)
	applied, err = r.Apply(nil)
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if applied != 1 {
		t.Errorf("applied %d, want 1", applied)
	}

	version, err := r.CurrentVersion()
	if err != nil {
		t.Fatalf("CurrentVersion: %v", err)
	}
	if version != 2 {
		t.Errorf("version %d, want 2", version)
	}

	applied, err = r.Apply(nil)
	if err != nil || applied != 0 {
		t.Errorf("re-apply: applied %d, err %v", applied, err)
	}
}

func TestApplyRollsBackFailedMigration(t *testing.T) {
	db := openSQLite(t)
	files := fstest.MapFS{
		"001_ok.sql":  {Data: []byte("CREATE TABLE ok (id INTEGER);")},
		"002_bad.sql": {Data: []byte("CREATE TABLE broken (;")},
	}
	r := newRunner(t, db, files)

	applied, err := r.Apply(nil)
	if err == nil {
		t.Fatal("expected error from broken migration")
	}
	if applied != 1 {
		t.Errorf("applied %d, want 1", applied)
	}
	if version, _ := r.CurrentVersion(); version != 1 {
		t.Errorf("version %d, want 1", version)
	}
}

func TestSchemaTooNew(t *testing.T) {
	db := openSQLite(t)
	r := newRunner(t, db, fstest.MapFS{
		"001_init.sql": {Data: []byte("CREATE TABLE t (id INTEGER);")},
	})
	if err := r.EnsureSchemaVersionTable(); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (9)"); err != nil {
		t.Fatal(err)
	}

	if err := r.ValidateVersion(); !errors.Is(err, ErrSchemaTooNew) {
		t.Errorf("ValidateVersion err = %v, want ErrSchemaTooNew", err)
	}
	if _, err := r.Apply(nil); !errors.Is(err, ErrSchemaTooNew) {
		t.Errorf("Apply err = %v, want ErrSchemaTooNew", err)
	}
}

func TestEmbeddedSQLiteMigrations(t *testing.T) {
	db := openSQLite(t)
	sub, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewRunner(db, sub, DriverSQLite)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Apply(nil); err != nil {
		t.Fatalf("Apply embedded migrations: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO bookings (id, status, date, time, location_id, artist_id, recorded_at, api_url)
		VALUES ('bk', 'confirmed', '2026-03-02', '10:00', 'loc', 'art', '2026-03-01T10:00:00Z', 'http://x')`); err != nil {
		t.Fatalf("insert into migrated schema: %v", err)
	}
}

// TestPostgresApply runs the embedded postgres migrations.
// Set POSTGRES_TEST_URL to run it.
func TestPostgresApply(t *testing.T) {
	connStr := os.Getenv("POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("POSTGRES_TEST_URL not set, skipping PostgreSQL integration test")
	}
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("failed to open postgres database: %v", err)
	}
	defer func() {
		db.Exec("DROP TABLE IF EXISTS bookings")
		db.Exec("DROP TABLE IF EXISTS schema_version")
		db.Close()
	}()

	sub, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewRunner(db, sub, DriverPostgres)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Apply(nil); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if v, err := r.CurrentVersion(); err != nil || v != 2 {
		t.Errorf("version %d, err %v", v, err)
	}
}

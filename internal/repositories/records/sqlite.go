package records

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/KirkDiggler/rpg-tracker/internal/errors"
	"github.com/KirkDiggler/rpg-tracker/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-tracker/internal/repositories/records/migrations"
)

const migrationTable = "schema_migrations"

// SQLiteConfig contains configuration for the SQLite records repository
type SQLiteConfig struct {
	Path  string
	Clock clock.Clock
}

// Validate validates the SQLiteConfig
func (cfg *SQLiteConfig) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("Path", cfg.Path, vb)
	return vb.Build()
}

// SQLiteRepository stores records in a single SQLite table
type SQLiteRepository struct {
	db    *sql.DB
	clock clock.Clock
}

// OpenSQLite opens the database at cfg.Path and applies the embedded migrations
func OpenSQLite(cfg *SQLiteConfig) (*SQLiteRepository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}

	dsn := filepath.Clean(cfg.Path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite db")
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping sqlite db")
	}
	if err := applyMigrations(db, migrations.FS, c); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteRepository{db: db, clock: c}, nil
}

// Close closes the database handle
func (r *SQLiteRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Get implements Repository
func (r *SQLiteRepository) Get(ctx context.Context, input *GetInput) (*GetOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}
	if err := validateKey(input.Kind, input.ID); err != nil {
		return nil, err
	}

	rec := &Record{Kind: input.Kind, ID: input.ID}
	var data []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT encounter_id, sequence, data FROM records WHERE kind = ? AND id = ?`,
		string(input.Kind), input.ID,
	).Scan(&rec.EncounterID, &rec.Sequence, &data)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("%s %s not found", input.Kind, input.ID)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get %s", input.Kind)
	}
	rec.Data = data
	return &GetOutput{Record: rec}, nil
}

// Save implements Repository
func (r *SQLiteRepository) Save(ctx context.Context, input *SaveInput) (*SaveOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}
	rec := input.Record
	if err := validateRecord(rec); err != nil {
		return nil, err
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO records (kind, id, encounter_id, sequence, data, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (kind, id) DO UPDATE SET
		   encounter_id = excluded.encounter_id,
		   sequence = excluded.sequence,
		   data = excluded.data,
		   updated_at = excluded.updated_at`,
		string(rec.Kind), rec.ID, rec.EncounterID, rec.Sequence, []byte(rec.Data),
		r.clock.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to save %s", rec.Kind)
	}
	return &SaveOutput{}, nil
}

// Delete implements Repository
func (r *SQLiteRepository) Delete(ctx context.Context, input *DeleteInput) (*DeleteOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}
	if err := validateKey(input.Kind, input.ID); err != nil {
		return nil, err
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM records WHERE kind = ? AND id = ?`,
		string(input.Kind), input.ID,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to delete %s", input.Kind)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to delete %s", input.Kind)
	}
	if n == 0 {
		return nil, errors.NotFoundf("%s %s not found", input.Kind, input.ID)
	}
	return &DeleteOutput{}, nil
}

// ListByEncounter implements Repository. Rows are ordered by sequence, then
// by first insertion.
func (r *SQLiteRepository) ListByEncounter(ctx context.Context, input *ListByEncounterInput) (*ListByEncounterOutput, error) {
	if err := validateList(input); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sequence, data FROM records
		 WHERE kind = ? AND encounter_id = ?
		 ORDER BY sequence, rowid`,
		string(input.Kind), input.EncounterID,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list %s", input.Kind)
	}
	defer func() { _ = rows.Close() }()

	out := []*Record{}
	for rows.Next() {
		rec := &Record{Kind: input.Kind, EncounterID: input.EncounterID}
		var data []byte
		if err := rows.Scan(&rec.ID, &rec.Sequence, &data); err != nil {
			return nil, errors.Wrapf(err, "failed to scan %s", input.Kind)
		}
		rec.Data = data
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to list %s", input.Kind)
	}
	return &ListByEncounterOutput{Records: out}, nil
}

// applyMigrations runs each embedded .sql file once, in name order
func applyMigrations(db *sql.DB, migrationFS fs.FS, c clock.Clock) error {
	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return errors.Wrap(err, "failed to read migrations")
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (
		name TEXT PRIMARY KEY,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return errors.Wrap(err, "failed to create migration table")
	}

	for _, file := range files {
		var found int
		err := db.QueryRow(`SELECT 1 FROM `+migrationTable+` WHERE name = ?`, file).Scan(&found)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return errors.Wrapf(err, "failed to check migration %s", file)
		}

		content, err := fs.ReadFile(migrationFS, file)
		if err != nil {
			return errors.Wrapf(err, "failed to read migration %s", file)
		}

		tx, err := db.Begin()
		if err != nil {
			return errors.Wrapf(err, "failed to begin migration %s", file)
		}
		if _, err := tx.Exec(upMigration(string(content))); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "failed to apply migration %s", file)
		}
		if _, err := tx.Exec(
			`INSERT INTO `+migrationTable+` (name, applied_at) VALUES (?, ?)`,
			file, c.Now().UTC().UnixMilli(),
		); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "failed to record migration %s", file)
		}
		if err := tx.Commit(); err != nil {
			return errors.Wrapf(err, "failed to commit migration %s", file)
		}
	}
	return nil
}

// upMigration returns the statements between the Up and Down markers
func upMigration(content string) string {
	const up, down = "-- +migrate Up", "-- +migrate Down"
	start := strings.Index(content, up)
	if start == -1 {
		return content
	}
	content = content[start+len(up):]
	if end := strings.Index(content, down); end != -1 {
		content = content[:end]
	}
	return content
}

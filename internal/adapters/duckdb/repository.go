package duckdb

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	_ "github.com/marcboeker/go-duckdb"

	"github.com/manthysbr/ianfluencer/internal/core/ports"
)

// Repository is the DuckDB-backed persistence collaborator: personas, posts,
// comments and finished job runs.
type Repository struct {
	db *sql.DB
}

// Ensure Repository implements the port interfaces
var (
	_ ports.ContentStore  = (*Repository)(nil)
	_ ports.RunRepository = (*Repository)(nil)
)

// NewRepository opens (or creates) the database at path and applies the
// schema. An empty path opens an in-memory database.
func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(err, "open duckdb")
	}
	// DuckDB allows a single writer per process.
	db.SetMaxOpenConns(1)

	r := &Repository{db: db}
	if err := r.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS personas (
		id VARCHAR PRIMARY KEY,
		name VARCHAR NOT NULL,
		bio VARCHAR NOT NULL,
		personality_traits VARCHAR NOT NULL,
		interests VARCHAR NOT NULL,
		characteristics VARCHAR NOT NULL,
		writing_style VARCHAR NOT NULL,
		niche VARCHAR NOT NULL,
		location VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id VARCHAR PRIMARY KEY,
		persona_id VARCHAR NOT NULL,
		content VARCHAR NOT NULL,
		image_prompt VARCHAR NOT NULL,
		image_url VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id VARCHAR PRIMARY KEY,
		post_id VARCHAR NOT NULL,
		persona_id VARCHAR NOT NULL,
		content VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS job_runs (
		id VARCHAR PRIMARY KEY,
		job_name VARCHAR NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP,
		outcome VARCHAR NOT NULL,
		reason VARCHAR NOT NULL
	)`,
}

func (r *Repository) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "apply schema")
		}
	}
	return nil
}

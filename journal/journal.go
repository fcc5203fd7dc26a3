// Package journal records compile jobs in an SQLite database. The caller
// must register the "sqlite" driver, e.g. by importing modernc.org/sqlite:
//
//	import _ "modernc.org/sqlite"
//	j, err := journal.Open("spvmk.db")
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const schema = `CREATE TABLE IF NOT EXISTS compiles (
	run         INTEGER NOT NULL,
	shader      TEXT NOT NULL,
	compiler    TEXT NOT NULL,
	command     TEXT NOT NULL,
	status      TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	started     TEXT NOT NULL,
	duration_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS compiles_started ON compiles(started);`

// timeLayout sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one compile job.
type Entry struct {
	// Run identifies the run the job belongs to.
	Run      int64
	Shader   string
	Compiler string
	Command  string
	Status   string
	Error    string
	Started  time.Time
	Duration time.Duration
}

type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal database at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("journal: %s: %w", pragma, err)
		}
	}
	j, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// New creates the journal schema in db if missing.
func New(db *sql.DB) (*Journal, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("journal: schema: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Record(ctx context.Context, e Entry) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO compiles (run, shader, compiler, command, status, error, started, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Run,
		e.Shader,
		e.Compiler,
		e.Command,
		e.Status,
		e.Error,
		e.Started.UTC().Format(timeLayout),
		e.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("journal: record %s: %w", e.Shader, err)
	}
	return nil
}

// Recent returns the last n entries, newest first.
func (j *Journal) Recent(ctx context.Context, n int) (es []Entry, err error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT run, shader, compiler, command, status, error, started, duration_ms
		FROM compiles ORDER BY started DESC, rowid DESC LIMIT ?`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			e       Entry
			started string
			ms      int64
		)
		err := rows.Scan(&e.Run,
			&e.Shader,
			&e.Compiler,
			&e.Command,
			&e.Status,
			&e.Error,
			&started,
			&ms,
		)
		if err != nil {
			return es, fmt.Errorf("journal: scan: %w", err)
		}
		if e.Started, err = time.Parse(timeLayout, started); err != nil {
			return es, fmt.Errorf("journal: started: %w", err)
		}
		e.Duration = time.Duration(ms) * time.Millisecond
		es = append(es, e)
	}
	return es, rows.Err()
}

func (j *Journal) Close() error { return j.db.Close() }

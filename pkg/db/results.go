package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yumyai/hgtmatch/pkg/model"
)

var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	created_at  TEXT NOT NULL,
	output_dir  TEXT NOT NULL,
	params      TEXT NOT NULL,
	hits_total  INTEGER NOT NULL,
	hits_kept   INTEGER NOT NULL,
	candidates  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS group_cutoffs (
	run_id     TEXT NOT NULL REFERENCES runs(run_id),
	group_a    TEXT NOT NULL,
	group_b    TEXT NOT NULL,
	cutoff     REAL NOT NULL,
	samples    INTEGER NOT NULL,
	sufficient INTEGER NOT NULL,
	PRIMARY KEY (run_id, group_a, group_b)
);
CREATE TABLE IF NOT EXISTS candidates (
	run_id          TEXT NOT NULL REFERENCES runs(run_id),
	position        INTEGER NOT NULL,
	recipient       TEXT NOT NULL,
	donor           TEXT NOT NULL,
	recipient_group TEXT NOT NULL,
	donor_group     TEXT NOT NULL,
	identity        REAL NOT NULL,
	category        TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);
`

// Run is one pipeline execution.
type Run struct {
	RunID      string    `json:"run_id"`
	CreatedAt  time.Time `json:"created_at"`
	OutputDir  string    `json:"output_dir"`
	Params     string    `json:"params"`
	HitsTotal  int       `json:"hits_total"`
	HitsKept   int       `json:"hits_kept"`
	Candidates int       `json:"candidates"`
}

// ResultDB persists runs, their cutoff tables and annotated candidates in sqlite.
type ResultDB struct {
	db *sql.DB
}

func OpenResultDB(file string) (*ResultDB, error) {
	db, err := sql.Open("sqlite", file)
	if err != nil {
		return nil, fmt.Errorf("open result db %s: %w", file, err)
	}
	// sqlite allows one writer at a time
	db.SetMaxOpenConns(1)
	return NewResultDB(db), nil
}

func NewResultDB(db *sql.DB) *ResultDB {
	return &ResultDB{db: db}
}

func (r *ResultDB) Close() error {
	return r.db.Close()
}

// Ping checks the database is reachable.
func (r *ResultDB) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Init creates the tables when they do not exist.
func (r *ResultDB) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveRun stores a run together with its cutoffs and candidates in one transaction.
func (r *ResultDB) SaveRun(ctx context.Context, run Run, cutoffs []model.PairThreshold, candidates []*model.AnnotatedCandidate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("fail to begin tx %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, created_at, output_dir, params, hits_total, hits_kept, candidates) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.CreatedAt.UTC().Format(time.RFC3339), run.OutputDir, run.Params, run.HitsTotal, run.HitsKept, run.Candidates,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	cutoffStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO group_cutoffs (run_id, group_a, group_b, cutoff, samples, sufficient) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer cutoffStmt.Close()

	for _, c := range cutoffs {
		if _, err := cutoffStmt.ExecContext(ctx, run.RunID, c.Pair.A, c.Pair.B, c.Cutoff, c.Samples, c.Sufficient); err != nil {
			return fmt.Errorf("insert cutoff %s: %w", c.Pair, err)
		}
	}

	candStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO candidates (run_id, position, recipient, donor, recipient_group, donor_group, identity, category) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer candStmt.Close()

	for i, c := range candidates {
		if _, err := candStmt.ExecContext(ctx, run.RunID, i, c.Recipient, c.Donor, c.RecipientGroup, c.DonorGroup, c.Identity, string(c.Category)); err != nil {
			return fmt.Errorf("insert candidate %s: %w", c.Key(), err)
		}
	}

	return tx.Commit()
}

// Runs lists every run, newest first.
func (r *ResultDB) Runs(ctx context.Context) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT run_id, created_at, output_dir, params, hits_total, hits_kept, candidates FROM runs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Run fetches a single run.
func (r *ResultDB) Run(ctx context.Context, runID string) (Run, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT run_id, created_at, output_dir, params, hits_total, hits_kept, candidates FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

// LatestRun returns the most recent run.
func (r *ResultDB) LatestRun(ctx context.Context) (Run, error) {
	runs, err := r.Runs(ctx)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, ErrRunNotFound
	}
	return runs[0], nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var created string
	if err := row.Scan(&run.RunID, &created, &run.OutputDir, &run.Params, &run.HitsTotal, &run.HitsKept, &run.Candidates); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: bad created_at: %w", run.RunID, err)
	}
	run.CreatedAt = t
	return run, nil
}

// Cutoffs returns the stored cutoff table of a run, ordered by pair.
func (r *ResultDB) Cutoffs(ctx context.Context, runID string) ([]model.PairThreshold, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT group_a, group_b, cutoff, samples, sufficient FROM group_cutoffs WHERE run_id = ? ORDER BY group_a, group_b`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PairThreshold
	for rows.Next() {
		var p model.PairThreshold
		if err := rows.Scan(&p.Pair.A, &p.Pair.B, &p.Cutoff, &p.Samples, &p.Sufficient); err != nil {
			return nil, fmt.Errorf("failed to scan cutoff row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Candidates returns the annotated candidates of a run in output order.
func (r *ResultDB) Candidates(ctx context.Context, runID string) ([]*model.AnnotatedCandidate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT recipient, donor, recipient_group, donor_group, identity, category FROM candidates WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.AnnotatedCandidate
	for rows.Next() {
		var c model.AnnotatedCandidate
		var category string
		if err := rows.Scan(&c.Recipient, &c.Donor, &c.RecipientGroup, &c.DonorGroup, &c.Identity, &category); err != nil {
			return nil, fmt.Errorf("failed to scan candidate row: %w", err)
		}
		if c.Category, err = model.ParseMatchCategory(category); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

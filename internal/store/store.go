// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists analysis runs, documents and scored clauses in
// SQLite so results can be listed and exported after the fact.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/clause-risk/internal/export"
	"github.com/pdiddy/clause-risk/pkg/types"
)

// Store wraps the results database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			rules_version INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL REFERENCES runs(id),
			name TEXT NOT NULL,
			source_type TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			total_clauses INTEGER NOT NULL,
			risky_clauses INTEGER NOT NULL,
			risky_percent REAL NOT NULL,
			overall_rating TEXT NOT NULL,
			method TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS clauses (
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			clause_number INTEGER NOT NULL,
			text TEXT NOT NULL,
			model_is_risky TEXT NOT NULL,
			model_risk_reason TEXT NOT NULL,
			model_risk_score INTEGER,
			severity TEXT NOT NULL,
			explanation TEXT NOT NULL,
			PRIMARY KEY (document_id, clause_number)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_run_id ON documents(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_clauses_risky ON clauses(document_id, model_is_risky)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// DocumentRow is one stored document summary.
type DocumentRow struct {
	ID            string                 `json:"id" yaml:"id"`
	RunID         string                 `json:"run_id" yaml:"run_id"`
	Name          string                 `json:"name" yaml:"name"`
	SourceType    string                 `json:"source_type" yaml:"source_type"`
	Fingerprint   string                 `json:"fingerprint" yaml:"fingerprint"`
	TotalClauses  int                    `json:"total_clauses" yaml:"total_clauses"`
	RiskyClauses  int                    `json:"risky_clauses" yaml:"risky_clauses"`
	RiskyPercent  float64                `json:"risky_percent" yaml:"risky_percent"`
	OverallRating types.Rating           `json:"overall_rating" yaml:"overall_rating"`
	Method        types.ExtractionMethod `json:"method" yaml:"method"`
	CreatedAt     time.Time              `json:"created_at" yaml:"created_at"`
}

// ClauseRow is one stored clause in the downstream column layout.
type ClauseRow struct {
	DocumentID      string         `json:"document_id" yaml:"document_id"`
	ClauseNumber    int            `json:"clause_number" yaml:"clause_number"`
	Text            string         `json:"text" yaml:"text"`
	ModelIsRisky    string         `json:"model_is_risky" yaml:"model_is_risky"`
	ModelRiskReason string         `json:"model_risk_reason" yaml:"model_risk_reason"`
	ModelRiskScore  *int           `json:"model_risk_score" yaml:"model_risk_score"`
	Severity        types.Severity `json:"severity" yaml:"severity"`
	Explanation     string         `json:"explanation" yaml:"explanation"`
}

// contentFingerprint hashes the clean text so a re-run over changed
// content is visible even though the document ID stays the same.
func contentFingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// SaveReport records report in a single transaction. A document analyzed
// again replaces its earlier summary and clauses.
func (s *Store) SaveReport(ctx context.Context, report *types.DocumentReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	created := report.GeneratedAt
	if created.IsZero() {
		created = time.Now()
	}
	createdStr := created.UTC().Format(time.RFC3339Nano)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, rules_version) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		report.RunID, createdStr, report.RulesVersion,
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}

	sum := report.Summary
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, run_id, name, source_type, fingerprint, total_clauses,
			risky_clauses, risky_percent, overall_rating, method, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			run_id=excluded.run_id, name=excluded.name, source_type=excluded.source_type,
			fingerprint=excluded.fingerprint, total_clauses=excluded.total_clauses,
			risky_clauses=excluded.risky_clauses, risky_percent=excluded.risky_percent,
			overall_rating=excluded.overall_rating, method=excluded.method,
			created_at=excluded.created_at`,
		report.Document.ID, report.RunID, report.Document.Name, report.Document.Kind.SourceType(),
		contentFingerprint(report.CleanText), sum.TotalClauses, sum.RiskyClauses, sum.RiskyPercent,
		string(sum.OverallRating), string(report.Method), createdStr,
	)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM clauses WHERE document_id = ?`, report.Document.ID); err != nil {
		return fmt.Errorf("deleting old clauses: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO clauses (document_id, clause_number, text, model_is_risky, model_risk_reason,
			model_risk_score, severity, explanation)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range report.Clauses {
		_, err := stmt.ExecContext(ctx,
			report.Document.ID, c.SequenceID, c.Text, export.Bool(c.IsRisky), export.Reasons(c.Tags),
			c.BandScore, string(c.Severity), c.Explanation,
		)
		if err != nil {
			return fmt.Errorf("inserting clause %d: %w", c.SequenceID, err)
		}
	}

	return tx.Commit()
}

// ListOptions filters Documents.
type ListOptions struct {
	RunID  string
	Rating types.Rating
}

// Documents lists stored documents, newest first.
func (s *Store) Documents(ctx context.Context, opts ListOptions) ([]DocumentRow, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT id, run_id, name, source_type, fingerprint, total_clauses, risky_clauses,
			risky_percent, overall_rating, method, created_at
		FROM documents WHERE 1=1`)
	if opts.RunID != "" {
		qb.WriteString(` AND run_id = ?`)
		args = append(args, opts.RunID)
	}
	if opts.Rating != "" {
		qb.WriteString(` AND overall_rating = ?`)
		args = append(args, string(opts.Rating))
	}
	qb.WriteString(` ORDER BY created_at DESC, name`)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		var (
			d       DocumentRow
			rating  string
			method  string
			created string
		)
		if err := rows.Scan(&d.ID, &d.RunID, &d.Name, &d.SourceType, &d.Fingerprint,
			&d.TotalClauses, &d.RiskyClauses, &d.RiskyPercent, &rating, &method, &created); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		d.OverallRating = types.Rating(rating)
		d.Method = types.ExtractionMethod(method)
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			d.CreatedAt = t
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Clauses returns the clauses of one document in sequence order. With
// riskyOnly set, only rows flagged TRUE are returned.
func (s *Store) Clauses(ctx context.Context, documentID string, riskyOnly bool) ([]ClauseRow, error) {
	query := `SELECT document_id, clause_number, text, model_is_risky, model_risk_reason,
			model_risk_score, severity, explanation
		FROM clauses WHERE document_id = ?`
	if riskyOnly {
		query += ` AND model_is_risky = 'TRUE'`
	}
	query += ` ORDER BY clause_number`

	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying clauses: %w", err)
	}
	defer rows.Close()

	var out []ClauseRow
	for rows.Next() {
		var (
			c        ClauseRow
			score    sql.NullInt64
			severity string
		)
		if err := rows.Scan(&c.DocumentID, &c.ClauseNumber, &c.Text, &c.ModelIsRisky,
			&c.ModelRiskReason, &score, &severity, &c.Explanation); err != nil {
			return nil, fmt.Errorf("scanning clause: %w", err)
		}
		if score.Valid {
			v := int(score.Int64)
			c.ModelRiskScore = &v
		}
		c.Severity = types.Severity(severity)
		out = append(out, c)
	}
	return out, rows.Err()
}

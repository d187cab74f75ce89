package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/ahrav/go-joute/internal/domain"
	"github.com/ahrav/go-joute/internal/ports"
)

//go:embed schema.sql
var embeddedSchema embed.FS

var (
	_ ports.ContestStore = (*SQLiteStore)(nil)
	_ ports.ChangeFeed   = (*SQLiteStore)(nil)
)

// SQLiteStore persists the contest in SQLite through modernc.org/sqlite.
// Change events only cover writes made through this instance.
type SQLiteStore struct {
	Feed

	db *sql.DB
}

// OpenSQLite opens dsn (a file path or ":memory:") and creates the schema.
// The pool is limited to one connection so an in-memory database is shared
// by every call.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
	}
	db.SetMaxOpenConns(1)

	s := NewSQLiteStore(db)
	if err := s.InitSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an open database. Call InitSchema before use.
func NewSQLiteStore(db *sql.DB) *SQLiteStore { return &SQLiteStore{db: db} }

// InitSchema enables foreign keys and creates missing tables.
func (s *SQLiteStore) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `PRAGMA foreign_keys = ON;`); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	b, err := embeddedSchema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, strings.TrimSpace(string(b))); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// ---------- Reads ----------

// ListCandidates implements ports.ContestReader.
func (s *SQLiteStore) ListCandidates(ctx context.Context, roundID string) ([]domain.Candidate, error) {
	const op = "list_candidates"
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, round_id, status, created_at
FROM candidates
WHERE ? = '' OR round_id = ?
ORDER BY created_at, id`, roundID, roundID)
	if err != nil {
		return nil, storeErr(ports.CollectionCandidates, op, err)
	}
	defer rows.Close()

	var out []domain.Candidate
	for rows.Next() {
		var (
			c       domain.Candidate
			created int64
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.RoundID, &c.Status, &created); err != nil {
			return nil, storeErr(ports.CollectionCandidates, op, err)
		}
		c.CreatedAt = fromUnixNano(created)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(ports.CollectionCandidates, op, err)
	}
	return out, nil
}

// ListScoreRecords implements ports.ContestReader.
func (s *SQLiteStore) ListScoreRecords(ctx context.Context, roundID, candidateID string) ([]domain.ScoreRecord, error) {
	const op = "list_score_records"
	rows, err := s.db.QueryContext(ctx, `
SELECT candidate_id, juror_id, round_id, fond, forme, updated_at
FROM score_records
WHERE round_id = ? AND (? = '' OR candidate_id = ?)
ORDER BY candidate_id, juror_id`, roundID, candidateID, candidateID)
	if err != nil {
		return nil, storeErr(ports.CollectionScores, op, err)
	}
	defer rows.Close()

	var out []domain.ScoreRecord
	for rows.Next() {
		var (
			r       domain.ScoreRecord
			updated int64
		)
		if err := rows.Scan(&r.CandidateID, &r.JurorID, &r.RoundID, &r.Fond, &r.Forme, &updated); err != nil {
			return nil, storeErr(ports.CollectionScores, op, err)
		}
		r.UpdatedAt = fromUnixNano(updated)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(ports.CollectionScores, op, err)
	}
	return out, nil
}

// ListJurorsOnRound implements ports.ContestReader.
func (s *SQLiteStore) ListJurorsOnRound(ctx context.Context, roundID string) ([]domain.Juror, error) {
	round, err := s.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}

	all, err := s.ListJurors(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Juror, 0, len(all))
	for _, j := range all {
		if slices.Contains(j.Rounds, roundID) || (round.Kind == domain.RoundRepechage && j.IsChair) {
			out = append(out, j)
		}
	}
	return out, nil
}

// ListJurors implements ports.ContestReader.
func (s *SQLiteStore) ListJurors(ctx context.Context) ([]domain.Juror, error) {
	const op = "list_jurors"
	rows, err := s.db.QueryContext(ctx, `
SELECT j.id, j.name, j.credential_hash, j.is_chair, j.created_at, COALESCE(jr.round_id, '')
FROM jurors j
LEFT JOIN juror_rounds jr ON jr.juror_id = j.id
ORDER BY j.created_at, j.id, jr.round_id`)
	if err != nil {
		return nil, storeErr(ports.CollectionJurors, op, err)
	}
	defer rows.Close()

	var out []domain.Juror
	for rows.Next() {
		var (
			j       domain.Juror
			created int64
			roundID string
		)
		if err := rows.Scan(&j.ID, &j.Name, &j.CredentialHash, &j.IsChair, &created, &roundID); err != nil {
			return nil, storeErr(ports.CollectionJurors, op, err)
		}
		if n := len(out); n > 0 && out[n-1].ID == j.ID {
			out[n-1].Rounds = append(out[n-1].Rounds, roundID)
			continue
		}
		j.CreatedAt = fromUnixNano(created)
		if roundID != "" {
			j.Rounds = []string{roundID}
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(ports.CollectionJurors, op, err)
	}
	return out, nil
}

// GetRound implements ports.ContestReader.
func (s *SQLiteStore) GetRound(ctx context.Context, roundID string) (domain.Round, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, sequence, kind, quota, locked FROM rounds WHERE id = ?`, roundID)
	r, err := scanRound(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Round{}, fmt.Errorf("round %s: %w", roundID, domain.ErrNotFound)
		}
		return domain.Round{}, storeErr(ports.CollectionRounds, "get_round", err)
	}
	return r, nil
}

// ListRounds implements ports.ContestReader.
func (s *SQLiteStore) ListRounds(ctx context.Context) ([]domain.Round, error) {
	const op = "list_rounds"
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, sequence, kind, quota, locked FROM rounds ORDER BY sequence`)
	if err != nil {
		return nil, storeErr(ports.CollectionRounds, op, err)
	}
	defer rows.Close()

	var out []domain.Round
	for rows.Next() {
		r, err := scanRound(rows)
		if err != nil {
			return nil, storeErr(ports.CollectionRounds, op, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(ports.CollectionRounds, op, err)
	}
	return out, nil
}

// ListDuels implements ports.ContestReader.
func (s *SQLiteStore) ListDuels(ctx context.Context, roundID string) ([]domain.DuelPairing, error) {
	const op = "list_duels"
	rows, err := s.db.QueryContext(ctx, `SELECT id, round_id, candidate_a, candidate_b FROM duels WHERE round_id = ? ORDER BY id`, roundID)
	if err != nil {
		return nil, storeErr(ports.CollectionDuels, op, err)
	}
	defer rows.Close()

	var out []domain.DuelPairing
	for rows.Next() {
		var d domain.DuelPairing
		if err := rows.Scan(&d.ID, &d.RoundID, &d.CandidateA, &d.CandidateB); err != nil {
			return nil, storeErr(ports.CollectionDuels, op, err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(ports.CollectionDuels, op, err)
	}
	return out, nil
}

// ListDisplayOverrides implements ports.ContestReader.
func (s *SQLiteStore) ListDisplayOverrides(ctx context.Context, roundID string) (map[string]float64, error) {
	const op = "list_display_overrides"
	rows, err := s.db.QueryContext(ctx, `SELECT candidate_id, score FROM display_overrides WHERE round_id = ?`, roundID)
	if err != nil {
		return nil, storeErr(ports.CollectionOverrides, op, err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var (
			id    string
			score float64
		)
		if err := rows.Scan(&id, &score); err != nil {
			return nil, storeErr(ports.CollectionOverrides, op, err)
		}
		out[id] = score
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(ports.CollectionOverrides, op, err)
	}
	return out, nil
}

// ---------- Writes ----------

// PutScoreRecord implements ports.ContestWriter. The lock check and the
// upsert run in one transaction.
func (s *SQLiteStore) PutScoreRecord(ctx context.Context, rec domain.ScoreRecord) error {
	const op = "put_score_record"
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(ports.CollectionScores, op, err)
	}
	defer func() { _ = tx.Rollback() }()

	var locked bool
	if err := tx.QueryRowContext(ctx, `SELECT locked FROM rounds WHERE id = ?`, rec.RoundID).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("round %s: %w", rec.RoundID, domain.ErrNotFound)
		}
		return storeErr(ports.CollectionScores, op, err)
	}

	if locked {
		var cnt int
		err := tx.QueryRowContext(ctx, `
SELECT COUNT(1) FROM score_records
WHERE candidate_id = ? AND juror_id = ? AND round_id = ?`, rec.CandidateID, rec.JurorID, rec.RoundID).Scan(&cnt)
		if err != nil {
			return storeErr(ports.CollectionScores, op, err)
		}
		if cnt > 0 {
			return fmt.Errorf("candidate %s, juror %s: %w", rec.CandidateID, rec.JurorID, domain.ErrDuplicateScoreRecord)
		}
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO score_records(candidate_id, juror_id, round_id, fond, forme, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(candidate_id, juror_id, round_id)
DO UPDATE SET fond = excluded.fond, forme = excluded.forme, updated_at = excluded.updated_at`,
		rec.CandidateID, rec.JurorID, rec.RoundID, rec.Fond, rec.Forme, toUnixNano(rec.UpdatedAt))
	if err != nil {
		return storeErr(ports.CollectionScores, op, err)
	}
	if err := tx.Commit(); err != nil {
		return storeErr(ports.CollectionScores, op, err)
	}

	s.publish(ctx, ports.CollectionScores, rec.RoundID, rec.CandidateID)
	return nil
}

// PutCandidate implements ports.ContestWriter.
func (s *SQLiteStore) PutCandidate(ctx context.Context, c domain.Candidate) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO candidates(id, name, round_id, status, created_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name = excluded.name, round_id = excluded.round_id,
    status = excluded.status, created_at = excluded.created_at`,
		c.ID, c.Name, c.RoundID, string(c.Status), toUnixNano(c.CreatedAt))
	if err != nil {
		return storeErr(ports.CollectionCandidates, "put_candidate", err)
	}

	s.publish(ctx, ports.CollectionCandidates, c.RoundID, c.ID)
	return nil
}

// UpdateCandidates implements ports.ContestWriter in one transaction.
func (s *SQLiteStore) UpdateCandidates(ctx context.Context, cs ...domain.Candidate) error {
	const op = "update_candidates"
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(ports.CollectionCandidates, op, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range cs {
		res, err := tx.ExecContext(ctx, `UPDATE candidates SET name = ?, round_id = ?, status = ? WHERE id = ?`,
			c.Name, c.RoundID, string(c.Status), c.ID)
		if err != nil {
			return storeErr(ports.CollectionCandidates, op, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return storeErr(ports.CollectionCandidates, op, err)
		}
		if n == 0 {
			return fmt.Errorf("candidate %s: %w", c.ID, domain.ErrNotFound)
		}
	}
	if err := tx.Commit(); err != nil {
		return storeErr(ports.CollectionCandidates, op, err)
	}

	for _, c := range cs {
		s.publish(ctx, ports.CollectionCandidates, c.RoundID, c.ID)
	}
	return nil
}

// PutJuror implements ports.ContestWriter. The juror's round list is
// replaced wholesale.
func (s *SQLiteStore) PutJuror(ctx context.Context, j domain.Juror) error {
	const op = "put_juror"
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(ports.CollectionJurors, op, err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO jurors(id, name, credential_hash, is_chair, created_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name = excluded.name, credential_hash = excluded.credential_hash,
    is_chair = excluded.is_chair, created_at = excluded.created_at`,
		j.ID, j.Name, j.CredentialHash, j.IsChair, toUnixNano(j.CreatedAt))
	if err != nil {
		return storeErr(ports.CollectionJurors, op, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM juror_rounds WHERE juror_id = ?`, j.ID); err != nil {
		return storeErr(ports.CollectionJurors, op, err)
	}
	for _, roundID := range j.Rounds {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO juror_rounds(juror_id, round_id) VALUES (?, ?)`, j.ID, roundID); err != nil {
			return storeErr(ports.CollectionJurors, op, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storeErr(ports.CollectionJurors, op, err)
	}

	s.publish(ctx, ports.CollectionJurors, "", "")
	return nil
}

// DeleteJuror implements ports.ContestWriter.
func (s *SQLiteStore) DeleteJuror(ctx context.Context, jurorID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jurors WHERE id = ?`, jurorID)
	if err != nil {
		return storeErr(ports.CollectionJurors, "delete_juror", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("juror %s: %w", jurorID, domain.ErrNotFound)
	}

	s.publish(ctx, ports.CollectionJurors, "", "")
	return nil
}

// PutRound implements ports.ContestWriter.
func (s *SQLiteStore) PutRound(ctx context.Context, r domain.Round) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO rounds(id, name, sequence, kind, quota, locked) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET name = excluded.name, sequence = excluded.sequence,
    kind = excluded.kind, quota = excluded.quota, locked = excluded.locked`,
		r.ID, r.Name, r.Sequence, string(r.Kind), r.Quota.String(), r.Locked)
	if err != nil {
		return storeErr(ports.CollectionRounds, "put_round", err)
	}

	s.publish(ctx, ports.CollectionRounds, r.ID, "")
	return nil
}

// PutDuel implements ports.ContestWriter.
func (s *SQLiteStore) PutDuel(ctx context.Context, d domain.DuelPairing) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO duels(id, round_id, candidate_a, candidate_b) VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET round_id = excluded.round_id,
    candidate_a = excluded.candidate_a, candidate_b = excluded.candidate_b`,
		d.ID, d.RoundID, d.CandidateA, d.CandidateB)
	if err != nil {
		return storeErr(ports.CollectionDuels, "put_duel", err)
	}

	s.publish(ctx, ports.CollectionDuels, d.RoundID, "")
	return nil
}

// SetDisplayOverride implements ports.ContestWriter.
func (s *SQLiteStore) SetDisplayOverride(ctx context.Context, roundID, candidateID string, score float64) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO display_overrides(round_id, candidate_id, score) VALUES (?, ?, ?)
ON CONFLICT(round_id, candidate_id) DO UPDATE SET score = excluded.score`,
		roundID, candidateID, score)
	if err != nil {
		return storeErr(ports.CollectionOverrides, "set_display_override", err)
	}

	s.publish(ctx, ports.CollectionOverrides, roundID, candidateID)
	return nil
}

// ---------- Activations ----------

// AppendActivation implements ports.ActivationLog. The unique key on
// (type, candidate_id, source) makes a duplicate a silent no-op.
func (s *SQLiteStore) AppendActivation(ctx context.Context, a domain.Activation) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO activations(id, type, candidate_id, source, at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(type, candidate_id, source) DO NOTHING`,
		a.ID, string(a.Type), a.CandidateID, a.Source, toUnixNano(a.At))
	if err != nil {
		return false, storeErr(ports.CollectionActivations, "append_activation", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storeErr(ports.CollectionActivations, "append_activation", err)
	}
	if n == 0 {
		return false, nil
	}

	s.publish(ctx, ports.CollectionActivations, "", a.CandidateID)
	return true, nil
}

// ListActivations implements ports.ActivationLog.
func (s *SQLiteStore) ListActivations(ctx context.Context) ([]domain.Activation, error) {
	const op = "list_activations"
	rows, err := s.db.QueryContext(ctx, `SELECT id, type, candidate_id, source, at FROM activations ORDER BY seq`)
	if err != nil {
		return nil, storeErr(ports.CollectionActivations, op, err)
	}
	defer rows.Close()

	var out []domain.Activation
	for rows.Next() {
		var (
			a  domain.Activation
			at int64
		)
		if err := rows.Scan(&a.ID, &a.Type, &a.CandidateID, &a.Source, &at); err != nil {
			return nil, storeErr(ports.CollectionActivations, op, err)
		}
		a.At = fromUnixNano(at)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(ports.CollectionActivations, op, err)
	}
	return out, nil
}

// ---------- Helpers ----------

type scanner interface {
	Scan(dest ...any) error
}

func scanRound(row scanner) (domain.Round, error) {
	var (
		r     domain.Round
		quota string
	)
	if err := row.Scan(&r.ID, &r.Name, &r.Sequence, &r.Kind, &quota, &r.Locked); err != nil {
		return domain.Round{}, err
	}
	q, err := domain.ParseQuota(quota)
	if err != nil {
		return domain.Round{}, fmt.Errorf("%w: round %s: %w", ports.ErrCorruptDocument, r.ID, err)
	}
	r.Quota = q
	return r, nil
}

// storeErr classifies a driver error so the retry middleware can act on
// it. A lock held by another writer is a conflict; a database that cannot
// be opened or a dropped connection is unavailable.
func storeErr(collection, operation string, err error) error {
	var se *sqlite.Error
	var code int
	if errors.As(err, &se) {
		code = se.Code() & 0xff
	}
	switch {
	case code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED:
		err = fmt.Errorf("%w: %w", ports.ErrConflict, err)
	case code == sqlite3.SQLITE_CANTOPEN || errors.Is(err, sql.ErrConnDone):
		err = fmt.Errorf("%w: %w", ports.ErrStoreUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded):
		err = fmt.Errorf("%w: %w", ports.ErrTimeout, err)
	}
	return ports.NewStoreError(collection, operation, err)
}

func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/transcript"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Record is a confirmed transcript as stored.
type Record struct {
	ID                string                      `json:"id"`
	SessionID         string                      `json:"session_id"`
	Text              string                      `json:"text"`
	Status            transcript.Status           `json:"status"`
	Duration          time.Duration               `json:"duration"`
	TotalDetections   int                         `json:"total_detections"`
	UniqueSigns       int                         `json:"unique_signs"`
	AverageConfidence float64                     `json:"average_confidence"`
	Signs             []transcript.SignConfidence `json:"signs"`
	CreatedAt         time.Time                   `json:"created_at"`
}

// NewRecord builds a Record for a confirmed session transcript with a fresh
// ID.
func NewRecord(sessionID string, t transcript.Transcript) *Record {
	return &Record{
		ID:                uuid.NewString(),
		SessionID:         sessionID,
		Text:              t.Text,
		Status:            t.Summary.Status,
		Duration:          t.Summary.Duration,
		TotalDetections:   t.Summary.TotalDetections,
		UniqueSigns:       t.Summary.UniqueSigns,
		AverageConfidence: t.Summary.AverageConfidence,
		Signs:             t.Summary.Signs,
	}
}

// TranscriptRepository provides CRUD operations for transcripts.
type TranscriptRepository struct {
	db *sql.DB
}

// Transcripts returns the transcript repository for this store.
func (s *Store) Transcripts() *TranscriptRepository {
	return &TranscriptRepository{db: s.db}
}

const selectTranscript = `SELECT id, session_id, text, status, duration_ms, total_detections,
	unique_signs, average_confidence, signs, created_at FROM transcripts`

// Create inserts a transcript. An empty ID is filled in.
func (r *TranscriptRepository) Create(rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = time.Now().UTC()

	signs := rec.Signs
	if signs == nil {
		signs = []transcript.SignConfidence{}
	}
	signsJSON, err := json.Marshal(signs)
	if err != nil {
		return fmt.Errorf("failed to marshal signs: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO transcripts (id, session_id, text, status, duration_ms, total_detections,
		 unique_signs, average_confidence, signs, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.Text, string(rec.Status), rec.Duration.Milliseconds(),
		rec.TotalDetections, rec.UniqueSigns, rec.AverageConfidence, string(signsJSON), rec.CreatedAt,
	)
	return err
}

// GetByID retrieves a transcript by its ID.
func (r *TranscriptRepository) GetByID(id string) (*Record, error) {
	rec, err := scanRecord(r.db.QueryRow(selectTranscript+` WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// List retrieves all transcripts, newest first.
func (r *TranscriptRepository) List() ([]*Record, error) {
	return r.query(selectTranscript + ` ORDER BY created_at DESC, id`)
}

// ListBySession retrieves the transcripts confirmed for one session, newest
// first.
func (r *TranscriptRepository) ListBySession(sessionID string) ([]*Record, error) {
	return r.query(selectTranscript+` WHERE session_id = ? ORDER BY created_at DESC, id`, sessionID)
}

// Delete removes a transcript by its ID.
func (r *TranscriptRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM transcripts WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *TranscriptRepository) query(q string, args ...any) ([]*Record, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	rec := &Record{}
	var status, signsJSON string
	var durationMs int64

	err := row.Scan(&rec.ID, &rec.SessionID, &rec.Text, &status, &durationMs, &rec.TotalDetections,
		&rec.UniqueSigns, &rec.AverageConfidence, &signsJSON, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	rec.Status = transcript.Status(status)
	rec.Duration = time.Duration(durationMs) * time.Millisecond
	if err := json.Unmarshal([]byte(signsJSON), &rec.Signs); err != nil {
		return nil, fmt.Errorf("failed to decode signs for transcript %s: %w", rec.ID, err)
	}
	return rec, nil
}

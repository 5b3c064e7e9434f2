// Package journal records lead submissions in PostgreSQL.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Submission statuses.
const (
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

var ErrNotFound = errors.New("submission not found")

// DroppedField is a record key the router did not send.
type DroppedField struct {
	Key    string `json:"key"`
	Group  string `json:"group,omitempty"`
	Reason string `json:"reason"`
}

type Submission struct {
	ID            string
	ProviderCode  string
	ReferenceID   string
	Accepted      bool
	Status        string
	Request       string
	Response      string
	DroppedFields []DroppedField
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Journal struct {
	db *sql.DB
}

func New(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// Record inserts s and fills in its ID and timestamps. An empty ID is replaced with a
// new UUID.
func (j *Journal) Record(ctx context.Context, s *Submission) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.Status == "" {
		s.Status = StatusRejected
		if s.Accepted {
			s.Status = StatusAccepted
		}
	}

	dropped, err := json.Marshal(droppedOrEmpty(s.DroppedFields))
	if err != nil {
		return fmt.Errorf("marshal dropped fields: %w", err)
	}

	now := time.Now().UTC()
	_, err = j.db.ExecContext(ctx, `
		INSERT INTO lead_submissions (
			id, provider_code, reference_id, accepted, status,
			request_document, response_document, dropped_fields, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		s.ID,
		s.ProviderCode,
		nullString(s.ReferenceID),
		s.Accepted,
		s.Status,
		s.Request,
		s.Response,
		dropped,
		now,
	)
	if err != nil {
		return fmt.Errorf("insert submission %s: %w", s.ID, err)
	}

	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

// FindByReference returns the latest submission carrying the remote reference id.
func (j *Journal) FindByReference(ctx context.Context, providerCode, referenceID string) (*Submission, error) {
	var (
		s       Submission
		ref     sql.NullString
		dropped []byte
	)
	err := j.db.QueryRowContext(ctx, `
		SELECT id, provider_code, reference_id, accepted, status,
		       request_document, response_document, dropped_fields, created_at, updated_at
		FROM lead_submissions
		WHERE provider_code = $1 AND reference_id = $2
		ORDER BY created_at DESC
		LIMIT 1`, providerCode, referenceID).Scan(
		&s.ID, &s.ProviderCode, &ref, &s.Accepted, &s.Status,
		&s.Request, &s.Response, &dropped, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find submission %s/%s: %w", providerCode, referenceID, err)
	}

	s.ReferenceID = ref.String
	if len(dropped) > 0 {
		if err := json.Unmarshal(dropped, &s.DroppedFields); err != nil {
			return nil, fmt.Errorf("decode dropped fields: %w", err)
		}
	}
	return &s, nil
}

// UpdateStatus stores the status last reported by the remote service. It returns
// ErrNotFound when no submission carries the reference id.
func (j *Journal) UpdateStatus(ctx context.Context, providerCode, referenceID, status string) error {
	res, err := j.db.ExecContext(ctx, `
		UPDATE lead_submissions
		SET status = $3, updated_at = $4
		WHERE provider_code = $1 AND reference_id = $2`,
		providerCode, referenceID, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update submission %s/%s: %w", providerCode, referenceID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update submission %s/%s: %w", providerCode, referenceID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func droppedOrEmpty(d []DroppedField) []DroppedField {
	if d == nil {
		return []DroppedField{}
	}
	return d
}

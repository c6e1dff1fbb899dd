package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wasimrehman05/superdoc-sub008/internal/plan"
)

// ErrNotFound is returned when a journal record does not exist.
var ErrNotFound = errors.New("store: receipt not found")

// Record is one journal entry: a receipt plus the metadata needed to
// list and filter entries without deserializing the receipt itself.
type Record struct {
	ID        string        `json:"id"`
	Document  string        `json:"document"`
	PlanName  string        `json:"planName,omitempty"`
	Success   bool          `json:"success"`
	Receipt   *plan.Receipt `json:"receipt"`
	CreatedAt time.Time     `json:"createdAt"`
}

// WriteReceipt appends a receipt to the journal. A zero ID gets a
// fresh UUID; a zero CreatedAt gets the current time. The record's
// ID is returned.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency - writing the same
// record twice is silently ignored.
func (s *Store) WriteReceipt(ctx context.Context, rec Record) (string, error) {
	if rec.Receipt == nil {
		return "", fmt.Errorf("write receipt: record has no receipt")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	receiptJSON, err := json.Marshal(rec.Receipt)
	if err != nil {
		return "", fmt.Errorf("write receipt: marshal: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO receipts
		(id, document, plan_name, success, revision_before, revision_after, receipt, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.Document,
		rec.PlanName,
		boolToInt(rec.Success),
		rec.Receipt.Revision.Before,
		rec.Receipt.Revision.After,
		string(receiptJSON),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("write receipt: %w", err)
	}
	return rec.ID, nil
}

// ReadReceipt loads one journal record by ID.
func (s *Store) ReadReceipt(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document, plan_name, success, receipt, created_at
		FROM receipts
		WHERE id = ?
	`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("read receipt %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("read receipt %q: %w", id, err)
	}
	return rec, nil
}

// ListReceipts returns journal records for a document, newest first.
// An empty document lists across all documents. A limit of 0 means no
// limit. Ties on created_at break on id for deterministic ordering.
func (s *Store) ListReceipts(ctx context.Context, document string, limit int) ([]Record, error) {
	query := `
		SELECT id, document, plan_name, success, receipt, created_at
		FROM receipts
	`
	var args []any
	if document != "" {
		query += " WHERE document = ?"
		args = append(args, document)
	}
	query += " ORDER BY created_at DESC, id ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list receipts: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec         Record
		success     int
		receiptJSON string
		createdAt   string
	)
	if err := row.Scan(&rec.ID, &rec.Document, &rec.PlanName, &success, &receiptJSON, &createdAt); err != nil {
		return Record{}, err
	}
	rec.Success = success != 0

	var receipt plan.Receipt
	if err := json.Unmarshal([]byte(receiptJSON), &receipt); err != nil {
		return Record{}, fmt.Errorf("unmarshal receipt: %w", err)
	}
	rec.Receipt = &receipt

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Record{}, fmt.Errorf("parse created_at: %w", err)
	}
	rec.CreatedAt = ts
	return rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Package integrity computes content hashes and records them for stamped
// documents. Recording is observational: nothing here compares hashes or
// fails a stamping request.
package integrity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Hash returns the lowercase hex SHA-256 digest of b.
func Hash(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// Record describes one stamping run.
type Record struct {
	ID           string    `json:"id"`
	OriginalHash string    `json:"originalHash"`
	FinalHash    string    `json:"finalHash"`
	FileName     string    `json:"fileName"`
	FieldsCount  int       `json:"fieldsCount"`
	Seal         []byte    `json:"seal,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewRecord fills in the ID and creation time.
func NewRecord(originalHash, finalHash, fileName string, fieldsCount int) Record {
	return Record{
		ID:           uuid.NewString(),
		OriginalHash: originalHash,
		FinalHash:    finalHash,
		FileName:     fileName,
		FieldsCount:  fieldsCount,
		CreatedAt:    time.Now().UTC(),
	}
}

// Recorder stores records.
type Recorder interface {
	Record(ctx context.Context, r Record) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, r Record) error

func (f RecorderFunc) Record(ctx context.Context, r Record) error { return f(ctx, r) }

// LogRecorder writes records to a structured logger.
type LogRecorder struct {
	Logger *slog.Logger
}

func (l LogRecorder) Record(ctx context.Context, r Record) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "pdf record",
		"id", r.ID,
		"original_hash", r.OriginalHash,
		"final_hash", r.FinalHash,
		"file_name", r.FileName,
		"fields_count", r.FieldsCount,
		"sealed", len(r.Seal) > 0)
	return nil
}

// Multi sends each record to every recorder and joins their errors.
func Multi(recorders ...Recorder) Recorder {
	return RecorderFunc(func(ctx context.Context, r Record) error {
		var errs []error
		for _, rec := range recorders {
			if rec == nil {
				continue
			}
			if err := rec.Record(ctx, r); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

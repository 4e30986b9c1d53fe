package signatureengine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prathamesonar/signature-engine/fields"
	"github.com/prathamesonar/signature-engine/integrity"
)

// DocumentSource provides the base document for each request.
type DocumentSource interface {
	// Load returns the document bytes and a file name for records.
	Load(ctx context.Context) ([]byte, string, error)
}

// FileSource reads the base document from disk on every request, so each
// request works on its own copy.
type FileSource struct {
	Path string
}

func (f FileSource) Load(ctx context.Context) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", &NotFoundError{Msg: "PDF not found", Err: err}
		}
		return nil, "", fmt.Errorf("failed to read base document: %w", err)
	}
	return data, filepath.Base(f.Path), nil
}

// BytesSource serves a fixed document. Load returns a copy.
type BytesSource struct {
	Name string
	Data []byte
}

func (b BytesSource) Load(context.Context) ([]byte, string, error) {
	if b.Data == nil {
		return nil, "", &NotFoundError{Msg: "PDF not found"}
	}
	return append([]byte(nil), b.Data...), b.Name, nil
}

// Sealer signs stamped documents.
type Sealer interface {
	Seal(ctx context.Context, document []byte) ([]byte, error)
}

// Request is one stamping request.
type Request struct {
	Signature string
	Fields    []fields.Placement
}

// Result is a stamped document together with its record.
type Result struct {
	*StampedDocument
	Record integrity.Record
}

// Stamper runs requests against a document source and records the hashes
// of every successful run. Recording and sealing never fail a request.
type Stamper struct {
	Source   DocumentSource
	Recorder integrity.Recorder
	Sealer   Sealer
	Logger   *slog.Logger
	Options  []Option
}

func (s *Stamper) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Stamp validates req, loads the base document and stamps it.
func (s *Stamper) Stamp(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req.Signature, req.Fields); err != nil {
		return nil, err
	}
	if s.Source == nil {
		return nil, &NotFoundError{Msg: "PDF not found"}
	}

	logger := s.logger()
	logger.InfoContext(ctx, "stamp request", "fields", len(req.Fields))

	data, name, err := s.Source.Load(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := Open(data)
	if err != nil {
		return nil, err
	}
	info := doc.Info()
	logger.DebugContext(ctx, "base document", "file", name, "pages", info.Pages, "producer", info.Producer)

	opts := append([]Option{WithLogger(logger)}, s.Options...)
	stamped, err := doc.Stamp(req.Signature, req.Fields, opts...)
	if err != nil {
		return nil, err
	}

	rec := integrity.NewRecord(stamped.OriginalHash, stamped.FinalHash, name, len(req.Fields))

	if s.Sealer != nil {
		seal, err := s.Sealer.Seal(ctx, stamped.Bytes)
		if err != nil {
			logger.WarnContext(ctx, "failed to seal document", "error", err)
		} else {
			rec.Seal = seal
		}
	}

	if s.Recorder != nil {
		if err := s.Recorder.Record(ctx, rec); err != nil {
			logger.ErrorContext(ctx, "failed to record hashes", "id", rec.ID, "error", err)
		}
	}

	return &Result{StampedDocument: stamped, Record: rec}, nil
}

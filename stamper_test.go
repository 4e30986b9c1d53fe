package signatureengine

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prathamesonar/signature-engine/fields"
	"github.com/prathamesonar/signature-engine/integrity"
	"github.com/prathamesonar/signature-engine/internal/testpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sealerFunc func(ctx context.Context, document []byte) ([]byte, error)

func (f sealerFunc) Seal(ctx context.Context, document []byte) ([]byte, error) { return f(ctx, document) }

type failingSource struct{ called bool }

func (f *failingSource) Load(context.Context) ([]byte, string, error) {
	f.called = true
	return nil, "", errors.New("must not be called")
}

func textRequest() Request {
	return Request{
		Signature: "x",
		Fields:    []fields.Placement{placement(fields.TypeText, "Approved", 50, 700, 100, 20)},
	}
}

func TestStamper_RecordsHashes(t *testing.T) {
	var records []integrity.Record
	var sealed []byte

	s := &Stamper{
		Source: BytesSource{Name: "sample.pdf", Data: testpdf.A4(baseContent)},
		Recorder: integrity.RecorderFunc(func(_ context.Context, r integrity.Record) error {
			records = append(records, r)
			return nil
		}),
		Sealer: sealerFunc(func(_ context.Context, doc []byte) ([]byte, error) {
			sealed = doc
			return []byte("seal"), nil
		}),
	}

	res, err := s.Stamp(context.Background(), textRequest())
	require.NoError(t, err)

	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, res.OriginalHash, r.OriginalHash)
	assert.Equal(t, res.FinalHash, r.FinalHash)
	assert.Equal(t, integrity.Hash(res.Bytes), r.FinalHash)
	assert.Equal(t, "sample.pdf", r.FileName)
	assert.Equal(t, 1, r.FieldsCount)
	assert.Equal(t, []byte("seal"), r.Seal)
	assert.Equal(t, res.Bytes, sealed)
	assert.Equal(t, r.ID, res.Record.ID)
}

func TestStamper_ObservationalFailures(t *testing.T) {
	var logs bytes.Buffer
	s := &Stamper{
		Source: BytesSource{Name: "sample.pdf", Data: testpdf.A4(baseContent)},
		Recorder: integrity.RecorderFunc(func(context.Context, integrity.Record) error {
			return errors.New("database down")
		}),
		Sealer: sealerFunc(func(context.Context, []byte) ([]byte, error) {
			return nil, errors.New("tsa down")
		}),
		Logger: slog.New(slog.NewTextHandler(&logs, nil)),
	}

	res, err := s.Stamp(context.Background(), textRequest())
	require.NoError(t, err)
	assert.Empty(t, res.Record.Seal)
	assert.Contains(t, logs.String(), "database down")
	assert.Contains(t, logs.String(), "tsa down")
}

func TestStamper_Errors(t *testing.T) {
	t.Run("validation before load", func(t *testing.T) {
		src := &failingSource{}
		s := &Stamper{Source: src}
		_, err := s.Stamp(context.Background(), Request{Signature: "x"})
		var ve *ValidationError
		assert.True(t, errors.As(err, &ve))
		assert.False(t, src.called)
	})

	t.Run("missing file", func(t *testing.T) {
		s := &Stamper{Source: FileSource{Path: filepath.Join(t.TempDir(), "sample.pdf")}}
		_, err := s.Stamp(context.Background(), textRequest())
		var nf *NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sample.pdf")
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 truncated"), 0o600))
		s := &Stamper{Source: FileSource{Path: path}}
		_, err := s.Stamp(context.Background(), textRequest())
		var de *DocumentError
		assert.True(t, errors.As(err, &de))
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		s := &Stamper{Source: FileSource{Path: "unused.pdf"}}
		_, err := s.Stamp(ctx, textRequest())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "base.pdf")
	data := testpdf.A4(baseContent)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	got, name, err := FileSource{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, "base.pdf", name)
}

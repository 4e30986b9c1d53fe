package integrity

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/digitorus/pkcs7"
	"github.com/prathamesonar/signature-engine/internal/testpki"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}
	for _, tt := range tests {
		if got := Hash([]byte(tt.in)); got != tt.want {
			t.Errorf("Hash(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestLogRecorder(t *testing.T) {
	var buf bytes.Buffer
	rec := LogRecorder{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	r := NewRecord("aaa", "bbb", "sample.pdf", 3)
	require.NoError(t, rec.Record(context.Background(), r))

	out := buf.String()
	assert.Contains(t, out, `"original_hash":"aaa"`)
	assert.Contains(t, out, `"final_hash":"bbb"`)
	assert.Contains(t, out, `"fields_count":3`)
	assert.Contains(t, out, r.ID)
	assert.False(t, r.CreatedAt.IsZero())
}

func TestMulti(t *testing.T) {
	var got []string
	ok := RecorderFunc(func(_ context.Context, r Record) error {
		got = append(got, r.FileName)
		return nil
	})
	boom := errors.New("boom")
	failing := RecorderFunc(func(context.Context, Record) error { return boom })

	err := Multi(ok, nil, failing, ok).Record(context.Background(), Record{FileName: "x.pdf"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"x.pdf", "x.pdf"}, got)

	assert.NoError(t, Multi().Record(context.Background(), Record{}))
}

func newSealer(t *testing.T) *Sealer {
	t.Helper()
	pki := testpki.NewTestPKIWithConfig(t, testpki.TestPKIConfig{Profile: testpki.RSA_2048, IntermediateCAs: 1})
	key, cert := pki.IssueLeaf("Document Seal")
	return &Sealer{Signer: key, Certificate: cert, Chain: pki.Chain()}
}

func TestSealer_Seal(t *testing.T) {
	s := newSealer(t)
	document := []byte("%PDF-1.4 stamped document")

	seal, err := s.Seal(context.Background(), document)
	require.NoError(t, err)

	p7, err := pkcs7.Parse(seal)
	require.NoError(t, err)
	assert.Empty(t, p7.Content, "seal must be detached")

	p7.Content = document
	assert.NoError(t, p7.Verify())

	p7.Content = []byte("tampered")
	assert.Error(t, p7.Verify())
}

func TestSealer_TSAFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/timestamp-query", r.Header.Get("Content-Type"))
		http.Error(w, "unavailable", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := newSealer(t)
	s.TSA = TSA{URL: srv.URL}

	_, err := s.Seal(context.Background(), []byte("doc"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non success response (500)")
}

func TestSealer_Unconfigured(t *testing.T) {
	_, err := (&Sealer{}).Seal(context.Background(), []byte("doc"))
	assert.Error(t, err)
}

func TestLoadSealer_Errors(t *testing.T) {
	_, err := LoadSealer(filepath.Join(t.TempDir(), "missing.p12"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.p12")
	require.NoError(t, os.WriteFile(bad, []byte("not pkcs12"), 0o600))
	_, err = LoadSealer(bad, "secret")
	assert.Error(t, err)
}

package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prathamesonar/signature-engine/config"
	"github.com/prathamesonar/signature-engine/coords"
	"github.com/prathamesonar/signature-engine/integrity"
	"github.com/prathamesonar/signature-engine/internal/testpdf"
	"github.com/prathamesonar/signature-engine/store"
)

func patchExit(t *testing.T) {
	t.Helper()
	origExit := osExit
	t.Cleanup(func() { osExit = origExit })
	osExit = func(code int) { panic("exit called") }
}

func TestMain_Dispatch(t *testing.T) {
	patchExit(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no args", nil},
		{"help", []string{"help"}},
		{"unknown command", []string{"frobnicate"}},
		{"stamp without args", []string{"stamp"}},
		{"coords with too few args", []string{"coords", "1", "2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PanicsWithValue(t, "exit called", func() { Main(tt.args) })
		})
	}
}

func TestPrintCoords(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		page    coords.PageDims
		want    coords.PdfCoord
		wantErr bool
	}{
		{
			name: "unscaled page",
			args: []string{"100", "100", "120", "40"},
			page: coords.PageDims{Width: 595, Height: 842},
			want: coords.PdfCoord{X: 100, Y: 702, Width: 120, Height: 40},
		},
		{
			name: "double size page",
			args: []string{"200", "200", "240", "80"},
			page: coords.PageDims{Width: 1190, Height: 1684},
			want: coords.PdfCoord{X: 100, Y: 702, Width: 120, Height: 40},
		},
		{
			name:    "not a number",
			args:    []string{"x", "0", "1", "1"},
			page:    coords.PageDims{Width: 595, Height: 842},
			wantErr: true,
		},
		{
			name:    "invalid page",
			args:    []string{"0", "0", "1", "1"},
			page:    coords.PageDims{},
			wantErr: true,
		},
		{
			name:    "wrong arity",
			args:    []string{"0", "0"},
			page:    coords.PageDims{Width: 595, Height: 842},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := PrintCoords(&buf, tt.args, 1.5, tt.page)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			var got coords.PdfCoord
			require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
			assert.True(t, got.ApproxEqual(tt.want, 1e-9), "got %+v", got)
		})
	}
}

func signatureDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.NRGBA{0, 0, 0, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestStampPDF(t *testing.T) {
	dir := t.TempDir()
	base := testpdf.A4("")
	basePath := filepath.Join(dir, "base.pdf")
	require.NoError(t, os.WriteFile(basePath, base, 0o644))

	request, err := json.Marshal(map[string]any{
		"signature": signatureDataURL(t),
		"fields": []map[string]any{
			{"type": "signature", "pdfCoord": map[string]float64{"x": 50, "y": 50, "width": 100, "height": 40}},
			{"type": "checkbox", "pdfCoord": map[string]float64{"x": 50, "y": 150, "width": 20, "height": 20}},
		},
	})
	require.NoError(t, err)
	requestPath := filepath.Join(dir, "request.json")
	require.NoError(t, os.WriteFile(requestPath, request, 0o644))

	cfg := config.Default()
	cfg.Document.BasePath = basePath
	cfg.Log.Level = "error"
	output := filepath.Join(dir, "out.pdf")

	var summary bytes.Buffer
	require.NoError(t, StampPDF(context.Background(), cfg, requestPath, output, &summary))

	out, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, base))

	lines := strings.Split(strings.TrimSpace(summary.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "field 0 (signature): stamped", lines[0])
	assert.Equal(t, "field 1 (checkbox): skipped - inert field type", lines[1])
	assert.Equal(t, "original hash: "+integrity.Hash(base), lines[2])
	assert.Equal(t, "final hash:    "+integrity.Hash(out), lines[3])
}

func TestStampPDF_Errors(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Document.BasePath = filepath.Join(dir, "missing.pdf")

	badJSON := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badJSON, []byte("{"), 0o644))
	noFields := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(noFields, []byte(`{"signature":"x","fields":[]}`), 0o644))

	tests := []struct {
		name    string
		request string
		want    string
	}{
		{"missing request", filepath.Join(dir, "nope.json"), "no such file"},
		{"invalid request", badJSON, "failed to parse"},
		{"no fields", noFields, "No fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := StampPDF(context.Background(), cfg, tt.request, filepath.Join(dir, "out.pdf"), io.Discard)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewStamper(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("defaults", func(t *testing.T) {
		cfg := config.Default()
		st, err := NewStamper(cfg, logger, store.NewMemory())
		require.NoError(t, err)
		assert.Nil(t, st.Sealer)
		assert.NotNil(t, st.Recorder)
		assert.Len(t, st.Options, 3)
	})

	t.Run("missing seal credentials", func(t *testing.T) {
		cfg := config.Default()
		cfg.Seal.PKCS12 = filepath.Join(t.TempDir(), "seal.p12")
		_, err := NewStamper(cfg, logger, nil)
		assert.ErrorContains(t, err, "failed to read seal credentials")
	})
}

func TestServe_Cancelled(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, Serve(ctx, cfg, io.Discard))
}

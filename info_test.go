package signatureengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prathamesonar/signature-engine/internal/testpdf"
)

func TestDocument_Info(t *testing.T) {
	for _, xrefStream := range []bool{false, true} {
		doc, err := Open(testpdf.New(testpdf.Options{XrefStream: xrefStream}))
		require.NoError(t, err)

		info := doc.Info()
		assert.Equal(t, 1, info.Pages)
		assert.Equal(t, "testpdf", info.Producer)
		assert.Empty(t, info.Title)
		assert.True(t, info.CreationDate.IsZero())
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"D:20240305120000+01'00'", time.Date(2024, 3, 5, 12, 0, 0, 0, time.FixedZone("", 3600))},
		{"D:20240305120000Z", time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)},
		{"D:20240305", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"D:2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"", time.Time{}},
		{"yesterday", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseDateString(tt.in)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestParseKeywords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"contract; lease", []string{"contract", "lease"}},
		{"a,b, c", []string{"a", "b", "c"}},
		{"one two", []string{"one", "two"}},
		{"single", []string{"single"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseKeywords(tt.in))
		})
	}
}

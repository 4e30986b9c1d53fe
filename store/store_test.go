package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prathamesonar/signature-engine/integrity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, s Store) {
	ctx := context.Background()

	r := integrity.NewRecord("aaa", "bbb", "sample.pdf", 2)
	r.CreatedAt = r.CreatedAt.Truncate(time.Millisecond)
	r.Seal = []byte{0x30, 0x01}
	require.NoError(t, s.Record(ctx, r))

	got, err := s.Get(ctx, r.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(r, got, cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}

	for _, id := range []string{"00000000-0000-0000-0000-000000000000", "not-a-uuid", ""} {
		_, err = s.Get(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound, "id %q", id)
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	testStore(t, m)

	assert.Error(t, m.Record(context.Background(), integrity.Record{}))

	r := integrity.NewRecord("1", "2", "a.pdf", 1)
	require.NoError(t, m.Record(context.Background(), r))
	r.FileName = "b.pdf"
	require.NoError(t, m.Record(context.Background(), r))

	list := m.List()
	assert.Len(t, list, 2)
	assert.Equal(t, "b.pdf", list[1].FileName)
}

func TestPostgres_MalformedID(t *testing.T) {
	p := NewPostgres(nil)
	for _, id := range []string{"nope", "1234", "00000000-0000-0000-0000-00000000000g"} {
		_, err := p.Get(context.Background(), id)
		assert.ErrorIs(t, err, ErrNotFound, "id %q", id)
	}
}

func TestPostgres(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	p, err := Connect(context.Background(), url)
	require.NoError(t, err)
	defer p.Close()

	testStore(t, p)
}

package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/Winder2006/COBALT/internal/fetch"
	"github.com/Winder2006/COBALT/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// docServer serves a small PDF-typed payload and counts requests per path.
func docServer(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		if r.URL.Query().Get("named") == "1" {
			w.Header().Set("Content-Disposition", `attachment; filename="GIS Packet.pdf"`)
		}
		_, _ = w.Write([]byte("%PDF-1.4 test"))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(t.TempDir(), fetch.NewClient())
}

func TestMaterialize_idempotent(t *testing.T) {
	srv, hits := docServer(t)
	s, err := newRegistry(t).GetOrCreate("abc")
	require.NoError(t, err)

	doc := models.DocumentRef{Name: "Closure Letter", DownloadURL: srv.URL + "/download-document?docSeqNo=7"}
	p1, ok := s.Materialize(context.Background(), doc)
	require.True(t, ok)
	p2, ok := s.Materialize(context.Background(), doc)
	require.True(t, ok)

	assert.Equal(t, p1, p2)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits), "second call should be a cache hit")
	assert.Equal(t, "Closure Letter.pdf", filepath.Base(p1))
	b, err := os.ReadFile(p1)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test", string(b))
}

func TestMaterialize_identityIsURL(t *testing.T) {
	srv, hits := docServer(t)
	s, _ := newRegistry(t).GetOrCreate("abc")

	a := models.DocumentRef{ID: 0, Name: "Report", DownloadURL: srv.URL + "/d?docSeqNo=1"}
	b := models.DocumentRef{ID: 5, Name: "Report", DownloadURL: srv.URL + "/d?docSeqNo=1"}
	c := models.DocumentRef{ID: 0, Name: "Report", DownloadURL: srv.URL + "/d?docSeqNo=2"}
	pa, _ := s.Materialize(context.Background(), a)
	pb, _ := s.Materialize(context.Background(), b)
	pc, _ := s.Materialize(context.Background(), c)

	assert.Equal(t, pa, pb)
	assert.NotEqual(t, pa, pc)
	assert.Equal(t, "Report_1.pdf", filepath.Base(pc))
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))
	assert.Len(t, s.Paths(), 2)
}

func TestMaterialize_contentDispositionName(t *testing.T) {
	srv, _ := docServer(t)
	s, _ := newRegistry(t).GetOrCreate("abc")
	p, ok := s.Materialize(context.Background(), models.DocumentRef{Name: "ignored", DownloadURL: srv.URL + "/d?named=1"})
	require.True(t, ok)
	assert.Equal(t, "GIS Packet.pdf", filepath.Base(p))
}

func TestMaterialize_failureIsAbsent(t *testing.T) {
	srv, _ := docServer(t)
	s, _ := newRegistry(t).GetOrCreate("abc")

	_, ok := s.Materialize(context.Background(), models.DocumentRef{DownloadURL: srv.URL + "/missing"})
	assert.False(t, ok)
	_, ok = s.Materialize(context.Background(), models.DocumentRef{})
	assert.False(t, ok)

	_, err := s.Fetch(context.Background(), models.DocumentRef{DownloadURL: srv.URL + "/missing"})
	assert.True(t, errors.Is(err, ErrNotMaterialized))
}

func TestCleanup_refetchesAfterwards(t *testing.T) {
	srv, hits := docServer(t)
	reg := newRegistry(t)
	s, _ := reg.GetOrCreate("abc")
	doc := models.DocumentRef{Name: "Report", DownloadURL: srv.URL + "/d?docSeqNo=1"}

	p1, ok := s.Materialize(context.Background(), doc)
	require.True(t, ok)
	require.NoError(t, s.Cleanup())
	_, err := os.Stat(s.Dir())
	assert.True(t, os.IsNotExist(err), "scratch dir should be removed")
	assert.Empty(t, s.Paths())

	again, err := reg.GetOrCreate("abc")
	require.NoError(t, err)
	p2, ok := again.Materialize(context.Background(), doc)
	require.True(t, ok)
	assert.Equal(t, int32(2), atomic.LoadInt32(hits), "materialize after cleanup must re-fetch")
	assert.Equal(t, p1, p2)
	_, err = os.Stat(p2)
	assert.NoError(t, err)
}

func TestCleanup_idempotent(t *testing.T) {
	reg := newRegistry(t)
	s, _ := reg.GetOrCreate("never-used")
	assert.NoError(t, s.Cleanup())
	assert.NoError(t, s.Cleanup())
	assert.NoError(t, reg.Cleanup("never-used"))
	assert.NoError(t, reg.Cleanup("unknown-session"))
}

func TestRegistry_GetOrCreate(t *testing.T) {
	reg := newRegistry(t)
	a, err := reg.GetOrCreate("one")
	require.NoError(t, err)
	b, err := reg.GetOrCreate("one")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, filepath.Join(reg.Root(), "one"), a.Dir())

	for _, bad := range []string{"", ".", "..", "a/b", `a\b`} {
		_, err := reg.GetOrCreate(bad)
		assert.True(t, errors.Is(err, ErrInvalidSessionID), "id %q", bad)
	}
}

func TestRegistry_CleanupForgets(t *testing.T) {
	reg := newRegistry(t)
	a, _ := reg.GetOrCreate("one")
	require.NoError(t, reg.Cleanup("one"))
	_, ok := reg.Get("one")
	assert.False(t, ok)
	b, _ := reg.GetOrCreate("one")
	assert.NotSame(t, a, b)
}

func TestRegistry_CleanupAll(t *testing.T) {
	srv, _ := docServer(t)
	reg := newRegistry(t)
	for _, id := range []string{"a", "b"} {
		s, _ := reg.GetOrCreate(id)
		_, ok := s.Materialize(context.Background(), models.DocumentRef{Name: id, DownloadURL: srv.URL + "/d?x=" + id})
		require.True(t, ok)
	}
	require.NoError(t, reg.CleanupAll())
	assert.Empty(t, reg.IDs())
	entries, _ := os.ReadDir(reg.Root())
	assert.Empty(t, entries)
}

func TestSession_DiskUsageAndIndex(t *testing.T) {
	srv, _ := docServer(t)
	s, _ := newRegistry(t).GetOrCreate("abc")
	_, ok := s.Materialize(context.Background(), models.DocumentRef{Name: "r", DownloadURL: srv.URL + "/d"})
	require.True(t, ok)
	n, err := s.DiskUsage()
	require.NoError(t, err)
	assert.Equal(t, int64(len("%PDF-1.4 test")), n)

	idx, err := s.Index()
	require.NoError(t, err)
	idx2, _ := s.Index()
	assert.Same(t, idx, idx2)
}

func TestSession_IndexedCountWithoutIndex(t *testing.T) {
	s, err := newRegistry(t).GetOrCreate("fresh")
	require.NoError(t, err)

	n, err := s.IndexedCount()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Nil(t, s.index)

	_, err = s.Index()
	require.NoError(t, err)
	n, err = s.IndexedCount()
	require.NoError(t, err)
	assert.Zero(t, n)
}

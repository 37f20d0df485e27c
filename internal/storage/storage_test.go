package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_PutDelete(t *testing.T) {
	s := NewMemoryStorage("docs")
	ctx := context.Background()

	a, err := s.Put(ctx, "documents/abc", []byte("one"))
	require.NoError(t, err)
	b, err := s.Put(ctx, "documents/abc", []byte("one"))
	require.NoError(t, err)

	require.NotEqual(t, a.StoreID, b.StoreID, "every put gets a fresh key")
	require.True(t, strings.HasPrefix(a.StoreID, "documents/abc/"))
	require.True(t, strings.HasSuffix(a.StoreID, ".pdf"))
	require.Equal(t, "memory://docs/"+a.StoreID, a.URL)
	require.Equal(t, 2, s.Len())

	got, ok := s.Object(a.StoreID)
	require.True(t, ok)
	require.Equal(t, []byte("one"), got)

	require.NoError(t, s.Delete(ctx, a.StoreID))
	_, ok = s.Object(a.StoreID)
	require.False(t, ok)

	// absent objects delete cleanly
	require.NoError(t, s.Delete(ctx, a.StoreID))
	require.Equal(t, 1, s.Len())
}

func TestMemoryStorage_CopiesInput(t *testing.T) {
	s := NewMemoryStorage("")
	data := []byte("abc")
	ref, err := s.Put(context.Background(), "", data)
	require.NoError(t, err)
	data[0] = 'x'
	got, _ := s.Object(ref.StoreID)
	require.Equal(t, []byte("abc"), got)
	require.False(t, strings.Contains(ref.StoreID, "/"))
}

func TestMemoryStorage_HonoursContext(t *testing.T) {
	s := NewMemoryStorage("docs")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Put(ctx, "f", []byte("x"))
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, s.Delete(ctx, "f/x.pdf"), context.Canceled)
	require.Equal(t, 0, s.Len())
}

func TestNewKey(t *testing.T) {
	require.True(t, strings.HasPrefix(newKey(" /documents/x/ "), "documents/x/"))
	require.NotContains(t, newKey(""), "/")
}

func TestPublicURL(t *testing.T) {
	require.Equal(t, "http://localhost:9000/b/f/k.pdf", publicURL("http://localhost:9000/", "b", "f/k.pdf"))
}

func TestS3ObjectURL(t *testing.T) {
	s := &S3Storage{bucket: "b", region: "eu-west-1"}
	require.Equal(t, "https://b.s3.eu-west-1.amazonaws.com/f/k.pdf", s.objectURL("f/k.pdf"))
	s.endpoint = "http://localhost:4566"
	require.Equal(t, "http://localhost:4566/b/f/k.pdf", s.objectURL("f/k.pdf"))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{Backend: BackendMemory})
	require.NoError(t, err)
	require.IsType(t, &MemoryStorage{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Config{Backend: BackendS3})
	require.ErrorContains(t, err, "bucket")

	_, err = Open(ctx, Config{Backend: "ftp", Bucket: "b"})
	require.ErrorContains(t, err, "unknown storage backend")
}

func TestKeyFromURL(t *testing.T) {
	for raw, want := range map[string]string{
		"memory://docs/documents/a/1.pdf":                       "documents/a/1.pdf",
		"http://localhost:9000/docs/documents/a/1.pdf":          "documents/a/1.pdf",
		"https://cdn.example.com/files/docs/f/2.pdf":            "f/2.pdf",
		"https://docs.s3.eu-west-1.amazonaws.com/f/3.pdf":       "f/3.pdf",
		"https://storage.googleapis.com/docs/docs/nested/4.pdf": "docs/nested/4.pdf",
	} {
		got, err := keyFromURL(raw, "docs")
		require.NoError(t, err, raw)
		require.Equal(t, want, got, raw)
	}
	for _, raw := range []string{
		"https://elsewhere.example.com/other/f.pdf",
		"memory://docs/",
		"://bad",
	} {
		_, err := keyFromURL(raw, "docs")
		require.Error(t, err, raw)
	}
}

func TestMemoryStorage_KeyFromURL(t *testing.T) {
	s := NewMemoryStorage("docs")
	ref, err := s.Put(context.Background(), "documents", []byte("x"))
	require.NoError(t, err)
	key, err := s.KeyFromURL(ref.URL)
	require.NoError(t, err)
	require.Equal(t, ref.StoreID, key)

	s3 := &S3Storage{bucket: "b", region: "eu-west-1"}
	key, err = s3.KeyFromURL(s3.objectURL("f/k.pdf"))
	require.NoError(t, err)
	require.Equal(t, "f/k.pdf", key)
}

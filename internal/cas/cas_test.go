package cas

import (
	"errors"
	"io/fs"
	"testing"
)

func TestWriteRead_RoundTrip(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir())

	content := []byte("<h1>CacheModule</h1>\n<p>Caches things.</p>")
	hash, err := s.Write(content)
	if err != nil {
		t.Fatal(err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}
	if !s.Has(hash) {
		t.Error("Has = false after Write")
	}

	got, err := s.Read(hash)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Errorf("round-trip failed: got %q, want %q", got, content)
	}
}

func TestWrite_Dedup(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir())

	hash1, err := s.Write([]byte("duplicate content"))
	if err != nil {
		t.Fatal(err)
	}
	hash2, err := s.Write([]byte("duplicate content"))
	if err != nil {
		t.Fatal(err)
	}
	if hash1 != hash2 {
		t.Errorf("same content produced different hashes: %s vs %s", hash1, hash2)
	}
}

func TestWrite_DifferentContent(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir())

	hash1, err := s.Write([]byte("content A"))
	if err != nil {
		t.Fatal(err)
	}
	hash2, err := s.Write([]byte("content B"))
	if err != nil {
		t.Fatal(err)
	}
	if hash1 == hash2 {
		t.Error("different content should produce different hashes")
	}
}

func TestPut_ExplicitKey(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir())

	key := Hash([]byte("source file"))
	if err := s.Put(key, []byte(`{"docs":[]}`)); err != nil {
		t.Fatal(err)
	}
	got, err := s.Read(key)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"docs":[]}` {
		t.Errorf("got %q", got)
	}
}

func TestRead_MissingHash(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir())

	_, err := s.Read("0000000000000000000000000000000000000000000000000000000000000000")
	if err == nil {
		t.Fatal("expected error for missing hash")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestInvalidKey(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir())

	if s.Has("ab") {
		t.Error("Has accepted a short key")
	}
	if _, err := s.Read("x"); err == nil {
		t.Error("Read accepted a short key")
	}
	if err := s.Put("", nil); err == nil {
		t.Error("Put accepted an empty key")
	}
}

package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteCache_memory(t *testing.T) {
	c, err := NewSQLiteCache("")
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	ctx := context.Background()
	url := "https://apps.dnr.wi.gov/rrbotw/download-document?docSeqNo=1&sender=activity"

	if _, ok, err := c.GetText(ctx, url); err != nil || ok {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}
	if err := c.PutText(ctx, url, "Case closed."); err != nil {
		t.Fatal(err)
	}
	got, ok, err := c.GetText(ctx, url)
	if err != nil || !ok || got != "Case closed." {
		t.Fatalf("GetText = %q, %v, %v", got, ok, err)
	}

	// Replace
	if err := c.PutText(ctx, url, "Reopened."); err != nil {
		t.Fatal(err)
	}
	got, _, _ = c.GetText(ctx, url)
	if got != "Reopened." {
		t.Errorf("after replace got %q", got)
	}
	n, err := c.Count(ctx)
	if err != nil || n != 1 {
		t.Errorf("Count = %d, %v", n, err)
	}

	if err := c.Delete(ctx, url); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.GetText(ctx, url); ok {
		t.Error("entry should be deleted")
	}
}

func TestSQLiteCache_file(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	ctx := context.Background()

	c, err := NewSQLiteCache(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.PutText(ctx, "u", "benzene"); err != nil {
		t.Fatal(err)
	}
	_ = c.Close()

	reopened, err := NewSQLiteCache(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	got, ok, err := reopened.GetText(ctx, "u")
	if err != nil || !ok || got != "benzene" {
		t.Errorf("GetText = %q, %v, %v", got, ok, err)
	}
}

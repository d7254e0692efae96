package clients

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestStorageSave(t *testing.T) {
	c, err := NewLocalStorage(t.TempDir(), "/files", "")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	saved, err := c.Save(context.Background(), "report 1.xlsx", []byte("hello"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasSuffix(saved, "_report 1.xlsx") {
		t.Errorf("saved name = %q, want random prefix + original name", saved)
	}

	data, err := os.ReadFile(filepath.Join(c.BaseDir, saved))
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q, want hello", data)
	}

	again, err := c.Save(context.Background(), "report 1.xlsx", []byte("hello"))
	if err != nil {
		t.Fatalf("Save again: %v", err)
	}
	if again == saved {
		t.Error("second save reused the same stored name")
	}
}

func TestStorageSave_StripsPath(t *testing.T) {
	c, err := NewLocalStorage(t.TempDir(), "/files", "")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	saved, err := c.Save(context.Background(), "../../etc/passwd", []byte("x"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if strings.Contains(saved, "/") || strings.Contains(saved, "..") {
		t.Errorf("saved name %q leaks path components", saved)
	}
}

func TestStorageGetURL(t *testing.T) {
	dir := t.TempDir()

	c, err := NewLocalStorage(dir, "/files", "http://example.com:8060")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	if got := c.GetURL("a.xlsx"); got != "http://example.com:8060/files/a.xlsx" {
		t.Errorf("absolute URL = %q", got)
	}

	c2, _ := NewLocalStorage(dir, "/files", "")
	if got := c2.GetURL("b.xlsx"); got != "/files/b.xlsx" {
		t.Errorf("relative URL = %q", got)
	}

	c3, _ := NewLocalStorage(dir, "files", "http://example.com/")
	if got := c3.GetURL("c.xlsx"); got != "http://example.com/files/c.xlsx" {
		t.Errorf("normalized URL = %q", got)
	}
}

func TestStorageCleanupOlderThan(t *testing.T) {
	c, err := NewLocalStorage(t.TempDir(), "/files", "")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	old := filepath.Join(c.BaseDir, "old_report.xlsx")
	if err := os.WriteFile(old, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	stale := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatal(err)
	}

	fresh := filepath.Join(c.BaseDir, "fresh_report.xlsx")
	if err := os.WriteFile(fresh, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := c.CleanupOlderThan(time.Hour); err != nil {
		t.Fatalf("CleanupOlderThan: %v", err)
	}

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("stale file survived cleanup")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh file removed: %v", err)
	}
}

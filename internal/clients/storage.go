package clients

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// StorageClient keeps generated report files on local disk and hands out
// download URLs for them. Saved names get a random prefix so concurrent
// exports of the same session never collide; the REST layer strips the
// prefix back off for the Content-Disposition header.
type StorageClient struct {
	BaseDir      string // directory holding export files, created on init
	PublicPrefix string // URL path the files are served under, e.g. "/files"
	BaseURL      string // optional scheme+host for absolute URLs
}

func NewLocalStorage(baseDir, publicPrefix, baseURL string) (*StorageClient, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	if publicPrefix == "" {
		publicPrefix = "/files"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir %q: %w", baseDir, err)
	}
	return &StorageClient{BaseDir: baseDir, PublicPrefix: publicPrefix, BaseURL: baseURL}, nil
}

// Save writes data under a collision-free name derived from fileName and
// returns the stored name. The write goes through a temp file so a crashed
// export never leaves a half-written report behind.
func (s *StorageClient) Save(ctx context.Context, fileName string, data []byte) (string, error) {
	fileName = filepath.Base(fileName) // no path traversal via the caller's name

	prefix := make([]byte, 8)
	if _, err := rand.Read(prefix); err != nil {
		return "", fmt.Errorf("generate file name: %w", err)
	}
	stored := hex.EncodeToString(prefix) + "_" + fileName

	path := filepath.Join(s.BaseDir, stored)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("finalize file: %w", err)
	}
	return stored, nil
}

// GetURL returns the download URL for a stored name: absolute when BaseURL
// is configured, otherwise a path relative to the serving host.
func (s *StorageClient) GetURL(fileName string) string {
	prefix := s.PublicPrefix
	if prefix == "" {
		prefix = "/files"
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if s.BaseURL != "" {
		return strings.TrimSuffix(s.BaseURL, "/") + prefix + "/" + fileName
	}
	return prefix + "/" + fileName
}

// CleanupOlderThan removes export files whose mtime is older than d.
// Deletion is best-effort; a file that vanishes mid-walk is not an error.
func (s *StorageClient) CleanupOlderThan(d time.Duration) error {
	cutoff := time.Now().Add(-d)
	return filepath.WalkDir(s.BaseDir, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() {
			return nil
		}
		info, err := de.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(path)
		}
		return nil
	})
}

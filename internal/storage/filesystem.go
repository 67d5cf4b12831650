package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clipstudio/internal/format"
)

// UploadStore persists manual-upload file blobs on the local filesystem,
// grouped by session. Blobs are written as self-describing base64 envelopes
// so name and MIME type survive the round trip, and whole sessions expire
// after a TTL.
type UploadStore struct {
	basePath string
	ttl      time.Duration
}

// NewUploadStore initializes an UploadStore rooted at basePath.
func NewUploadStore(basePath string, ttl time.Duration) (*UploadStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &UploadStore{basePath: basePath, ttl: ttl}, nil
}

// Save persists the file under the given session and returns its storage key.
func (s *UploadStore) Save(ctx context.Context, sessionID string, f format.File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return "", err
	}
	name, err := sanitizeName(f.Name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure session dir: %w", err)
	}
	path := filepath.Join(dir, name+".b64")
	if err := os.WriteFile(path, []byte(format.EncodeFile(f)), 0o644); err != nil {
		return "", fmt.Errorf("storage: write blob: %w", err)
	}
	return name, nil
}

// Open retrieves one file from a session by its storage key.
func (s *UploadStore) Open(ctx context.Context, sessionID, key string) (format.File, error) {
	if err := ctx.Err(); err != nil {
		return format.File{}, err
	}
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return format.File{}, err
	}
	name, err := sanitizeName(key)
	if err != nil {
		return format.File{}, err
	}
	raw, err := os.ReadFile(filepath.Join(dir, name+".b64"))
	if err != nil {
		if os.IsNotExist(err) {
			return format.File{}, fmt.Errorf("storage: blob %q: %w", key, os.ErrNotExist)
		}
		return format.File{}, fmt.Errorf("storage: read blob: %w", err)
	}
	return format.DecodeFile(string(raw))
}

// List returns the storage keys present in a session.
func (s *UploadStore) List(ctx context.Context, sessionID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: list session: %w", err)
	}
	var keys []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".b64") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(entry.Name(), ".b64"))
	}
	return keys, nil
}

// HasFiles reports whether a session still holds retrievable blobs. Used by
// the wizard resume computation to decide whether the manual branch must be
// replayed.
func (s *UploadStore) HasFiles(ctx context.Context, sessionID string) bool {
	keys, err := s.List(ctx, sessionID)
	return err == nil && len(keys) > 0
}

// Clear removes a whole session.
func (s *UploadStore) Clear(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("storage: clear session: %w", err)
	}
	return nil
}

// Sweep deletes sessions whose directory has not been touched within the
// TTL and returns how many were removed.
func (s *UploadStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return 0, fmt.Errorf("storage: sweep: %w", err)
	}
	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= s.ttl {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.basePath, entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (s *UploadStore) sessionDir(sessionID string) (string, error) {
	name, err := sanitizeName(sessionID)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, name), nil
}

// sanitizeName normalizes a path component and prevents escaping the
// storage root.
func sanitizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("storage: name is required")
	}
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimLeft(name, "/")
	cleaned := filepath.Clean(name)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || strings.Contains(cleaned, "/") || strings.HasPrefix(cleaned, "..") {
		return "", errors.New("storage: invalid name")
	}
	return cleaned, nil
}

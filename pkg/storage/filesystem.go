package storage

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	appErrors "github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/errors"
)

// Policy describes the upload constraints enforced before a file is accepted.
type Policy struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// LocalStorage persists uploaded files on disk under a base directory and
// hands back stable retrieval URLs rooted at baseURL.
type LocalStorage struct {
	baseDir string
	baseURL string
	policy  Policy
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir, baseURL string, policy Policy) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if baseURL == "" {
		baseURL = "/uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/"), policy: policy}, nil
}

// Validate rejects out-of-policy uploads before anything touches disk.
func (s *LocalStorage) Validate(size int64, mimeType string) error {
	if s.policy.MaxFileSizeBytes > 0 && size > s.policy.MaxFileSizeBytes {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("file exceeds the %d byte size limit", s.policy.MaxFileSizeBytes))
	}
	if len(s.policy.AllowedMIMEs) == 0 {
		return nil
	}
	normalized := strings.ToLower(strings.TrimSpace(mimeType))
	for _, allowed := range s.policy.AllowedMIMEs {
		if normalized == strings.ToLower(allowed) {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file type %q is not allowed", mimeType))
}

// Save validates and writes the given bytes, returning the retrieval URL.
// The stored name is randomized so uploads can never collide or be guessed.
func (s *LocalStorage) Save(originalName string, mimeType string, data []byte) (string, error) {
	if err := s.Validate(int64(len(data)), mimeType); err != nil {
		return "", err
	}

	ext := filepath.Ext(originalName)
	name := uuid.NewString() + ext
	target := filepath.Join(s.baseDir, name)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}

	return s.baseURL + "/" + name, nil
}

// Open returns a read-only handle for a previously stored file URL.
func (s *LocalStorage) Open(fileURL string) (*os.File, error) {
	name := path.Base(fileURL)
	file, err := os.Open(filepath.Join(s.baseDir, name))
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(fileURL string) error {
	name := path.Base(fileURL)
	if err := os.Remove(filepath.Join(s.baseDir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}

// Dir exposes the base directory so the router can serve it statically.
func (s *LocalStorage) Dir() string {
	return s.baseDir
}

package utils

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// LocalProofStore writes proofs under a directory served as static files.
type LocalProofStore struct {
	dir     string
	baseURL string
}

// NewLocalProofStore creates dir if needed. baseURL is the public prefix
// the directory is mounted at, e.g. "/uploads".
func NewLocalProofStore(dir, baseURL string) (*LocalProofStore, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("ensure upload dir: %w", err)
	}
	return &LocalProofStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalProofStore) Dir() string { return s.dir }

// SaveProof copies the upload to dir/key and returns its URL.
func (s *LocalProofStore) SaveProof(_ context.Context, fileHeader *multipart.FileHeader, key string) (string, error) {
	destPath := filepath.Join(s.dir, filepath.FromSlash(key))
	if !strings.HasPrefix(destPath, filepath.Clean(s.dir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid proof key %q", key)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), os.ModePerm); err != nil {
		return "", err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", err
	}
	return s.baseURL + "/" + key, nil
}

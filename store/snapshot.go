package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pwnbisht/llm-chatbot/storage"
)

func snapshotKey(n int, file string) string {
	return fmt.Sprintf("generations/%d/%s", n, file)
}

// BackupGeneration copies both files of generation n to the backup backend.
func (s *Store) BackupGeneration(ctx context.Context, backend storage.Storage, n int) error {
	dir := s.generationDir(n)
	for _, name := range []string{indexFileName, schemaFileName} {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("open generation %d file %s: %w", n, name, err)
		}
		_, err = backend.Upload(ctx, snapshotKey(n, name), f)
		f.Close()
		if err != nil {
			return fmt.Errorf("upload generation %d file %s: %w", n, name, err)
		}
	}
	return nil
}

// RestoreGeneration fetches both files of generation n from the backup
// backend and installs them locally, replacing any existing copies.
func (s *Store) RestoreGeneration(ctx context.Context, backend storage.Storage, n int) error {
	dir := s.generationDir(n)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create generation %d: %w", n, err)
	}
	for _, name := range []string{indexFileName, schemaFileName} {
		rc, err := backend.Download(ctx, snapshotKey(n, name))
		if err != nil {
			return fmt.Errorf("download generation %d file %s: %w", n, name, err)
		}
		err = writeFileAtomic(filepath.Join(dir, name), rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("restore generation %d file %s: %w", n, name, err)
		}
	}
	return nil
}

func writeFileAtomic(path string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".restore-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

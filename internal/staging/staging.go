package staging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Downloader is the part of the archive client staging needs
type Downloader interface {
	DownloadPriceList(ctx context.Context, date time.Time, dest io.Writer) (int64, error)
}

type Manager struct {
	baseDir     string
	stagingRoot string
}

func NewManager(baseDir string) *Manager {
	return &Manager{
		baseDir:     baseDir,
		stagingRoot: filepath.Join(baseDir, ".staging"),
	}
}

func (m *Manager) FinalDir() string {
	return m.baseDir
}

func (m *Manager) StagingRoot() string {
	return m.stagingRoot
}

func (m *Manager) StagingDir(date string) string {
	return filepath.Join(m.stagingRoot, date)
}

func (m *Manager) PrepareStaging(date string) error {
	dir := m.StagingDir(date)
	return os.MkdirAll(dir, 0750)
}

// DownloadToStaging fetches the price list for date into destPath through a
// temp file, so a partial download never appears under its final name.
func (m *Manager) DownloadToStaging(ctx context.Context, client Downloader, date time.Time, destPath string) (int64, error) {
	// Create parent directories
	if err := os.MkdirAll(filepath.Dir(destPath), 0750); err != nil {
		return 0, fmt.Errorf("creating directories: %w", err)
	}

	// Download to temp file
	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}

	size, err := client.DownloadPriceList(ctx, date, f)
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("downloading price list: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}

	return size, nil
}

func (m *Manager) CommitStaging(date string) error {
	stagingDir := m.StagingDir(date)
	finalDir := filepath.Join(m.baseDir, date)

	// Walk staging and move files
	return filepath.Walk(stagingDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(stagingDir, path)
		if err != nil {
			return err
		}

		destPath := filepath.Join(finalDir, relPath)
		if err := os.MkdirAll(filepath.Dir(destPath), 0750); err != nil {
			return err
		}

		return os.Rename(path, destPath)
	})
}

func (m *Manager) CleanupStaging(date string) error {
	return os.RemoveAll(m.StagingDir(date))
}

package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dgnsrekt/moneyflow/internal/moneyflow"
)

const (
	ExtXLSX = "xlsx"
	ExtCSV  = "csv"
)

// FileWriter writes report files under the output directory.
type FileWriter struct {
	dir     string
	formats []string
}

// NewFileWriter returns a writer for the given extensions (ExtXLSX, ExtCSV).
// Unknown extensions are ignored.
func NewFileWriter(dir string, formats []string) *FileWriter {
	var keep []string
	for _, f := range formats {
		if f == ExtXLSX || f == ExtCSV {
			keep = append(keep, f)
		}
	}
	return &FileWriter{dir: dir, formats: keep}
}

// Write writes one file per format and returns their paths.
func (w *FileWriter) Write(res *moneyflow.Result) ([]string, error) {
	paths := make([]string, 0, len(w.formats))
	for _, ext := range w.formats {
		path := OutputPath(w.dir, res.Symbol, res.AsOf, ext)
		if err := writeFile(path, func(out io.Writer) error {
			if ext == ExtCSV {
				return WriteCSV(out, res)
			}
			return WriteXLSX(out, res)
		}); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// writeFile writes to a temp file beside path and renames it into place.
func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}

	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}

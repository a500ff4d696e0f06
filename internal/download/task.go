package download

import (
	"path/filepath"
	"time"

	"github.com/dgnsrekt/moneyflow/internal/nse"
)

const dateLayout = "2006-01-02"

// Task fetches the derivatives price list of one trading day.
type Task struct {
	Date time.Time
}

func (t Task) DateString() string {
	return t.Date.Format(dateLayout)
}

func (t Task) APIPath() string {
	return nse.PriceListPath(t.Date)
}

func (t Task) OutputPath(baseDir string) string {
	return filepath.Join(baseDir, t.DateString(), nse.PriceListFileName(t.Date))
}

func (t Task) String() string {
	return t.DateString() + "/" + nse.PriceListFileName(t.Date)
}

type TaskResult struct {
	Task      Task
	Success   bool
	Skipped   bool
	NotFound  bool
	BytesSize int64
	Error     error
}

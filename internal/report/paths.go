package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgnsrekt/moneyflow/internal/data"
)

// FileName returns the report file name for a symbol and day.
// Format: {SYMBOL}_Money_Flow_{YYYY-MM-DD}.{ext}
func FileName(symbol string, date time.Time, ext string) string {
	return fmt.Sprintf("%s_Money_Flow_%s.%s", strings.ToUpper(symbol), date.Format(data.DateLayout), ext)
}

// OutputPath returns where the report is written under dir.
// Format: {dir}/{YYYY-MM-DD}/{SYMBOL}_Money_Flow_{YYYY-MM-DD}.{ext}
func OutputPath(dir, symbol string, date time.Time, ext string) string {
	return filepath.Join(dir, date.Format(data.DateLayout), FileName(symbol, date, ext))
}

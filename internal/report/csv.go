package report

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/dgnsrekt/moneyflow/internal/moneyflow"
)

// WriteCSV writes the labeled rows of res as CSV with a header line.
func WriteCSV(w io.Writer, res *moneyflow.Result) error {
	records := Records(res)
	if err := gocsv.Marshal(&records, w); err != nil {
		return fmt.Errorf("encoding csv: %w", err)
	}
	return nil
}

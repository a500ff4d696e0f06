package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgnsrekt/moneyflow/internal/download"
	"github.com/dgnsrekt/moneyflow/internal/report"
)

// maxListedErrors caps how many failures a notification body lists.
const maxListedErrors = 3

// Run describes one end-of-day run: the price list fetch followed by
// report generation.
type Run struct {
	Date     string
	Download *download.BatchResult
	Reports  *report.Batch
	Duration time.Duration
}

// FormatSuccessMessage creates a success notification body.
func FormatSuccessMessage(run *Run) string {
	var sb strings.Builder

	writeDownload(&sb, run.Download)

	if run.Reports != nil {
		ok := run.Reports.Succeeded()
		sb.WriteString(fmt.Sprintf("Reports: %d/%d\n", len(ok), len(run.Reports.Outcomes)))
		for _, o := range ok {
			if o.Summary == nil {
				continue
			}
			sb.WriteString(fmt.Sprintf("- %s PCR %.2f R1 %v S1 %v\n",
				o.Symbol, o.Summary.PutCallRatio, first(o.Summary.Resistance), first(o.Summary.Support)))
		}
	}

	sb.WriteString(fmt.Sprintf("Duration: %s", run.Duration.Round(time.Second)))
	return sb.String()
}

// FormatFailureMessage creates a failure notification body.
func FormatFailureMessage(run *Run, err error) string {
	var sb strings.Builder

	writeDownload(&sb, run.Download)

	var failures []string
	if run.Download != nil {
		failures = append(failures, run.Download.Errors...)
	}
	if run.Reports != nil {
		failed := run.Reports.Failed()
		sb.WriteString(fmt.Sprintf("Reports failed: %d/%d\n", len(failed), len(run.Reports.Outcomes)))
		for _, o := range failed {
			failures = append(failures, fmt.Sprintf("%s: %v", o.Symbol, o.Err))
		}
	}

	sb.WriteString(fmt.Sprintf("Duration: %s", run.Duration.Round(time.Second)))

	if err != nil {
		sb.WriteString(fmt.Sprintf("\n\nError: %v", err))
	}

	// Include the first few error messages
	if len(failures) > 0 {
		sb.WriteString("\n\nErrors:\n")
		limit := min(len(failures), maxListedErrors)
		for i := 0; i < limit; i++ {
			sb.WriteString(fmt.Sprintf("- %s\n", failures[i]))
		}
		if len(failures) > maxListedErrors {
			sb.WriteString(fmt.Sprintf("... and %d more errors", len(failures)-maxListedErrors))
		}
	}

	return sb.String()
}

func writeDownload(sb *strings.Builder, result *download.BatchResult) {
	if result == nil {
		return
	}
	sb.WriteString(fmt.Sprintf("Price lists: %d\n", result.Total))
	sb.WriteString(fmt.Sprintf("Downloaded: %d\n", result.Success))
	sb.WriteString(fmt.Sprintf("Skipped: %d\n", result.Skipped))
	sb.WriteString(fmt.Sprintf("Not Found: %d\n", result.NotFound))
	if result.Failed > 0 {
		sb.WriteString(fmt.Sprintf("Failed: %d\n", result.Failed))
	}
}

func first(xs []float64) any {
	if len(xs) == 0 {
		return "-"
	}
	return xs[0]
}

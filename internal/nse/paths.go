package nse

import (
	"fmt"
	"strings"
	"time"
)

// MarketLotsPath is the archive path of the F&O market lot file.
const MarketLotsPath = "/content/fo/fo_mktlots.csv"

// PriceListFileName returns the archive file name of the derivatives price
// list for date, e.g. fo28MAR2024bhav.csv.zip.
func PriceListFileName(date time.Time) string {
	return fmt.Sprintf("fo%sbhav.csv.zip", strings.ToUpper(date.Format("02Jan2006")))
}

// PriceListPath returns the archive path of the derivatives price list for
// date.
func PriceListPath(date time.Time) string {
	return fmt.Sprintf("/content/historical/DERIVATIVES/%s/%s/%s",
		date.Format("2006"),
		strings.ToUpper(date.Format("Jan")),
		PriceListFileName(date))
}

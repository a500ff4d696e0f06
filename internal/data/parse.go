package data

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/klauspost/compress/zip"

	"github.com/dgnsrekt/moneyflow/internal/moneyflow"
)

// DecodePriceListZip extracts the CSV from a zipped price list and decodes it.
func DecodePriceListZip(archive []byte) ([]moneyflow.ContractRecord, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("opening zip: %w", err)
	}

	for _, f := range zr.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", f.Name, err)
		}
		defer func() { _ = rc.Close() }()

		return DecodePriceListCSV(rc)
	}

	return nil, fmt.Errorf("no CSV file in price list archive")
}

// DecodePriceListCSV decodes a price list CSV. Rows that fail to convert
// abort the decode with the offending line number.
func DecodePriceListCSV(r io.Reader) ([]moneyflow.ContractRecord, error) {
	var rows []PriceListRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("unmarshaling price list: %w", err)
	}

	records := make([]moneyflow.ContractRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := row.Record()
		if err != nil {
			// header is line 1
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

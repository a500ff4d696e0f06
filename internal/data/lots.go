package data

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseMarketLots parses the F&O market lot file into symbol -> lot size.
// The file has one column per contract month; the nearest month with a
// value wins. Section banner rows and rows without a lot size are skipped.
func ParseMarketLots(body []byte) (map[string]int, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true

	lots := make(map[string]int)
	header := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading market lots: %w", err)
		}

		if header {
			header = false
			continue
		}
		if len(rec) < 3 {
			continue
		}

		symbol := strings.ToUpper(strings.TrimSpace(rec[1]))
		if symbol == "" || symbol == "SYMBOL" {
			continue
		}

		for _, cell := range rec[2:] {
			size, err := strconv.Atoi(strings.TrimSpace(cell))
			if err == nil && size > 0 {
				lots[symbol] = size
				break
			}
		}
	}

	if len(lots) == 0 {
		return nil, fmt.Errorf("no lot sizes found")
	}
	return lots, nil
}

package source

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// ParseWorkbook parses every sheet of an XLSX export. Each sheet's first
// row is its header; rows carry the sheet name so entity builders can use
// the source sheet as context (e.g. categorization by sheet).
func ParseWorkbook(data []byte) ([]Record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	var records []Record
	for _, sheet := range sheets {
		sheetRecords, err := parseSheet(f, sheet)
		if err != nil {
			return nil, err
		}
		records = append(records, sheetRecords...)
	}
	return records, nil
}

func parseSheet(f *excelize.File, sheet string) ([]Record, error) {
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	var (
		header  []string
		records []Record
	)
	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("read row in sheet %s: %w", sheet, err)
		}
		if header == nil {
			for i := range record {
				record[i] = strings.TrimSpace(record[i])
			}
			header = record
			continue
		}
		records = append(records, Record{Fields: rowFromRecord(header, record), Sheet: sheet})
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("iterate sheet %s: %w", sheet, err)
	}

	if header == nil {
		log.Debug().Str("sheet", sheet).Msg("sheet is empty, skipping")
	}
	return records, nil
}

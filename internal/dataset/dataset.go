// Package dataset reads and writes historical temperature records used to
// train the forecast model. Supported formats are chosen by file extension:
// .json (array of records), .csv and .xlsx (header row date, avgTemp,
// humidity, source; first sheet for .xlsx).
package dataset

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/heatwatch-service/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Header is the column order written to CSV and XLSX files.
var Header = []string{"date", "avgTemp", "humidity", "source"}

// ErrUnsupportedFormat is returned for file extensions other than .json, .csv and .xlsx.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// Format identifies a dataset encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatOf infers the format from a file name.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// Load reads a dataset file.
func Load(path string) ([]domain.HistoricalRecord, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	records, err := Read(f, format)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return records, nil
}

// Read decodes records in the given format.
func Read(r io.Reader, format Format) ([]domain.HistoricalRecord, error) {
	switch format {
	case FormatJSON:
		var records []domain.HistoricalRecord
		if err := json.NewDecoder(r).Decode(&records); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		for i, rec := range records {
			if err := validate(rec); err != nil {
				return nil, fmt.Errorf("record %d: %w", i+1, err)
			}
		}
		return records, nil
	case FormatCSV:
		rows, err := csv.NewReader(r).ReadAll()
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		return fromRows(rows)
	case FormatXLSX:
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("open xlsx: %w", err)
		}
		defer f.Close()
		rows, err := f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, fmt.Errorf("read xlsx rows: %w", err)
		}
		return fromRows(rows)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Save writes records to path in the format implied by its extension.
func Save(path string, records []domain.HistoricalRecord) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	if format == FormatXLSX {
		f, err := toWorkbook(records)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := f.SaveAs(path); err != nil {
			return fmt.Errorf("save xlsx: %w", err)
		}
		return nil
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	if err := Write(out, format, records); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Write encodes records in the given format.
func Write(w io.Writer, format Format, records []domain.HistoricalRecord) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(Header); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
		for _, rec := range records {
			if err := cw.Write(toRow(rec)); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
		cw.Flush()
		return cw.Error()
	case FormatXLSX:
		f, err := toWorkbook(records)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := f.Write(w); err != nil {
			return fmt.Errorf("write xlsx: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func toWorkbook(records []domain.HistoricalRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write xlsx header: %w", err)
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("write xlsx row %d: %w", i+2, err)
		}
		row := []any{rec.Date, rec.AvgTemp, rec.Humidity, rec.Source}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write xlsx row %d: %w", i+2, err)
		}
	}
	return f, nil
}

// fromRows converts a header row plus data rows. Columns are matched by
// name, case-insensitively; source is optional. Blank rows are skipped.
func fromRows(rows [][]string) ([]domain.HistoricalRecord, error) {
	if len(rows) < 2 {
		return nil, errors.New("dataset needs a header row and at least one data row")
	}

	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	dateIdx, okDate := cols["date"]
	tempIdx, okTemp := cols["avgtemp"]
	humIdx, okHum := cols["humidity"]
	srcIdx, okSrc := cols["source"]
	if !okDate || !okTemp || !okHum {
		return nil, fmt.Errorf("header %v must contain date, avgTemp and humidity", rows[0])
	}

	records := make([]domain.HistoricalRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		if isBlank(row) {
			continue
		}

		avgTemp, err := parseFloat(cell(row, tempIdx))
		if err != nil {
			return nil, fmt.Errorf("row %d: avgTemp: %w", line, err)
		}
		humidity, err := parseFloat(cell(row, humIdx))
		if err != nil {
			return nil, fmt.Errorf("row %d: humidity: %w", line, err)
		}
		rec := domain.HistoricalRecord{
			Date:     cell(row, dateIdx),
			AvgTemp:  avgTemp,
			Humidity: humidity,
		}
		if okSrc {
			rec.Source = cell(row, srcIdx)
		}
		if err := validate(rec); err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, errors.New("dataset has no data rows")
	}
	return records, nil
}

func validate(rec domain.HistoricalRecord) error {
	if _, err := time.Parse(time.DateOnly, rec.Date); err != nil {
		return fmt.Errorf("date %q is not YYYY-MM-DD", rec.Date)
	}
	if math.IsNaN(rec.AvgTemp) || math.IsInf(rec.AvgTemp, 0) {
		return errors.New("avgTemp is not finite")
	}
	if rec.Humidity < 0 || rec.Humidity > 100 {
		return fmt.Errorf("humidity %v outside 0-100", rec.Humidity)
	}
	return nil
}

func toRow(rec domain.HistoricalRecord) []string {
	return []string{
		rec.Date,
		strconv.FormatFloat(rec.AvgTemp, 'f', -1, 64),
		strconv.FormatFloat(rec.Humidity, 'f', -1, 64),
		rec.Source,
	}
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, errors.New("missing value")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Package ingest reads uploaded weather CSV files into observations.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/mozillazg/go-unidecode"

	"climate-dashboard/internal/models"
)

// Required column names after header normalization.
const (
	ColumnTime          = "time"
	ColumnPrecipitation = "prcp"
	ColumnMaxTemp       = "tmax"
	ColumnAvgTemp       = "tavg"
)

// RequiredColumns lists the columns every dataset must carry.
var RequiredColumns = []string{ColumnTime, ColumnPrecipitation, ColumnMaxTemp, ColumnAvgTemp}

// ErrTooLarge is returned when the decompressed payload exceeds the limit.
var ErrTooLarge = errors.New("payload exceeds size limit")

const utf8BOM = "\ufeff"

// Result is a parsed dataset before it is stored.
type Result struct {
	Name         string
	Compression  Compression
	Columns      []string
	Records      []models.RawObservation
	PayloadBytes int
}

// Observations coerces every record. Unparseable cells become missing.
func (r *Result) Observations() []models.Observation {
	observations := make([]models.Observation, len(r.Records))
	for i, record := range r.Records {
		observations[i] = record.ToObservation()
	}
	return observations
}

// NormalizeHeader folds a header cell to the form used for column lookup:
// BOM stripped, non-ASCII transliterated, lowercased and trimmed.
func NormalizeHeader(header string) string {
	header = strings.TrimPrefix(header, utf8BOM)
	return strings.ToLower(strings.TrimSpace(unidecode.Unidecode(header)))
}

// LoadFile opens a CSV file from disk, decompressing by extension.
func LoadFile(path string, maxBytes int64) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Load(filepath.Base(path), file, maxBytes)
}

// Load decompresses r according to name and parses the CSV payload.
// A non-positive maxBytes disables the size limit.
func Load(name string, r io.Reader, maxBytes int64) (*Result, error) {
	plain, err := Decompress(name, r, maxBytes)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return nil, &models.ValidationError{Field: "file", Value: name, Message: fmt.Sprintf("unreadable archive: %v", err)}
	}
	defer plain.Close()

	var payload io.Reader = plain
	if maxBytes > 0 {
		payload = io.LimitReader(plain, maxBytes+1)
	}
	data, err := io.ReadAll(payload)
	if err != nil {
		return nil, &models.ValidationError{Field: "file", Value: name, Message: fmt.Sprintf("failed to read payload: %v", err)}
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%s: %w", name, ErrTooLarge)
	}

	records, columns, err := Parse(data)
	if err != nil {
		return nil, err
	}

	return &Result{
		Name:         name,
		Compression:  DetectCompression(name),
		Columns:      columns,
		Records:      records,
		PayloadBytes: len(data),
	}, nil
}

// Parse reads a CSV payload and returns one raw record per data row plus
// the header as written in the file. Extra columns are ignored. Short rows
// are padded with empty cells, which coerce to missing values; cells past
// the header width are dropped.
func Parse(data []byte) ([]models.RawObservation, []string, error) {
	data = bytes.TrimPrefix(data, []byte(utf8BOM))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, &models.ValidationError{Field: "file", Message: "file is empty"}
	}

	rows, err := readRows(data)
	if err != nil {
		return nil, nil, &models.ValidationError{Field: "file", Message: fmt.Sprintf("unreadable CSV: %v", err)}
	}
	header := rows[0]
	columns, err := resolveColumns(header)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 1 {
		return []models.RawObservation{}, header, nil
	}

	df := dataframe.LoadRecords(rows,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, nil, &models.ValidationError{Field: "file", Message: fmt.Sprintf("unreadable CSV: %v", df.Err)}
	}

	// the dataframe renames duplicate headers, so look columns up by position
	names := df.Names()
	if len(names) != len(header) {
		return nil, nil, &models.ValidationError{Field: "file", Message: "unreadable CSV: header does not match data"}
	}
	times := df.Col(names[columns[ColumnTime]]).Records()
	precipitation := df.Col(names[columns[ColumnPrecipitation]]).Records()
	maxTemps := df.Col(names[columns[ColumnMaxTemp]]).Records()
	avgTemps := df.Col(names[columns[ColumnAvgTemp]]).Records()

	records := make([]models.RawObservation, df.Nrow())
	for i := range records {
		records[i] = models.RawObservation{
			Time:          times[i],
			Precipitation: precipitation[i],
			MaxTemp:       maxTemps[i],
			AvgTemp:       avgTemps[i],
		}
	}
	return records, header, nil
}

// readRows reads every CSV record and squares data rows to the header width.
func readRows(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("no header row")
	}

	width := len(rows[0])
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		switch {
		case len(row) < width:
			rows[i] = append(row, make([]string, width-len(row))...)
		case len(row) > width:
			rows[i] = row[:width]
		}
	}
	return rows, nil
}

// resolveColumns maps each required column to the position of the first
// header cell that normalizes to it.
func resolveColumns(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		normalized := NormalizeHeader(name)
		if _, seen := positions[normalized]; !seen {
			positions[normalized] = i
		}
	}

	var missing []string
	resolved := make(map[string]int, len(RequiredColumns))
	for _, required := range RequiredColumns {
		position, ok := positions[required]
		if !ok {
			missing = append(missing, required)
			continue
		}
		resolved[required] = position
	}

	if len(missing) > 0 {
		return nil, &models.ValidationError{
			Field:   missing[0],
			Value:   strings.Join(header, ","),
			Message: fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")),
		}
	}
	return resolved, nil
}

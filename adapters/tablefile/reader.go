// Package tablefile loads long-format trajectory tables from CSV and
// XLSX files. Loading is a caller-side concern: the analyzer itself only
// consumes the in-memory table.
package tablefile

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/guhjy/BFDA/domain/trajectory"
	"github.com/guhjy/BFDA/internal"
	"github.com/guhjy/BFDA/internal/errors"
)

// Reader handles reading trajectory tables from CSV and XLSX files.
type Reader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	log      *internal.Logger
}

// NewReader creates a reader for the given file; the format is inferred
// from the extension, defaulting to XLSX.
func NewReader(filePath string) *Reader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &Reader{
		filePath: filePath,
		fileType: fileType,
		log:      internal.DefaultLogger.Named("tablefile"),
	}
}

// ReadTable reads the trajectory table from the configured file.
func (r *Reader) ReadTable() (trajectory.Table, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.NotFound(r.filePath)
	}

	switch r.fileType {
	case "csv":
		f, err := os.Open(r.filePath)
		if err != nil {
			return nil, errors.ParseError("failed to open CSV file", err)
		}
		defer f.Close()
		return r.parseCSV(f)
	case "xlsx":
		return r.readXLSX()
	default:
		return nil, errors.InvalidInput("unsupported file type: " + r.fileType)
	}
}

// ParseCSV reads a trajectory table from an in-memory CSV stream. Used by
// callers that receive the table over a network boundary.
func ParseCSV(src io.Reader) (trajectory.Table, error) {
	r := &Reader{fileType: "csv", log: internal.DefaultLogger.Named("tablefile")}
	return r.parseCSV(src)
}

func (r *Reader) parseCSV(src io.Reader) (trajectory.Table, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.ParseError("failed to read CSV data", err)
	}
	return r.buildTable(rows)
}

func (r *Reader) readXLSX() (trajectory.Table, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.ParseError("failed to open XLSX file", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, errors.ParseError("failed to read first sheet", err)
	}
	return r.buildTable(rows)
}

// buildTable converts raw string rows into a trajectory table. Malformed
// data rows are skipped and counted rather than failing the whole load.
func (r *Reader) buildTable(rows [][]string) (trajectory.Table, error) {
	if len(rows) < 2 {
		return nil, errors.InvalidInput("trajectory file needs a header row and at least one data row")
	}

	cols, err := mapColumns(rows[0])
	if err != nil {
		return nil, err
	}

	table := make(trajectory.Table, 0, len(rows)-1)
	skipped := 0
	for _, raw := range rows[1:] {
		row, ok := parseRow(raw, cols)
		if !ok {
			skipped++
			continue
		}
		table = append(table, row)
	}

	if skipped > 0 {
		r.log.Warn("skipped %d malformed rows out of %d", skipped, len(rows)-1)
	}
	if len(table) == 0 {
		return nil, errors.InvalidInput("no parseable data rows in trajectory file")
	}

	r.log.Info("loaded %d trajectory rows (%d trajectories)", len(table), len(table.IDs()))
	return table, nil
}

// columnIndexes locates the five trajectory columns in the header row.
type columnIndexes struct {
	id, n, logBF, boundary, pValue int
}

func mapColumns(header []string) (columnIndexes, error) {
	cols := columnIndexes{id: -1, n: -1, logBF: -1, boundary: -1, pValue: -1}
	for i, h := range header {
		switch normalizeHeader(h) {
		case "id":
			cols.id = i
		case "n":
			cols.n = i
		case "logbf":
			cols.logBF = i
		case "boundary":
			cols.boundary = i
		case "pvalue", "p":
			cols.pValue = i
		}
	}
	if cols.id < 0 || cols.n < 0 || cols.logBF < 0 || cols.boundary < 0 || cols.pValue < 0 {
		return cols, errors.InvalidInput("header must contain id, n, logBF, boundary and p.value columns")
	}
	return cols, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, ".", "")
	h = strings.ReplaceAll(h, "_", "")
	return h
}

func parseRow(raw []string, cols columnIndexes) (trajectory.Row, bool) {
	need := cols.id
	for _, c := range []int{cols.n, cols.logBF, cols.boundary, cols.pValue} {
		if c > need {
			need = c
		}
	}
	if len(raw) <= need {
		return trajectory.Row{}, false
	}

	id, err := strconv.Atoi(strings.TrimSpace(raw[cols.id]))
	if err != nil {
		return trajectory.Row{}, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw[cols.n]))
	if err != nil || n <= 0 {
		return trajectory.Row{}, false
	}
	logBF, err := strconv.ParseFloat(strings.TrimSpace(raw[cols.logBF]), 64)
	if err != nil {
		return trajectory.Row{}, false
	}
	boundary, err := strconv.ParseFloat(strings.TrimSpace(raw[cols.boundary]), 64)
	if err != nil {
		return trajectory.Row{}, false
	}
	pValue, err := strconv.ParseFloat(strings.TrimSpace(raw[cols.pValue]), 64)
	if err != nil || pValue < 0 || pValue > 1 {
		return trajectory.Row{}, false
	}

	return trajectory.Row{ID: id, N: n, LogBF: logBF, Boundary: boundary, PValue: pValue}, true
}

package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"redevdash/domain/pipeline"
	"redevdash/internal"

	"github.com/xuri/excelize/v2"
)

// DataReader reads the pipeline workbook (xlsx) or a CSV export of it
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
	log      *internal.Logger
}

// NewDataReader creates a reader. An empty sheet selects the first sheet of the workbook.
func NewDataReader(filePath, sheet string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType, sheet: sheet, log: internal.DefaultLogger}
}

// FilePath returns the file the reader was created for
func (r *DataReader) FilePath() string {
	return r.filePath
}

// ReadBatch reads the header row and every data row into a pipeline batch
func (r *DataReader) ReadBatch() (pipeline.Batch, error) {
	r.log.Debug("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return pipeline.Batch{}, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows()
	}
	if err != nil {
		return pipeline.Batch{}, err
	}
	if len(rows) == 0 {
		return pipeline.Batch{}, fmt.Errorf("%s file has no header row", strings.ToUpper(r.fileType))
	}

	return r.processRows(rows), nil
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found in %s", sheet, r.filePath)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	r.log.Debug("[DataReader] %s read in %.2fms (%d rows)", sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// processRows keys each data row by its spreadsheet row number. Rows with no
// content are skipped; short rows read as blank cells.
func (r *DataReader) processRows(rows [][]string) pipeline.Batch {
	headerRow := rows[0]
	headers := make([]string, 0, len(headerRow))
	index := make([]int, 0, len(headerRow))
	seen := make(map[string]bool, len(headerRow))
	for i, header := range headerRow {
		header = strings.TrimSpace(header)
		if header == "" || seen[header] {
			continue
		}
		seen[header] = true
		headers = append(headers, header)
		index = append(index, i)
	}

	dataRows := make([]pipeline.RawRow, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		cells := make(map[string]string, len(headers))
		blank := true
		for h, col := range index {
			value := ""
			if col < len(row) {
				value = strings.TrimSpace(row[col])
			}
			if value != "" {
				blank = false
			}
			cells[headers[h]] = value
		}
		if blank {
			continue
		}
		dataRows = append(dataRows, pipeline.RawRow{Key: fmt.Sprintf("row-%d", i+1), Cells: cells})
	}

	r.log.Info("[DataReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return pipeline.Batch{Headers: headers, Rows: dataRows}
}

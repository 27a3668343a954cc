// Package spreadsheet reads the source workbook and writes the styled result
// workbook. The core never touches files directly; it consumes the raw rows
// this package produces and hands its final product list back for export.
package spreadsheet

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ErrEmptyWorkbook flags a workbook with no usable rows on its first sheet.
var ErrEmptyWorkbook = errors.New("workbook is empty")

// ReadWorkbook loads the first sheet of an xlsx file as raw rows, row 0 being
// the header.
func ReadWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyWorkbook
	}

	return rows, nil
}

package spreadsheet

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/bookway/stocktake/internal/domain/models"
)

const (
	exportSheet = "Inventar"
	// CountedColumnHeader is appended as the last column of the export.
	CountedColumnHeader = "Stoc Faptic (Scanat)"

	surplusFill  = "FF9999" // counted above scriptic
	shortageFill = "99FF99" // counted below scriptic
)

// Export writes the counting result to an xlsx file: one row per record in
// working-set order, with every original column reproduced for catalog items
// and a synthesized row for items added during scanning, plus the appended
// counted-quantity column. The counted cell is filled red when it exceeds the
// scriptic stock and green when it falls short; the fill is visual only.
func Export(path string, products []models.ProductRecord, originalHeaders []string, mapping models.ColumnMapping) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(exportSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	colCount := len(originalHeaders)
	header := append(append([]string{}, originalHeaders...), CountedColumnHeader)
	if err := writeRow(f, 1, header); err != nil {
		return err
	}

	surplusStyle, err := countedStyle(f, surplusFill)
	if err != nil {
		return err
	}
	shortageStyle, err := countedStyle(f, shortageFill)
	if err != nil {
		return err
	}

	for i, p := range products {
		var row []string
		if !p.IsNew {
			row = append([]string{}, p.OriginalData...)
			for len(row) < colCount {
				row = append(row, "")
			}
			row = row[:colCount]
		} else {
			row = make([]string, colCount)
			setCell(row, mapping.CodeIndex, p.Code)
			setCell(row, mapping.DescIndex, p.Description)
			if mapping.StockIndex != -1 {
				setCell(row, mapping.StockIndex, "0")
			}
		}

		rowNum := i + 2
		if err := writeRow(f, rowNum, row); err != nil {
			return err
		}

		countedCell, err := excelize.CoordinatesToCellName(colCount+1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(exportSheet, countedCell, p.ActualStock); err != nil {
			return fmt.Errorf("write counted cell %s: %w", countedCell, err)
		}

		scriptic := 0
		if mapping.StockIndex >= 0 && mapping.StockIndex < len(row) {
			scriptic = parseCellInt(row[mapping.StockIndex])
		}

		styleID := 0
		switch {
		case p.ActualStock > scriptic:
			styleID = surplusStyle
		case p.ActualStock < scriptic:
			styleID = shortageStyle
		}
		if styleID != 0 {
			if err := f.SetCellStyle(exportSheet, countedCell, countedCell, styleID); err != nil {
				return fmt.Errorf("style counted cell %s: %w", countedCell, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

// OutputName derives the export file name from the imported one:
// {base}_actualizat_{date}.xlsx.
func OutputName(fileName string, now time.Time) string {
	base := strings.SplitN(fileName, ".", 2)[0]
	if base == "" {
		base = "inventar"
	}
	return fmt.Sprintf("%s_actualizat_%s.xlsx", base, now.Format("2006-01-02"))
}

func writeRow(f *excelize.File, rowNum int, cells []string) error {
	for i, v := range cells {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(exportSheet, cell, v); err != nil {
			return fmt.Errorf("write cell %s: %w", cell, err)
		}
	}
	return nil
}

func countedStyle(f *excelize.File, fill string) (int, error) {
	id, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return 0, fmt.Errorf("create counted style: %w", err)
	}
	return id, nil
}

func setCell(row []string, idx int, value string) {
	if idx >= 0 && idx < len(row) {
		row[idx] = value
	}
}

func parseCellInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

package inventory

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bookway/stocktake/internal/domain/models"
)

// Rows shorter than this after normalization are considered noise, not codes.
const minCodeLength = 3

// DefaultDescription is used for catalog rows with an empty description cell.
const DefaultDescription = "Fără descriere"

// MapRowsToProducts builds the catalog from raw spreadsheet rows. Row 0 is the
// header; data starts at row 1. Rows whose normalized code is shorter than
// three characters are dropped. Record IDs are unique within one import
// ({code}_{dataRowIndex}) but not across re-imports.
func MapRowsToProducts(rows [][]string, mapping models.ColumnMapping) []models.ProductRecord {
	if len(rows) <= 1 {
		return nil
	}

	products := make([]models.ProductRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		code := Normalize(cellAt(row, mapping.CodeIndex))
		if len(code) < minCodeLength {
			continue
		}

		description := strings.TrimSpace(cellAt(row, mapping.DescIndex))
		if description == "" {
			description = DefaultDescription
		}

		scriptic := 0
		if mapping.StockIndex != -1 {
			scriptic = parseLeadingInt(cellAt(row, mapping.StockIndex))
		}

		products = append(products, models.ProductRecord{
			ID:               fmt.Sprintf("%s_%d", code, i),
			Code:             code,
			Description:      description,
			ScripticStock:    scriptic,
			ActualStock:      0,
			RowOriginalIndex: i + 1,
			OriginalData:     row,
			IsNew:            false,
		})
	}

	return products
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// parseLeadingInt reads an optional sign and leading digits, so cells like
// "5 buc" still yield 5. Anything unparsable counts as zero.
func parseLeadingInt(s string) int {
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

package inventory

import (
	"strings"

	"github.com/bookway/stocktake/internal/domain/models"
)

// defaultNewItemSuffix completes the description of a scanned item the
// operator did not describe.
const defaultNewItemSuffix = "Produs Nou"

// Confirm applies an operator-confirmed quantity to the working set and
// returns the next snapshot. The input slice is never modified.
//
// For a matched record the quantity is added to its actual stock. For a
// new-item placeholder the final description becomes "{code} - {description}"
// unless the operator already typed the code prefix themselves; with no
// description at all it becomes "{code} - Produs Nou". The placeholder is
// appended with its actual stock set to the confirmed quantity.
func Confirm(workingSet []models.ProductRecord, match MatchResult, qty int, description string) []models.ProductRecord {
	if match.Found {
		next := make([]models.ProductRecord, len(workingSet))
		copy(next, workingSet)
		for i := range next {
			if next[i].ID == match.Record.ID {
				next[i].ActualStock += qty
				break
			}
		}
		return next
	}

	entry := match.Record
	cleanCode := strings.TrimSpace(entry.Code)
	desc := strings.TrimSpace(description)

	switch {
	case desc == "":
		entry.Description = cleanCode + " - " + defaultNewItemSuffix
	case strings.HasPrefix(desc, cleanCode):
		entry.Description = desc
	default:
		entry.Description = cleanCode + " - " + desc
	}
	entry.ActualStock = qty

	next := make([]models.ProductRecord, len(workingSet), len(workingSet)+1)
	copy(next, workingSet)
	return append(next, entry)
}

// Adjust changes one record's actual stock by delta, clamped at zero. Records
// other than the target are carried over unchanged.
func Adjust(workingSet []models.ProductRecord, id string, delta int) []models.ProductRecord {
	next := make([]models.ProductRecord, len(workingSet))
	copy(next, workingSet)
	for i := range next {
		if next[i].ID != id {
			continue
		}
		next[i].ActualStock += delta
		if next[i].ActualStock < 0 {
			next[i].ActualStock = 0
		}
		break
	}
	return next
}

// Stats summarizes counting progress over the working set.
func Stats(workingSet []models.ProductRecord) models.InventoryStats {
	stats := models.InventoryStats{TotalItems: len(workingSet)}
	for _, p := range workingSet {
		stats.TotalActualStock += p.ActualStock
		if p.ActualStock > 0 {
			stats.ScannedItems++
			if p.ActualStock != p.ScripticStock {
				stats.Discrepancies++
			}
		}
		if p.IsNew {
			stats.NewItems++
		}
	}
	return stats
}

// Filter returns the records whose code or description contains the search
// term, case-insensitively. An empty term returns the working set itself.
func Filter(workingSet []models.ProductRecord, term string) []models.ProductRecord {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return workingSet
	}

	var out []models.ProductRecord
	for _, p := range workingSet {
		if strings.Contains(strings.ToLower(p.Code), term) ||
			strings.Contains(strings.ToLower(p.Description), term) {
			out = append(out, p)
		}
	}
	return out
}

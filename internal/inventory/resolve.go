package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/bookway/stocktake/internal/domain/models"
)

// MatchResult classifies a scanned code against the working set. Exactly one
// of Found/placeholder applies: when Found is false, Record holds a synthetic
// new-item record that has not been added to the working set yet.
type MatchResult struct {
	Found  bool
	Record models.ProductRecord
}

// Resolve matches a scanned code against the working set, case-insensitively,
// in three tiers:
//
//  1. exact code match
//  2. the same with the first character stripped, since scanners and labels
//     often prepend a single field-type letter ("P" for part number) that the
//     catalog code lacks
//  3. first record whose code contains the scanned token as a substring
//
// Ties within a tier go to the first record in working-set order. When no
// tier matches, a placeholder new-item record is synthesized from the raw
// scanned string. Resolve never mutates the working set; the mutation happens
// only after the operator confirms a quantity.
func Resolve(scanned string, workingSet []models.ProductRecord) MatchResult {
	token := strings.ToLower(strings.TrimSpace(scanned))

	for _, p := range workingSet {
		if strings.ToLower(p.Code) == token {
			return MatchResult{Found: true, Record: p}
		}
	}

	if len(token) > 2 {
		stripped := token[1:]
		for _, p := range workingSet {
			if strings.ToLower(p.Code) == stripped {
				return MatchResult{Found: true, Record: p}
			}
		}
	}

	for _, p := range workingSet {
		if strings.Contains(strings.ToLower(p.Code), token) {
			return MatchResult{Found: true, Record: p}
		}
	}

	raw := strings.TrimSpace(scanned)
	return MatchResult{Record: models.ProductRecord{
		ID:               fmt.Sprintf("NEW_%d_%s", time.Now().UnixMilli(), raw),
		Code:             raw,
		Description:      "",
		ScripticStock:    0,
		ActualStock:      0,
		RowOriginalIndex: models.NewItemRowIndex,
		OriginalData:     []string{},
		IsNew:            true,
	}}
}

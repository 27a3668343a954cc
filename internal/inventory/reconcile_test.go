package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookway/stocktake/internal/domain/models"
)

func TestConfirmFoundAddsQuantity(t *testing.T) {
	set := []models.ProductRecord{
		{ID: "CF280A_0", Code: "CF280A", ActualStock: 2},
		{ID: "CE505A_1", Code: "CE505A", ActualStock: 1},
	}

	next := Confirm(set, MatchResult{Found: true, Record: set[0]}, 3, "")

	require.Len(t, next, 2)
	assert.Equal(t, 5, next[0].ActualStock)
	assert.Equal(t, 1, next[1].ActualStock)
	// Input snapshot is untouched.
	assert.Equal(t, 2, set[0].ActualStock)
}

func TestConfirmNewItemDescriptions(t *testing.T) {
	placeholder := models.ProductRecord{
		ID:               "NEW_1_XYZ12345",
		Code:             "XYZ12345",
		RowOriginalIndex: models.NewItemRowIndex,
		IsNew:            true,
	}

	tests := []struct {
		name     string
		desc     string
		wantDesc string
	}{
		{name: "user description is prefixed with the code", desc: "Cable", wantDesc: "XYZ12345 - Cable"},
		{name: "empty description gets the default", desc: "", wantDesc: "XYZ12345 - Produs Nou"},
		{name: "no double prefix when user typed the code", desc: "XYZ12345 - Cable", wantDesc: "XYZ12345 - Cable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := Confirm(nil, MatchResult{Record: placeholder}, 2, tt.desc)

			require.Len(t, next, 1)
			assert.Equal(t, tt.wantDesc, next[0].Description)
			assert.Equal(t, 2, next[0].ActualStock)
			assert.True(t, next[0].IsNew)
		})
	}
}

func TestConfirmNewItemAppends(t *testing.T) {
	set := []models.ProductRecord{{ID: "CF280A_0", Code: "CF280A"}}
	res := Resolve("ZZZ999", set)
	require.False(t, res.Found)

	next := Confirm(set, res, 1, "")

	require.Len(t, next, 2)
	assert.Equal(t, "ZZZ999", next[1].Code)
	assert.Len(t, set, 1)
}

func TestAdjustClampsAtZero(t *testing.T) {
	set := []models.ProductRecord{{ID: "a", ActualStock: 3}, {ID: "b", ActualStock: 7}}

	next := Adjust(set, "a", -100)

	assert.Equal(t, 0, next[0].ActualStock)
	assert.Equal(t, 7, next[1].ActualStock)
	assert.Equal(t, 3, set[0].ActualStock)
}

func TestAdjustIncrement(t *testing.T) {
	set := []models.ProductRecord{{ID: "a", ActualStock: 3}}
	next := Adjust(set, "a", 1)
	assert.Equal(t, 4, next[0].ActualStock)
}

func TestAdjustUnknownIDLeavesSetUnchanged(t *testing.T) {
	set := []models.ProductRecord{{ID: "a", ActualStock: 3}}
	next := Adjust(set, "missing", 5)
	assert.Equal(t, set, next)
}

func TestStats(t *testing.T) {
	set := []models.ProductRecord{
		{ID: "a", ScripticStock: 5, ActualStock: 5},
		{ID: "b", ScripticStock: 5, ActualStock: 2},
		{ID: "c", ScripticStock: 5, ActualStock: 0},
		{ID: "d", ActualStock: 4, IsNew: true},
	}

	stats := Stats(set)

	assert.Equal(t, 4, stats.TotalItems)
	assert.Equal(t, 3, stats.ScannedItems)
	assert.Equal(t, 11, stats.TotalActualStock)
	assert.Equal(t, 2, stats.Discrepancies)
	assert.Equal(t, 1, stats.NewItems)
}

func TestFilter(t *testing.T) {
	set := []models.ProductRecord{
		{ID: "a", Code: "CF280A", Description: "Toner HP"},
		{ID: "b", Code: "MLT-D101S", Description: "Cartus Samsung"},
	}

	assert.Len(t, Filter(set, ""), 2)
	assert.Equal(t, []models.ProductRecord{set[0]}, Filter(set, "cf280"))
	assert.Equal(t, []models.ProductRecord{set[1]}, Filter(set, "samsung"))
	assert.Empty(t, Filter(set, "lexmark"))
}

package inventory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookway/stocktake/internal/domain/models"
)

func ws(codes ...string) []models.ProductRecord {
	set := make([]models.ProductRecord, len(codes))
	for i, c := range codes {
		set[i] = models.ProductRecord{ID: c + "_" + string(rune('a'+i)), Code: c}
	}
	return set
}

func TestResolveExactMatch(t *testing.T) {
	set := ws("CF280A", "F280A")

	res := Resolve("CF280A", set)
	require.True(t, res.Found)
	// Exact tier wins; never falls through to prefix-strip onto F280A.
	assert.Equal(t, "CF280A", res.Record.Code)
}

func TestResolveCaseInsensitive(t *testing.T) {
	res := Resolve("cf280a", ws("CF280A"))
	require.True(t, res.Found)
	assert.Equal(t, "CF280A", res.Record.Code)
}

func TestResolvePrefixStrip(t *testing.T) {
	res := Resolve("PCF280A", ws("CF280A"))
	require.True(t, res.Found)
	assert.Equal(t, "CF280A", res.Record.Code)
}

func TestResolvePrefixStripNeedsLengthOverTwo(t *testing.T) {
	// "ab" stripped would be "b"; the tier is skipped for tokens this short.
	res := Resolve("ab", ws("b1234"))
	assert.False(t, res.Found)
}

func TestResolveSubstring(t *testing.T) {
	res := Resolve("280A", ws("CF280A-XL"))
	require.True(t, res.Found)
	assert.Equal(t, "CF280A-XL", res.Record.Code)
}

func TestResolveFirstInOrderWins(t *testing.T) {
	set := ws("AA-280A-1", "BB-280A-2")
	res := Resolve("280A", set)
	require.True(t, res.Found)
	assert.Equal(t, set[0].ID, res.Record.ID)
}

func TestResolveUnknownCode(t *testing.T) {
	res := Resolve("ZZZ999", ws("CF280A", "MLT-D101S"))

	require.False(t, res.Found)
	p := res.Record
	assert.True(t, p.IsNew)
	assert.Equal(t, "ZZZ999", p.Code)
	assert.Zero(t, p.ActualStock)
	assert.Zero(t, p.ScripticStock)
	assert.Empty(t, p.Description)
	assert.Equal(t, models.NewItemRowIndex, p.RowOriginalIndex)
	assert.True(t, strings.HasPrefix(p.ID, "NEW_"))
	assert.True(t, strings.HasSuffix(p.ID, "_ZZZ999"))
}

func TestResolvePlaceholderKeepsRawCode(t *testing.T) {
	// The placeholder carries the scanned string as-is, not normalized.
	res := Resolve("zz", ws("CF280A"))
	require.False(t, res.Found)
	assert.Equal(t, "zz", res.Record.Code)
}

func TestResolveDoesNotMutateWorkingSet(t *testing.T) {
	set := ws("CF280A")
	before := set[0]
	Resolve("CF280A", set)
	Resolve("ZZZ999", set)
	assert.Equal(t, before, set[0])
	assert.Len(t, set, 1)
}

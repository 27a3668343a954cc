package models

// NewItemRowIndex is the sentinel RowOriginalIndex for records created during
// scanning, which have no position in the source spreadsheet.
const NewItemRowIndex = 999999

// ProductRecord is one entry of the working set for an active counting session.
// Catalog records carry the full original spreadsheet row so the export can
// reproduce every untouched column.
type ProductRecord struct {
	ID               string   `json:"id" bson:"id"`
	Code             string   `json:"code" bson:"code"`
	Description      string   `json:"description" bson:"description"`
	ScripticStock    int      `json:"scripticStock" bson:"scripticStock"`
	ActualStock      int      `json:"actualStock" bson:"actualStock"`
	RowOriginalIndex int      `json:"rowOriginalIndex" bson:"rowOriginalIndex"`
	OriginalData     []string `json:"originalData" bson:"originalData"`
	IsNew            bool     `json:"isNew" bson:"isNew"`
}

// ColumnMapping assigns spreadsheet columns to product fields. It is chosen
// once at import time and stays immutable for the session.
type ColumnMapping struct {
	CodeIndex  int `json:"codeIndex" bson:"codeIndex"`
	DescIndex  int `json:"descIndex" bson:"descIndex"`
	// StockIndex is -1 when the source has no scriptic stock column.
	StockIndex int `json:"stockIndex" bson:"stockIndex"`
}

// InventoryStats summarizes counting progress over a working set.
type InventoryStats struct {
	TotalItems       int `json:"totalItems"`
	ScannedItems     int `json:"scannedItems"`
	TotalActualStock int `json:"totalActualStock"`
	Discrepancies    int `json:"discrepancies"`
	NewItems         int `json:"newItems"`
}

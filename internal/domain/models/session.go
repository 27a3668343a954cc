package models

// SessionData is the unit of replication between devices. Every update
// replaces the whole Products slice; there is no per-record diffing.
type SessionData struct {
	SessionID       string          `json:"sessionId" bson:"sessionId"`
	FileName        string          `json:"fileName" bson:"fileName"`
	Products        []ProductRecord `json:"products" bson:"products"`
	OriginalHeaders []string        `json:"originalHeaders" bson:"originalHeaders"`
	ColumnMapping   ColumnMapping   `json:"columnMapping" bson:"columnMapping"`
	// CreatedAt and LastUpdated are unix milliseconds.
	CreatedAt   int64 `json:"createdAt" bson:"createdAt"`
	LastUpdated int64 `json:"lastUpdated" bson:"lastUpdated"`
}

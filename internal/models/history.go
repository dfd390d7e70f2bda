package models

// DefaultHistoryMaxEntries caps the lookup history.
const DefaultHistoryMaxEntries = 100

// HistoryEntry is one dictionary lookup.
type HistoryEntry struct {
	ID        string `json:"id"`
	Word      string `json:"word"`
	Timestamp int64  `json:"timestamp"`
	Provider  Source `json:"provider"`
}

// HistoryState is the persisted lookup history, newest entry first.
type HistoryState struct {
	Entries    []HistoryEntry `json:"entries"`
	MaxEntries int            `json:"maxEntries"`
}

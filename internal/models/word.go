// Package models contains the domain types persisted by the engz stores and
// exchanged between services.
package models

import "strings"

// Source names the dictionary a word was looked up in.
type Source string

const (
	SourceGoogle    Source = "google"
	SourceBing      Source = "bing"
	SourceCambridge Source = "cambridge"
)

// Valid reports whether s is a known dictionary.
func (s Source) Valid() bool {
	switch s {
	case SourceGoogle, SourceBing, SourceCambridge:
		return true
	}
	return false
}

// Status is the learning status of a notebook word. Values match the wire
// format of the remote API.
type Status string

const (
	StatusNew      Status = "new"
	StatusLearning Status = "learning"
	StatusMastered Status = "mastered"
)

// ParseStatus accepts the status case-insensitively.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusNew, StatusLearning, StatusMastered:
		return st, true
	}
	return "", false
}

// SyncStatus tracks whether a local word still has to be pushed.
type SyncStatus string

const (
	SyncStatusSynced        SyncStatus = "synced"
	SyncStatusPendingCreate SyncStatus = "pending_create"
	SyncStatusPendingUpdate SyncStatus = "pending_update"
	SyncStatusPendingDelete SyncStatus = "pending_delete"
)

// Word is one notebook entry. Times are epoch milliseconds.
type Word struct {
	ID            string     `json:"id"`
	ServerID      string     `json:"serverId,omitempty"`
	Word          string     `json:"word"`
	Translation   string     `json:"translation,omitempty"`
	Pronunciation string     `json:"pronunciation,omitempty"`
	Definition    string     `json:"definition,omitempty"`
	Examples      []string   `json:"examples,omitempty"`
	Source        Source     `json:"source"`
	Status        Status     `json:"status"`
	SavedAt       int64      `json:"savedAt"`
	UpdatedAt     int64      `json:"updatedAt"`
	DeletedAt     *int64     `json:"deletedAt,omitempty"`
	SyncStatus    SyncStatus `json:"syncStatus"`
}

// IsDeleted reports whether the word carries a tombstone.
func (w Word) IsDeleted() bool {
	return w.DeletedAt != nil
}

// IsPending reports whether the word has unpushed local changes.
func (w Word) IsPending() bool {
	return w.SyncStatus != SyncStatusSynced
}

// WordPayload is the user input for a new notebook word.
type WordPayload struct {
	Word          string
	Translation   string
	Pronunciation string
	Definition    string
	Examples      []string
	Source        Source
}

// WordEdit is a partial update of the user-editable fields. Nil fields are
// left untouched.
type WordEdit struct {
	Translation   *string
	Pronunciation *string
	Definition    *string
	Examples      []string
}

// NotebookState is the single persisted notebook value.
type NotebookState struct {
	Words []Word `json:"words"`
}

// SyncStats summarizes one sync run.
type SyncStats struct {
	Pushed  int `json:"pushed"`
	Pulled  int `json:"pulled"`
	Deleted int `json:"deleted"`
	Errors  int `json:"errors"`
}

package domain

import "github.com/google/uuid"

// CycleID identifies one voting cycle, minted when a generation run
// completes. Zero value means "no cycle yet".
type CycleID = uuid.UUID

// NewCycleID mints a fresh cycle identifier.
func NewCycleID() CycleID {
	return uuid.New()
}

// Batch is the current votable view: the most recent items of the store at
// the last cycle boundary, ordered oldest to newest.
type Batch struct {
	Cycle CycleID
	Items []NewsItem
}

// Contains reports whether the given item id is votable in this batch.
func (b Batch) Contains(id int64) bool {
	for _, item := range b.Items {
		if item.ID == id {
			return true
		}
	}
	return false
}

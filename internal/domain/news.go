package domain

import "time"

// Category enumerates the news sections one generation run covers.
type Category string

const (
	CategoryPolitics Category = "politics"
	CategoryEconomy  Category = "economy"
	CategoryScience  Category = "science"
	CategorySport    Category = "sport"
)

// Categories returns the sections of a full generation run, in run order.
func Categories() []Category {
	return []Category{CategoryPolitics, CategoryEconomy, CategoryScience, CategorySport}
}

// Valid reports whether the category is one of the known sections.
func (c Category) Valid() bool {
	switch c {
	case CategoryPolitics, CategoryEconomy, CategoryScience, CategorySport:
		return true
	}
	return false
}

// NewsItem is a published news entry. ID is assigned by the store at
// insertion and is monotonically increasing; Score is mutated only through
// vote aggregation. An empty ImageURL marks the item incomplete.
type NewsItem struct {
	ID       int64
	Title    string
	Body     string
	Category Category
	ImageURL string
	Score    int
	Date     time.Time
}

// Complete reports whether the item carries a durable image and may be
// exposed through voting and archive reads.
func (n NewsItem) Complete() bool {
	return n.ImageURL != ""
}

// Vote is a single score delta against one item.
type Vote struct {
	ItemID int64
	Delta  int
}

// VoteBatch is one user's set of votes for one cycle, tagged with the cycle
// the voter saw. Batches carrying an older cycle id are rejected as stale.
type VoteBatch struct {
	Cycle CycleID
	Votes []Vote
}

// ItemIDs returns the distinct target ids of the batch.
func (b VoteBatch) ItemIDs() []int64 {
	seen := make(map[int64]bool, len(b.Votes))
	ids := make([]int64, 0, len(b.Votes))
	for _, v := range b.Votes {
		if !seen[v.ItemID] {
			seen[v.ItemID] = true
			ids = append(ids, v.ItemID)
		}
	}
	return ids
}

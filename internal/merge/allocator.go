package merge

import "github.com/lepinkainen/catalogue/internal/record"

// NextID returns 1 for an empty collection, otherwise the highest id plus one.
// Ids that are absent or not numeric count as 0.
func NextID(collection []record.Record) int64 {
	var highest int64
	for _, r := range collection {
		if id := r.ID.Int(); id > highest {
			highest = id
		}
	}
	return highest + 1
}

package sources

import (
	"strings"

	"github.com/lepinkainen/catalogue/internal/record"
)

// DedupeBySourceID drops records whose source_id was already seen, keeping the
// first occurrence. Records without a source_id are kept.
func DedupeBySourceID(records []record.Record) []record.Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]record.Record, 0, len(records))
	for _, r := range records {
		id := strings.TrimSpace(record.Value(r.SourceID))
		if id != "" {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
		}
		out = append(out, r)
	}
	return out
}

// Limit truncates records to max entries. max <= 0 means no limit.
func Limit(records []record.Record, max int) []record.Record {
	if max > 0 && len(records) > max {
		return records[:max]
	}
	return records
}

// PageSize returns how many items to request next, given how many are still
// wanted and the API's per-page ceiling.
func PageSize(remaining, ceiling int) int {
	if remaining < ceiling {
		return remaining
	}
	return ceiling
}

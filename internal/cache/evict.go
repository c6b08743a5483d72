package cache

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/jbisetto/songvocab/internal/store"
)

// EvictStats reports what one eviction pass did.
type EvictStats struct {
	InitialCount  int   `json:"initial_count"`
	DeletedOld    int   `json:"deleted_old"`
	DeletedExcess int   `json:"deleted_excess"`
	FinalCount    int   `json:"final_count"`
	TotalBytes    int64 `json:"total_size_bytes"`
}

// String renders the stats for logs and CLI output.
func (s EvictStats) String() string {
	return fmt.Sprintf("%d -> %d entries (%d expired, %d over limit), %s stored",
		s.InitialCount, s.FinalCount, s.DeletedOld, s.DeletedExcess,
		humanize.Bytes(uint64(s.TotalBytes)))
}

// Evict bounds a store in two deterministic phases: first every entry
// created more than maxAgeDays ago is removed, then, if more than
// maxEntries remain, the least recently accessed entries are removed
// until exactly maxEntries are left. Running against an empty store is
// a no-op with zeroed stats.
func Evict(st store.Store, maxEntries, maxAgeDays int) (EvictStats, error) {
	var stats EvictStats

	initial, err := st.Count()
	if err != nil {
		return stats, err
	}
	stats.InitialCount = initial

	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)
	deletedOld, err := st.DeleteOlderThan(cutoff)
	if err != nil {
		return stats, err
	}
	stats.DeletedOld = deletedOld

	deletedExcess, err := st.DeleteExcess(maxEntries)
	if err != nil {
		return stats, err
	}
	stats.DeletedExcess = deletedExcess

	final, err := st.Count()
	if err != nil {
		return stats, err
	}
	stats.FinalCount = final

	total, err := st.TotalBytes()
	if err != nil {
		return stats, err
	}
	stats.TotalBytes = total

	if stats.DeletedOld > 0 || stats.DeletedExcess > 0 {
		log.Info("cache eviction", "stats", stats.String())
	}
	return stats, nil
}

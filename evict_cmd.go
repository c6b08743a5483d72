package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jbisetto/songvocab/internal/cache"
)

var (
	maxEntries int
	maxAgeDays int
)

var evictCmd = &cobra.Command{
	Use:       "evict [lyrics|vocab|all]",
	Short:     "Bound the caches by age and entry count",
	Long:      paragraph("\nDelete cache entries older than --max-age-days, then trim the least recently used entries until at most --max-entries remain. Meant to be run from cron or a scheduler; it is safe to run alongside normal fetches."),
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"lyrics", "vocab", "all"},
	RunE: func(cmd *cobra.Command, args []string) error {
		caches, err := openCaches()
		if err != nil {
			return err
		}
		defer caches.Close() //nolint:errcheck

		if !cmd.Flags().Changed("max-entries") {
			maxEntries = viper.GetInt("cache.max_entries")
		}
		if !cmd.Flags().Changed("max-age-days") {
			maxAgeDays = viper.GetInt("cache.max_age_days")
		}

		which := "all"
		if len(args) == 1 {
			which = args[0]
		}

		results := map[string]cache.EvictStats{}
		if which == "lyrics" || which == "all" {
			stats, err := caches.Lyrics.Evict(maxEntries, maxAgeDays)
			if err != nil {
				return fmt.Errorf("lyrics eviction failed: %w", err)
			}
			results["lyrics"] = stats
		}
		if which == "vocab" || which == "all" {
			stats, err := caches.Vocab.Evict(maxEntries, maxAgeDays)
			if err != nil {
				return fmt.Errorf("vocab eviction failed: %w", err)
			}
			results["vocab"] = stats
		}
		if len(results) == 0 {
			return fmt.Errorf("unknown cache %q: use lyrics, vocab or all", which)
		}

		if asJSON {
			return json.NewEncoder(os.Stdout).Encode(results)
		}
		for name, stats := range results {
			fmt.Printf("%s: %s\n", name, stats)
		}
		return nil
	},
}

func init() {
	evictCmd.Flags().IntVar(&maxEntries, "max-entries", 1000, "maximum entries to keep per cache")
	evictCmd.Flags().IntVar(&maxAgeDays, "max-age-days", 90, "maximum entry age in days")
	evictCmd.Flags().BoolVar(&asJSON, "json", false, "print eviction stats as JSON")
}

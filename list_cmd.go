package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jbisetto/songvocab/internal/cache"
)

var listCmd = &cobra.Command{
	Use:       "list [lyrics|vocab]",
	Short:     "List cached songs, most recently used first",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"lyrics", "vocab"},
	RunE: func(cmd *cobra.Command, args []string) error {
		caches, err := openCaches()
		if err != nil {
			return err
		}
		defer caches.Close() //nolint:errcheck

		which := "lyrics"
		if len(args) == 1 {
			which = args[0]
		}

		var listing *cache.Listing
		switch which {
		case "lyrics":
			listing, err = caches.Lyrics.List()
		case "vocab":
			listing, err = caches.Vocab.List()
		default:
			return fmt.Errorf("unknown cache %q: use lyrics or vocab", which)
		}
		if err != nil {
			return err
		}

		if asJSON {
			return json.NewEncoder(os.Stdout).Encode(listing)
		}

		if listing.Count == 0 {
			fmt.Printf("No cached %s yet.\n", which)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SONG\tARTIST\tCACHED\tLAST ACCESSED")
		for _, e := range listing.Entries {
			song := e.Song
			if e.Degraded {
				song += " (?)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				song, e.Artist,
				e.CachedAt.Format("2006-01-02 15:04"),
				e.LastAccessed.Format("2006-01-02 15:04"))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d entries\n", listing.Count)
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&asJSON, "json", false, "print the listing as JSON")
}

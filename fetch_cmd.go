package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jbisetto/songvocab/internal/cache"
)

var fetchCmd = &cobra.Command{
	Use:     "fetch SONG",
	Short:   "Fetch lyrics for a song, from cache when possible",
	Example: paragraph("songvocab fetch Lemon --artist \"Kenshi Yonezu\"\nsongvocab fetch Flamingo -a \"Kenshi Yonezu\" --json"),
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		caches, err := openCaches()
		if err != nil {
			return err
		}
		defer caches.Close() //nolint:errcheck

		res, err := caches.Lyrics.Fetch(cmd.Context(), args[0], artist, useMock)
		if err != nil {
			return err
		}
		return printResult(res)
	},
}

// printResult renders a fetch result for humans or machines.
func printResult(res *cache.Result) error {
	if asJSON {
		return json.NewEncoder(os.Stdout).Encode(res)
	}

	if !res.Success {
		return errors.New(res.Error)
	}

	if res.Lyrics != "" {
		fmt.Println(res.Lyrics)
	}
	if len(res.Vocabulary) > 0 {
		var pretty json.RawMessage = res.Vocabulary
		out, err := json.MarshalIndent(pretty, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	}

	if info := res.CacheInfo; info != nil {
		if info.FromCache {
			fmt.Fprintf(os.Stderr, "\n%s cached %s\n", keyword("from cache,"), info.CachedAt.Format("2006-01-02 15:04"))
		} else if info.Compression != nil {
			fmt.Fprintf(os.Stderr, "\n%s %s\n", keyword("fetched,"), info.Compression)
		}
	}
	return nil
}

func init() {
	fetchCmd.Flags().StringVarP(&artist, "artist", "a", "", "artist name, to narrow the search")
	fetchCmd.Flags().BoolVar(&useMock, "mock", false, "use deterministic mock lyrics instead of the search provider")
	fetchCmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
}

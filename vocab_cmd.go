package main

import (
	"github.com/spf13/cobra"
)

var extractVocab bool

var vocabCmd = &cobra.Command{
	Use:     "vocab SONG",
	Short:   "Show cached vocabulary for a song",
	Long:    paragraph("\nShow the vocabulary record cached for a song. By default this only probes the cache; with --extract a miss derives a fresh record from the lyrics via the configured model."),
	Example: paragraph("songvocab vocab Lemon --artist \"Kenshi Yonezu\"\nsongvocab vocab Lemon -a \"Kenshi Yonezu\" --extract"),
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		caches, err := openCaches()
		if err != nil {
			return err
		}
		defer caches.Close() //nolint:errcheck

		if extractVocab {
			res, err := caches.Vocab.Generate(cmd.Context(), args[0], artist, useMock)
			if err != nil {
				return err
			}
			return printResult(res)
		}

		res, err := caches.Vocab.Fetch(cmd.Context(), args[0], artist)
		if err != nil {
			return err
		}
		return printResult(res)
	},
}

func init() {
	vocabCmd.Flags().StringVarP(&artist, "artist", "a", "", "artist name, to narrow the search")
	vocabCmd.Flags().BoolVar(&extractVocab, "extract", false, "derive vocabulary on a cache miss")
	vocabCmd.Flags().BoolVar(&useMock, "mock", false, "use mock lyrics when deriving instead of the search provider")
	vocabCmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
}

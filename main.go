// Package main provides the entry point for the songvocab CLI.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	homedir "github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jbisetto/songvocab/internal/cache"
	"github.com/jbisetto/songvocab/internal/provider"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	artist     string
	useMock    bool
	asJSON     bool

	rootCmd = &cobra.Command{
		Use:   "songvocab",
		Short: "Fetch song lyrics and vocabulary, with a compressing cache",
		Long: paragraph(fmt.Sprintf(
			"\nFetch %s and the vocabulary derived from them. Results are compressed and cached locally, so repeated requests never hit the network twice.",
			keyword("song lyrics"))),
		SilenceErrors: false,
		SilenceUsage:  true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if viper.GetBool("debug") {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
)

// expandPath expands ~ and environment variables in a config path.
func expandPath(path string) string {
	if expanded, err := homedir.Expand(path); err == nil {
		path = expanded
	}
	return os.ExpandEnv(path)
}

// cacheConfig resolves the cache configuration from defaults, config
// file and environment, in that order of precedence.
func cacheConfig() (cache.Config, error) {
	cfg, err := cache.DefaultConfig()
	if err != nil {
		return cache.Config{}, err
	}
	if path := viper.GetString("cache.lyrics_db"); path != "" {
		cfg.LyricsDB = expandPath(path)
	}
	if dir := viper.GetString("cache.vocab_dir"); dir != "" {
		cfg.VocabDir = expandPath(dir)
	}
	if level := viper.GetInt("cache.compression_level"); level != 0 {
		cfg.CompressionLevel = level
	}
	return cfg, nil
}

// openCaches builds both caches with the configured collaborators.
func openCaches() (*cache.Caches, error) {
	cfg, err := cacheConfig()
	if err != nil {
		return nil, err
	}

	lyricsProvider := provider.NewDuckDuckGo(http.DefaultClient)
	extractor := provider.NewOllama(http.DefaultClient,
		viper.GetString("provider.ollama_host"),
		viper.GetString("provider.model"))

	return cache.Open(cfg, lyricsProvider, extractor)
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	viper.SetDefault("cache.lyrics_db", "")
	viper.SetDefault("cache.vocab_dir", "")
	viper.SetDefault("cache.compression_level", 3)
	viper.SetDefault("cache.max_entries", 1000)
	viper.SetDefault("cache.max_age_days", 90)
	viper.SetDefault("provider.ollama_host", "http://localhost:11434")
	viper.SetDefault("provider.model", "mistral:7b")

	rootCmd.AddCommand(fetchCmd, vocabCmd, listCmd, evictCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "songvocab")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "songvocab")}, dirs...)
	}

	if c := os.Getenv("SONGVOCAB_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("songvocab")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("songvocab")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "songvocab.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}

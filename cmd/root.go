package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/apex/log"
	clihandler "github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"

	"github.com/datasightlabs/datasight-cli/internal/api"
	cfgpkg "github.com/datasightlabs/datasight-cli/internal/config"
	"github.com/datasightlabs/datasight-cli/internal/session"
)

var (
	// Global flags (wired later to config/viper)
	cfgFile    string
	debug      bool
	flagServer string
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "datasight",
	Short: "Datasight CLI: upload CSV datasets and get ML insights",
	Long:  `Datasight is the terminal client for the Smart Data Analyzer service: upload tabular datasets, request machine-learning predictions over them, and browse the result reports stored for your account.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.datasight/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "analyzer server base URL (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts for reads on 5xx (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig() {
	log.SetHandler(clihandler.New(os.Stderr))
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("server") && flagServer != "" {
		cfg.ServerURL = flagServer
	}
	if f.Changed("debug") {
		cfg.Debug = debug
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
}

// newClient builds the backend client from the effective config.
func newClient() *api.Client {
	c := cfg
	if c == nil {
		c = &cfgpkg.Global{ServerURL: "http://localhost:8000/api"}
	}
	return api.New(
		c.ServerURL,
		time.Duration(c.HTTPTimeoutSec)*time.Second,
		c.RetryMaxAttempts,
		time.Duration(c.RetryBaseDelayMs)*time.Millisecond,
		time.Duration(c.RetryMaxDelayMs)*time.Millisecond,
	)
}

func sessionStore() (*session.Store, error) {
	dir, err := cfgpkg.Dir()
	if err != nil {
		return nil, err
	}
	return session.NewStore(dir), nil
}

// restoreSession loads the persisted session, valid or zero. No round trip
// is made to validate a restored token; a stale one fails lazily on the
// first protected call.
func restoreSession() (session.Session, error) {
	st, err := sessionStore()
	if err != nil {
		return session.Session{}, err
	}
	return st.Restore()
}

// requireSession is restoreSession for protected commands: absence is an
// error before any network call.
func requireSession() (session.Session, error) {
	s, err := restoreSession()
	if err != nil {
		return session.Session{}, err
	}
	if !s.Valid() {
		return session.Session{}, session.ErrNotLoggedIn
	}
	return s, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/wordgain"
	"github.com/hupe1980/wordgain/config"
)

// app is the state shared by every command of one invocation.
type app struct {
	configPath string

	cfg     config.Config
	logger  *wordgain.Logger
	metrics *promMetrics
	server  *http.Server
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "wordgain",
		Short: "Measure how much Wordle guesses narrow the field",
		Long: `wordgain precomputes, for every (guess, answer) pair of a dictionary,
the words still possible after the feedback of the guess. The matrix is built
in resumable batches into a local directory, SQLite, S3 or MinIO.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (text, json)")
	pf.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :2112")
	pf.String("dictionary", "", "word list file (.txt or .json); empty uses the built-in sample")
	pf.Int("word-length", 0, "length of every dictionary word")
	pf.String("store", "", "store kind (local, memory, sqlite, s3, minio)")
	pf.String("dir", "", "directory of a local store")
	pf.String("db", "", "database file of a sqlite store")
	pf.String("bucket", "", "bucket of an s3 or minio store")
	pf.String("prefix", "", "key prefix of an s3 or minio store")

	root.AddCommand(
		newBuildCmd(a),
		newQueryCmd(a),
		newEncodeCmd(a),
		newScoreCmd(a),
		newStatusCmd(a),
		newConfigCmd(a),
	)
	return root
}

// setup loads the configuration, applies flag overrides and starts the
// metrics endpoint.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := applyFlags(cmd, &cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	a.logger = logger

	a.metrics = newPromMetrics()
	if cfg.Metrics.Addr != "" {
		a.server = a.metrics.serve(cfg.Metrics.Addr, logger)
	}
	return nil
}

func (a *app) teardown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("stop metrics server: %w", err)
	}
	return nil
}

func newLogger(cfg config.Log) (*wordgain.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("%w: log level %q", config.ErrInvalid, cfg.Level)
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return wordgain.NewLogger(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return wordgain.NewLogger(slog.NewTextHandler(os.Stderr, opts)), nil
}

// applyFlags copies every flag the user set onto cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	fl := cmd.Flags()

	strs := map[string]*string{
		"log-level":    &cfg.Log.Level,
		"log-format":   &cfg.Log.Format,
		"metrics-addr": &cfg.Metrics.Addr,
		"dictionary":   &cfg.Dictionary,
		"store":        &cfg.Store.Kind,
		"dir":          &cfg.Store.Dir,
		"db":           &cfg.Store.Path,
		"bucket":       &cfg.Store.Bucket,
		"prefix":       &cfg.Store.Prefix,
		"strategy":     &cfg.Strategy,
		"compression":  &cfg.Compression,
	}
	for name, dst := range strs {
		if !fl.Changed(name) {
			continue
		}
		v, err := fl.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	ints := map[string]*int{
		"word-length":   &cfg.WordLength,
		"batch-size":    &cfg.BatchSize,
		"workers":       &cfg.Workers,
		"max-in-flight": &cfg.MaxInFlight,
		"retries":       &cfg.Retry.Max,
	}
	for name, dst := range ints {
		if !fl.Changed(name) {
			continue
		}
		v, err := fl.GetInt(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if fl.Changed("memory-limit") {
		v, err := fl.GetInt64("memory-limit")
		if err != nil {
			return err
		}
		cfg.MemoryLimit = v
	}
	if fl.Changed("resume") {
		v, err := fl.GetBool("resume")
		if err != nil {
			return err
		}
		cfg.Resume = v
	}
	return nil
}

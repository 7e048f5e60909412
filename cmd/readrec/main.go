package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/readrec/pkg/config"
	"github.com/umputun/readrec/pkg/importer"
	"github.com/umputun/readrec/pkg/recommend"
	"github.com/umputun/readrec/pkg/repository"
	"github.com/umputun/readrec/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" description:"configuration file, defaults are used if not set"`

	Server ServerCmd `command:"server" description:"run the article service (default)"`
	Import ImportCmd `command:"import" description:"import configured feeds once"`
	Browse BrowseCmd `command:"browse" description:"browse articles and recommendations in the terminal"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

// ServerCmd runs the HTTP API
type ServerCmd struct {
	Listen string `short:"l" long:"listen" env:"LISTEN" description:"listen address, overrides config"`
}

// ImportCmd runs a single catalog import
type ImportCmd struct{}

// BrowseCmd drives the client core against a running service
type BrowseCmd struct {
	API        string         `long:"api" env:"API_URL" description:"article service url, overrides config"`
	User       string         `long:"user" env:"READREC_USER" description:"user id, anonymous if not set"`
	Email      string         `long:"email" env:"READREC_EMAIL" description:"user email"`
	Categories []string       `long:"category" description:"category to show, repeat to switch categories in order"`
	Rate       map[string]int `long:"rate" key-value-delimiter:"=" description:"rate an article, id=1..5"`

	PrefCategory string `long:"pref-category" description:"set preferred category"`
	PrefTone     string `long:"pref-tone" description:"set preferred tone"`
	PrefLength   string `long:"pref-length" description:"set preferred length"`
	PrefTrending string `long:"pref-trending" choice:"yes" choice:"no" description:"prefer trending articles"`
	Username     string `long:"username" description:"username stored with preferences"`
}

const (
	cmdServer = "server"
	cmdImport = "import"
	cmdBrowse = "browse"
)

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	parser.SubcommandsOptional = true
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	if opts.NoColor {
		color.NoColor = true
	}
	setupLog(opts.Debug)

	cmd := cmdServer
	if parser.Active != nil {
		cmd = parser.Active.Name
	}

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, cmd, opts)
	cancel()

	if err != nil {
		log.Printf("[ERROR] %s failed: %v", cmd, err)
		if cmd == cmdBrowse {
			fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		}
		os.Exit(1)
	}
}

// run loads configuration and executes the command
func run(ctx context.Context, cmd string, opts Opts) error {
	cfg := config.Default()
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if cfg.LLM.APIKey != "" {
		setupLog(opts.Debug, cfg.LLM.APIKey)
	}

	switch cmd {
	case cmdServer:
		if opts.Server.Listen != "" {
			cfg.Server.Listen = opts.Server.Listen
		}
		return runServer(ctx, cfg, opts.Debug)
	case cmdImport:
		return runImport(ctx, cfg)
	case cmdBrowse:
		return runBrowse(ctx, cfg, opts.Browse, os.Stdout)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// runServer opens the database, starts periodic import if configured and serves the API
func runServer(ctx context.Context, cfg *config.Config, debug bool) error {
	log.Printf("[INFO] starting readrec version %s", revision)

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.Close()

	if len(cfg.Import.Feeds) > 0 && cfg.Import.Interval > 0 {
		im := newImporter(cfg, repos.Article)
		im.Start(ctx, cfg.Import.Interval)
		defer im.Stop()
	}

	var ranker recommend.Ranker
	if cfg.LLM.Enabled {
		log.Printf("[INFO] llm ranking enabled, model %s", cfg.LLM.Model)
		ranker = recommend.NewLLMRanker(cfg.LLM)
	}

	srv := server.New(server.Params{
		Config:      cfg,
		Articles:    repos.Article,
		Users:       repos.User,
		Ratings:     repos.Rating,
		Recommender: recommend.NewEngine(ranker),
		Version:     revision,
		Debug:       debug,
	})
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	log.Print("[INFO] shutdown complete")
	return nil
}

// runImport imports all configured feeds once
func runImport(ctx context.Context, cfg *config.Config) error {
	if len(cfg.Import.Feeds) == 0 {
		return errors.New("no feeds configured")
	}
	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.Close()

	stats, err := newImporter(cfg, repos.Article).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d articles from %d feeds, %d failed\n", stats.Articles, stats.Feeds, stats.Failed)
	return nil
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repository.Repositories, error) {
	repos, err := repository.NewRepositories(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return repos, nil
}

func newImporter(cfg *config.Config, store importer.ArticleStore) *importer.Importer {
	var extractor importer.Extractor
	if cfg.Import.ExtractContent {
		extractor = importer.NewHTTPExtractor(cfg.Import.Timeout, cfg.Import.UserAgent)
	}
	return importer.New(importer.Params{
		Store:      store,
		Parser:     importer.NewParser(cfg.Import.Timeout, cfg.Import.UserAgent),
		Extractor:  extractor,
		Feeds:      cfg.Import.Feeds,
		MaxWorkers: cfg.Import.MaxWorkers,
	})
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Out(io.Discard), lgr.Err(io.Discard)}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}

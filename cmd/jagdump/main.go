// Command jagdump exports the contents of a cache store as JSON, JPEG and WAV
// files.
//
// Usage:
//
//	jagdump [flags] [cache-dir]
//	jagdump schema [flags]
//
// Without a cache directory the default client install location,
// $HOME/jagexcache/oldschool/LIVE, is read and output goes to
// $HOME/jagexcache/dump. With one, output goes to its dump subdirectory.
// The schema subcommand writes a JSON schema for every exported record type
// instead.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := mainImpl(os.Args[1:]); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "jagdump: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl(args []string) error {
	fs := flag.NewFlagSet("jagdump", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML file with dump settings and XTEA keys")
	outDir := fs.String("out", "", "Output directory (default: dump under the cache directory)")
	dumps := fs.String("dumps", "", "Comma-separated dumps to run (default: all of "+strings.Join(dumpNames(), ",")+")")
	workers := fs.Int("workers", runtime.NumCPU(), "Maximum concurrent file writes")
	noWAV := fs.Bool("no-wav", false, "Skip rendering sound effects to WAV")
	logLevel := fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	var prof profileFlags
	prof.register(fs)

	schema := len(args) > 0 && args[0] == "schema"
	if schema {
		args = args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("unknown arguments: %v", fs.Args()[1:])
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	ll := &slog.LevelVar{}
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)

	cfg := defaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = loadConfig(*configPath); err != nil {
			return err
		}
	}

	// Flags given explicitly win over the config file.
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	if fs.NArg() == 1 {
		cfg.Cache = fs.Arg(0)
	}
	if set["out"] {
		cfg.Out = *outDir
	}
	if set["dumps"] {
		cfg.Dumps = splitList(*dumps)
	}
	if set["workers"] || cfg.Workers <= 0 {
		cfg.Workers = *workers
	}
	if set["no-wav"] {
		cfg.WAV = !*noWAV
	}
	if set["log-level"] || cfg.LogLevel == "" {
		cfg.LogLevel = *logLevel
	}

	switch cfg.LogLevel {
	case "debug":
		ll.Set(slog.LevelDebug)
	case "info":
		ll.Set(slog.LevelInfo)
	case "warn":
		ll.Set(slog.LevelWarn)
	case "error":
		ll.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %q", cfg.LogLevel)
	}

	if err := cfg.resolve(); err != nil {
		return err
	}

	stopProfile, err := prof.start()
	if err != nil {
		return err
	}
	defer stopProfile()

	if schema {
		return writeSchemas(cfg.Out, logger)
	}

	start := time.Now()
	logger.InfoContext(ctx, "dumping cache", "cache", cfg.Cache, "out", cfg.Out)
	stats, err := run(ctx, cfg, logger)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "done",
		"files", stats.files.Load(),
		"size", humanBytes(stats.bytes.Load()),
		"failed", stats.failed.Load(),
		"elapsed", elapsed(time.Since(start)))
	return nil
}

// defaultCacheDir returns the store location the client installs to.
func defaultCacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, "jagexcache", "oldschool", "LIVE"), nil
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

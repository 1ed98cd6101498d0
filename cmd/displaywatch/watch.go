package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/1broseidon/displaywatch"
	"github.com/1broseidon/displaywatch/internal/config"
	"github.com/1broseidon/displaywatch/internal/ipc"
)

// watchFlags are command-line overrides that win over the config file,
// including across reloads.
type watchFlags struct {
	format   string
	mode     string
	interval time.Duration
	logLevel string
	color    string
}

func (f watchFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("format") {
		cfg.Format = config.Format(f.format)
	}
	if fs.Changed("mode") {
		cfg.Mode = config.Mode(f.mode)
	}
	if fs.Changed("interval") {
		cfg.PollInterval = config.Duration(f.interval)
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if fs.Changed("color") {
		cfg.Color = config.ColorMode(f.color)
	}
}

func runWatch(args []string) int {
	fs := newFlagSet("watch", "Usage: displaywatch watch [options]\n\nPrint display changes until interrupted.")
	var flags watchFlags
	configPath := fs.String("config", "", "Config file path (default: ~/.config/displaywatch/config.yaml)")
	fs.StringVar(&flags.format, "format", "", "Output format: text, json or cbor")
	fs.StringVar(&flags.mode, "mode", "", "Change detection: randr or poll")
	fs.DurationVar(&flags.interval, "interval", 0, "Poll interval in poll mode")
	fs.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	fs.StringVar(&flags.color, "color", "", "Colored text output: auto, always or never")
	noIPC := fs.Bool("no-ipc", false, "Do not serve status over the IPC socket")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "watch takes no arguments")
		fs.Usage()
		return 2
	}

	path := *configPath
	if path == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		path = p
	}

	res, err := config.LoadFromPath(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	cfg := res.Config
	flags.apply(fs, cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	level := new(slog.LevelVar)
	level.Set(cfg.SlogLevel())
	logger := newLogger(os.Stderr, level)

	p, err := newPrinter(os.Stdout, cfg.Format, useColor(cfg.Color, os.Stdout))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	out := &swappablePrinter{p: p}

	opts := displaywatch.Options{
		Display: cfg.Display,
		Logger:  logger,
	}
	if cfg.Mode == config.ModePoll {
		opts.PollInterval = cfg.Interval()
	}
	obs, err := displaywatch.New(opts)
	if err != nil {
		logger.Error("failed to start display observer", "error", err)
		return 1
	}
	logger.Info("watching displays", "mode", cfg.Mode, "displays", obs.Snapshot().Len())

	obs.SetChangeCallback(func(ch displaywatch.Change) {
		if err := out.Change(ch, time.Now()); err != nil {
			logger.Warn("failed to write change", "error", err)
		}
	})

	if !*noIPC {
		srv, err := ipc.NewServer(ipc.ServerConfig{
			Source: obs,
			Mode:   string(cfg.Mode),
			Logger: logger,
		})
		if err == nil {
			err = srv.Start()
		}
		if err != nil {
			logger.Warn("IPC disabled", "error", err)
		} else {
			defer srv.Stop()
		}
	}

	reload := func(res *config.LoadResult) {
		next := res.Config
		flags.apply(fs, next)
		if err := next.Validate(); err != nil {
			logger.Warn("ignoring reloaded config", "error", err)
			return
		}
		level.Set(next.SlogLevel())
		if p, err := newPrinter(os.Stdout, next.Format, useColor(next.Color, os.Stdout)); err == nil {
			out.set(p)
		}
		if next.Mode != cfg.Mode || next.Interval() != cfg.Interval() || next.Display != cfg.Display {
			logger.Warn("mode, poll_interval and display changes take effect after restart")
		}
	}

	watcher, err := config.Watch(config.WatcherConfig{
		Path:     path,
		Logger:   logger,
		OnChange: reload,
	})
	if err != nil {
		logger.Warn("config hot reload disabled", "error", err)
	} else {
		defer watcher.Close()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	go func() {
		for sig := range sigCh {
			if sig == syscall.SIGHUP {
				res, err := config.LoadFromPath(path)
				if err != nil {
					logger.Warn("reload failed", "error", err)
					continue
				}
				logger.Info("config reloaded", "path", path)
				reload(res)
				continue
			}
			logger.Info("shutting down", "signal", sig.String())
			obs.Close()
			return
		}
	}()

	if err := obs.Run(); err != nil {
		logger.Error("display observer stopped", "error", err)
		return 1
	}
	obs.Close()
	return 0
}

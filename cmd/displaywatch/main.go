package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/displaywatch"
	"github.com/1broseidon/displaywatch/internal/config"
	"github.com/1broseidon/displaywatch/internal/ipc"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "watch":
		os.Exit(runWatch(os.Args[2:]))
	case "list":
		os.Exit(runList(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: displaywatch <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  watch               Print display changes as they happen (foreground)")
	fmt.Fprintln(w, "  list                List active displays")
	fmt.Fprintln(w, "  status              Show status of a running watch")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'displaywatch <command> --help' for command-specific options.")
}

// parseFlags parses args and maps the outcome to an exit code. ok is false
// when the caller should return code.
func parseFlags(fs *pflag.FlagSet, args []string) (code int, ok bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

func newFlagSet(name, usage string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, usage)
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	return fs
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return config.LoadFromPath(path)
}

func newLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func runList(args []string) int {
	fs := newFlagSet("list", "Usage: displaywatch list [--json] [--config PATH]")
	asJSON := fs.Bool("json", false, "Print one JSON object per display")
	configPath := fs.String("config", "", "Config file path (default: ~/.config/displaywatch/config.yaml)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "list takes no arguments")
		fs.Usage()
		return 2
	}

	res, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg := res.Config

	// A one-shot enumeration never waits for a change; the long poll
	// interval keeps the hook idle instead of selecting RandR input.
	obs, err := displaywatch.New(displaywatch.Options{
		Display:      cfg.Display,
		PollInterval: 24 * time.Hour,
		Logger:       newLogger(os.Stderr, cfg.SlogLevel()),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer obs.Close()

	records, err := obs.Displays()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ID.String() < records[j].ID.String()
	})

	format := config.FormatText
	if *asJSON {
		format = config.FormatJSON
	}
	p, err := newPrinter(os.Stdout, format, useColor(cfg.Color, os.Stdout))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := p.Displays(records); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runStatus(args []string) int {
	fs := newFlagSet("status", "Usage: displaywatch status [--json]\n\nShow status of a running 'displaywatch watch' via IPC.")
	asJSON := fs.Bool("json", false, "Print status as JSON")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	displays, err := client.GetDisplays()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *asJSON {
		out := struct {
			Status   *ipc.StatusData       `json:"status"`
			Displays []displaywatch.Record `json:"displays"`
		}{status, displays.Displays}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	fmt.Printf("mode:           %s\n", status.Mode)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	fmt.Printf("displays:       %d\n", status.DisplayCount)
	fmt.Printf("hints:          %d\n", status.Stats.Hints)
	fmt.Printf("rescans:        %d\n", status.Stats.Rescans)
	fmt.Printf("failures:       %d\n", status.Stats.Failures)
	fmt.Printf("events:         %d\n", status.Stats.Events)
	fmt.Println()

	p := newTextPrinter(os.Stdout, useColor(config.ColorAuto, os.Stdout))
	if err := p.Displays(displays.Displays); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  displaywatch config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  displaywatch config print [--path PATH] [--defaults]")
		fmt.Fprintln(os.Stderr, "  displaywatch config explain [--path PATH] <key>")
		return 2
	}

	const pathUsage = "Config file path (default: ~/.config/displaywatch/config.yaml)"

	switch args[0] {
	case "validate":
		fs := newFlagSet("validate", "Usage: displaywatch config validate [--path PATH]")
		path := fs.String("path", "", pathUsage)
		if code, ok := parseFlags(fs, args[1:]); !ok {
			return code
		}

		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if res.File == "" {
			fmt.Println("config: ok (no file, using defaults)")
			return 0
		}
		fmt.Printf("config: ok (%s)\n", res.File)
		return 0

	case "print":
		fs := newFlagSet("print", "Usage: displaywatch config print [--path PATH] [--defaults]")
		path := fs.String("path", "", pathUsage)
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if code, ok := parseFlags(fs, args[1:]); !ok {
			return code
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			res, err := loadConfig(*path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			cfg = res.Config
		}
		data, err := cfg.Marshal()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	case "explain":
		fs := newFlagSet("explain", "Usage: displaywatch config explain [--path PATH] <key>")
		path := fs.String("path", "", pathUsage)
		if code, ok := parseFlags(fs, args[1:]); !ok {
			return code
		}
		if fs.NArg() < 1 {
			fmt.Fprintln(os.Stderr, "explain requires <key>")
			return 2
		}
		key := fs.Arg(0)

		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		value, src, err := config.Explain(res, key)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		out, err := yaml.Marshal(value)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		fmt.Printf("key: %s\n", key)
		fmt.Printf("source: %s\n", formatSource(src))
		fmt.Printf("value: %s", string(out))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config command: %s\n", args[0])
		return 2
	}
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceFile:
		return fmt.Sprintf("%s:%d:%d", src.File, src.Line, src.Column)
	default:
		return string(src.Kind)
	}
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// cliConfig is the resolved command line. Flags win over the environment.
type cliConfig struct {
	ConfigPath  string
	DatabaseURL string
	LogLevel    slog.Level
	LogFormat   string
	Output      string
	MetricsAddr string
	Strict      bool
	Timeout     time.Duration

	Command string
	Args    []string
}

const usage = `usage: joute [flags] <command> [args]

commands:
  rank <round>          ranking and qualification of a round
  commit <round>        apply the round's qualification to the candidates
  report <round>        completeness report of a round
  duels <round>         duel outcomes of a duel round
  leaderboard           standings of every round
  import <scores.yaml>  submit score records and print settled rounds
  serve                 expose /metrics until interrupted

flags:
`

// parseFlags reads args, falling back to getenv for unset flags.
func parseFlags(args []string, getenv func(string) string, stderr io.Writer) (cliConfig, error) {
	var (
		cfg       cliConfig
		logLevel  string
		timeoutMS int
	)

	fs := flag.NewFlagSet("joute", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	fs.StringVar(&cfg.ConfigPath, "config", "", "Contest YAML file (env JOUTE_CONFIG)")
	fs.StringVar(&cfg.DatabaseURL, "db", "", "SQLite database path (env JOUTE_DB, default joute.db)")
	fs.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (env JOUTE_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format", "", "text or json (env JOUTE_LOG_FORMAT)")
	fs.StringVar(&cfg.Output, "output", "text", "text or json")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "Listen address for serve (env JOUTE_METRICS_ADDR, default :9464)")
	fs.BoolVar(&cfg.Strict, "strict", false, "Refuse to classify incomplete rounds")
	fs.IntVar(&timeoutMS, "timeout-ms", 0, "Deadline for one-shot commands in milliseconds, 0 for none")

	if err := fs.Parse(args); err != nil {
		return cliConfig{}, err
	}

	if cfg.ConfigPath == "" {
		cfg.ConfigPath = getenv("JOUTE_CONFIG")
	}
	if cfg.ConfigPath == "" {
		return cliConfig{}, errors.New("contest file required (use -config or JOUTE_CONFIG env)")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = getenv("JOUTE_DB")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "joute.db"
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = getenv("JOUTE_METRICS_ADDR")
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = ":9464"
	}

	if logLevel == "" {
		logLevel = getenv("JOUTE_LOG_LEVEL")
	}
	if logLevel != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
			return cliConfig{}, fmt.Errorf("invalid log level %q", logLevel)
		}
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = getenv("JOUTE_LOG_FORMAT")
	}
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "text"
	case "text", "json":
	default:
		return cliConfig{}, fmt.Errorf("invalid log format %q", cfg.LogFormat)
	}
	if cfg.Output != "text" && cfg.Output != "json" {
		return cliConfig{}, fmt.Errorf("invalid output %q", cfg.Output)
	}
	if timeoutMS < 0 {
		return cliConfig{}, errors.New("timeout-ms must not be negative")
	}
	cfg.Timeout = time.Duration(timeoutMS) * time.Millisecond

	rest := fs.Args()
	if len(rest) == 0 {
		return cliConfig{}, errors.New("command required")
	}
	cfg.Command, cfg.Args = strings.ToLower(rest[0]), rest[1:]

	want := 1
	switch cfg.Command {
	case "rank", "commit", "report", "duels", "import":
	case "leaderboard", "serve":
		want = 0
	default:
		return cliConfig{}, fmt.Errorf("unknown command %q", cfg.Command)
	}
	if len(cfg.Args) != want {
		return cliConfig{}, fmt.Errorf("%s expects %d argument(s), got %d", cfg.Command, want, len(cfg.Args))
	}
	return cfg, nil
}

// newLogger builds the process logger from cfg.
func newLogger(cfg cliConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

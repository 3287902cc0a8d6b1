// Package config provides CLI configuration and application logic for bindgraph.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/mazrean/bindgraph/internal/bindgraph"
	"github.com/mazrean/bindgraph/internal/diag"
	"github.com/mazrean/bindgraph/internal/engine"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// CLI is the root command configuration with subcommands.
type CLI struct {
	LogLevel string           `kong:"short='l',help='Log level',enum='debug,info,warn,error',default='info'"`
	Plan     PlanCmd          `kong:"cmd,default='withargs',help='Resolve setups and write plans (default)'"`
	Check    CheckCmd         `kong:"cmd,help='Resolve setups and print diagnostics only'"`
	Version  kong.VersionFlag `kong:"short='v',help='Show version and exit.'"`
}

// ResolveFlags are shared by every command that resolves setups.
type ResolveFlags struct {
	MaxIterations    int    `kong:"name='max-iterations',help='Upper bound on variant search iterations',default='1024'"`
	LifetimeSeverity string `kong:"name='lifetime-severity',help='Severity of lifetime violations',enum='error,warning,info',default='error'"`
	Jobs             int    `kong:"short='j',help='Setups resolved in parallel (0 means GOMAXPROCS)',default='0'"`
	NoDefaults       bool   `kong:"name='no-defaults',help='Do not add the built-in Func and Lazy bindings'"`
}

func (f *ResolveFlags) engineOptions() ([]engine.Option, error) {
	severity, err := diag.ParseSeverity(f.LifetimeSeverity)
	if err != nil {
		return nil, fmt.Errorf("parse lifetime severity: %w", err)
	}

	opts := []engine.Option{
		engine.WithMaxIterations(f.MaxIterations),
		engine.WithLifetimeSeverity(severity),
		engine.WithLogger(slog.Default()),
	}
	if f.Jobs > 0 {
		opts = append(opts, engine.WithParallelism(f.Jobs))
	}
	if f.NoDefaults {
		opts = append(opts, engine.WithoutDefaults())
	}
	return opts, nil
}

// PlanCmd is the default command for writing instantiation plans.
type PlanCmd struct {
	ResolveFlags
	Output string   `kong:"short='o',help='Write every plan to stdout when set to -'"`
	Files  []string `kong:"arg,help='Setup files (.yaml, .yml or .txtar) to process'"`
}

// Run executes the plan command.
func (c *PlanCmd) Run(ctx context.Context, cli *CLI) error {
	setupLogger(cli.LogLevel)

	if len(c.Files) == 0 {
		return fmt.Errorf("no files specified")
	}

	opts, err := c.engineOptions()
	if err != nil {
		return err
	}

	slog.Info("Writing instantiation plans", "files", c.Files)

	processor := bindgraph.NewProcessor(opts...)
	switch c.Output {
	case "":
	case "-":
		processor.WithStdout(os.Stdout)
	default:
		return fmt.Errorf("unsupported output %q", c.Output)
	}
	return processor.ProcessFiles(ctx, c.Files)
}

// CheckCmd validates setups without writing plans.
type CheckCmd struct {
	ResolveFlags
	Files []string `kong:"arg,help='Setup files (.yaml, .yml or .txtar) to check'"`
}

// Run executes the check command.
func (c *CheckCmd) Run(ctx context.Context, cli *CLI) error {
	setupLogger(cli.LogLevel)

	if len(c.Files) == 0 {
		return fmt.Errorf("no files specified")
	}

	opts, err := c.engineOptions()
	if err != nil {
		return err
	}

	slog.Info("Checking setups", "files", c.Files)

	return bindgraph.NewProcessor(opts...).CheckFiles(ctx, os.Stderr, c.Files)
}

func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var cli CLI
	kongCtx := kong.Parse(&cli,
		kong.Name("bindgraph"),
		kong.Description("A dependency injection binding resolver that turns setups into instantiation plans"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": fmt.Sprintf("%s (%s) released on %s", version, commit, date),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	return kongCtx.Run(&cli)
}

func setupLogger(level string) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(level),
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

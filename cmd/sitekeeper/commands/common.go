package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/logfields"
	"git.home.luguber.info/inful/sitekeeper/internal/metrics"
	"git.home.luguber.info/inful/sitekeeper/internal/site"
)

// EnvLogLevel selects the log level when --verbose is not given.
const EnvLogLevel = "SITEKEEPER_LOG_LEVEL"

// Global is the state shared by all commands.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitekeeper.yaml" env:"SITEKEEPER_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	Setup   SetupCmd   `cmd:"" help:"Prepare the publish repository (init, remote, .gitignore)"`
	Serve   ServeCmd   `cmd:"" help:"Run the HTTP admin API"`
	Sync    SyncCmd    `cmd:"" help:"Project collections into the document"`
	Publish PublishCmd `cmd:"" help:"Commit and push pending changes"`
	Status  StatusCmd  `cmd:"" help:"Show collections, anchors, git status and activity"`
	Adopt   AdoptCmd   `cmd:"" help:"Mark legacy anchors in the document with data-sync-anchor attributes"`
	History HistoryCmd `cmd:"" help:"Show recent changes"`
	Record  RecordCmd  `cmd:"" help:"Manage collection records"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level, err := LogLevel(c.Verbose, os.Getenv(EnvLogLevel))
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// LogLevel resolves the log level: --verbose wins, then the environment value,
// then info.
func LogLevel(verbose bool, env string) (slog.Level, error) {
	if verbose {
		return slog.LevelDebug, nil
	}
	if strings.TrimSpace(env) == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(env))); err != nil {
		return slog.LevelInfo, errors.ValidationError(fmt.Sprintf("invalid %s value", EnvLogLevel)).
			WithContext("value", env).
			Build()
	}
	return level, nil
}

func (g *Global) logger() *slog.Logger {
	if g == nil || g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Global) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(g.out(), format, args...)
}

func (g *Global) printJSON(v any) error {
	enc := json.NewEncoder(g.out())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// openRuntime loads the configuration and wires a site runtime from it.
func openRuntime(ctx context.Context, g *Global, root *CLI, recorder metrics.Recorder) (*config.Config, *site.Runtime, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, nil, err
	}
	rt, err := site.Open(ctx, cfg, recorder, g.logger())
	if err != nil {
		return nil, nil, err
	}
	return cfg, rt, nil
}

// withRuntime opens a runtime for the duration of fn.
func withRuntime(ctx context.Context, g *Global, root *CLI, fn func(*config.Config, *site.Runtime) error) error {
	cfg, rt, err := openRuntime(ctx, g, root, nil)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			g.logger().Warn("Failed to close runtime", logfields.Error(cerr))
		}
	}()
	return fn(cfg, rt)
}

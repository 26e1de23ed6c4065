package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mchmarny/radex/pkg/config"
	"github.com/mchmarny/radex/pkg/data"
	"github.com/mchmarny/radex/pkg/logging"
	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName      = "radex"
	appConfigKey = "app-config"

	debugFlagName  = "debug"
	dbFlagName     = "db"
	formatFlagName = "format"
	configFlagName = "config"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefaultCLILogger("info")

	app := newApp()
	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	DBPath string
	Debug  bool
	Format string
	DB     *sql.DB
	Config *config.Config
}

func getConfig(cmd *urfave.Command) *appConfig {
	return cmd.Root().Metadata[appConfigKey].(*appConfig)
}

func newApp() *urfave.Command {
	return &urfave.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Usage:                 "Radiation exposure estimates at standoff distances from compact sources",
		Writer:                os.Stdout,
		Reader:                os.Stdin,
		Metadata:              map[string]any{},
		Flags: []urfave.Flag{
			&urfave.BoolFlag{
				Name:  debugFlagName,
				Usage: "Prints verbose logs (optional, default: false)",
			},
			&urfave.StringFlag{
				Name:  dbFlagName,
				Usage: "Path to the Sqlite database file or a postgres:// DSN",
			},
			&urfave.StringFlag{
				Name:  formatFlagName,
				Usage: "Output format [json, yaml] (default from config)",
			},
			&urfave.StringFlag{
				Name:  configFlagName,
				Usage: fmt.Sprintf("Config directory (default: $HOME/.%s)", appName),
			},
		},
		Commands: []*urfave.Command{
			newCalculateNCmd(),
			newExposureCmd(),
			newCubeCmd(),
			newCylinderCmd(),
			newBatchCmd(),
			newHistoryCmd(),
			newResetCmd(),
			newServerCmd(),
		},
		Before: before,
		After: func(_ context.Context, cmd *urfave.Command) error {
			if cfg, ok := cmd.Root().Metadata[appConfigKey].(*appConfig); ok && cfg.DB != nil {
				cfg.DB.Close()
			}
			return nil
		},
	}
}

func before(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
	debug := cmd.Bool(debugFlagName)
	if debug {
		logging.SetDefaultCLILogger("debug")
	}

	dir := cmd.String(configFlagName)
	if dir == "" {
		dir = getHomeDir()
	}

	conf, err := config.ReadOrCreate(dir)
	if err != nil {
		return ctx, fmt.Errorf("reading config: %w", err)
	}
	if !debug {
		logging.SetDefaultCLILogger(conf.LogLevel)
	}

	format := conf.Format
	if f := strings.ToLower(cmd.String(formatFlagName)); f != "" {
		switch f {
		case config.FormatYAML, "yml":
			format = config.FormatYAML
		case config.FormatJSON:
			format = config.FormatJSON
		default:
			return ctx, fmt.Errorf("unsupported format: %s", f)
		}
	}

	dbPath := cmd.String(dbFlagName)
	if dbPath == "" {
		dbPath = filepath.Join(dir, data.DataFileName)
	}

	if err := data.Init(dbPath); err != nil {
		return ctx, fmt.Errorf("initializing database: %w", err)
	}

	db, err := data.GetDB(dbPath)
	if err != nil {
		return ctx, fmt.Errorf("opening database: %w", err)
	}

	slog.Debug("app configured", "config", dir, "format", format, "postgres", data.IsPostgres(dbPath))

	cmd.Root().Metadata[appConfigKey] = &appConfig{
		DBPath: dbPath,
		Debug:  debug,
		Format: format,
		DB:     db,
		Config: conf,
	}
	return ctx, nil
}

func getHomeDir() string {
	dir, created, err := config.GetOrCreateHomeDir(appName)
	if err != nil {
		slog.Debug("error getting home dir, using current dir instead", "error", err)
		return "."
	}
	if created {
		slog.Debug("created app dir", "path", dir)
	}
	return dir
}

func encode(cmd *urfave.Command, v any) error {
	var w io.Writer = os.Stdout
	if root := cmd.Root(); root.Writer != nil {
		w = root.Writer
	}

	if getConfig(cmd).Format == config.FormatYAML {
		return yaml.NewEncoder(w).Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}

func since(start time.Time) string {
	return time.Since(start).Round(time.Microsecond).String()
}

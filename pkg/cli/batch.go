package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mchmarny/radex/pkg/survey"
	urfave "github.com/urfave/cli/v3"
)

const (
	fileFlagName    = "file"
	workersFlagName = "workers"
)

func newBatchCmd() *urfave.Command {
	return &urfave.Command{
		Name:    "batch",
		Aliases: []string{"b"},
		Usage:   "Evaluate all sources in a YAML or JSON(C) batch file",
		Action:  cmdBatch,
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:     fileFlagName,
				Aliases:  []string{"f"},
				Usage:    "Path to the batch file (.yaml, .yml, .json, .jsonc)",
				Required: true,
			},
			&urfave.IntFlag{
				Name:  workersFlagName,
				Usage: "Number of concurrent evaluations (default from config)",
			},
		},
	}
}

func cmdBatch(ctx context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)
	start := time.Now()

	batch, err := survey.ParseFile(cmd.String(fileFlagName))
	if err != nil {
		return err
	}

	dist := batch.Distances
	if len(dist) == 0 {
		dist = cfg.Config.Distances
	}

	workers := cfg.Config.Workers
	if w := int(cmd.Int(workersFlagName)); w > 0 {
		workers = w
	}

	report, err := survey.Run(ctx, batch.Items, dist, survey.WithWorkers(workers))
	if err != nil {
		return fmt.Errorf("running survey: %w", err)
	}

	if err := saveReport(cfg.DB, report); err != nil {
		return err
	}

	slog.Info("batch complete", "run", report.RunID, "items", len(report.Rows), "duration", since(start))
	return encode(cmd, report)
}

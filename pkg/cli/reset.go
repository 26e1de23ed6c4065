package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mchmarny/radex/pkg/data"
	urfave "github.com/urfave/cli/v3"
)

const yesFlagName = "yes"

func newResetCmd() *urfave.Command {
	return &urfave.Command{
		Name:   "reset",
		Usage:  "Delete all saved calculations",
		Action: cmdReset,
		Flags: []urfave.Flag{
			&urfave.BoolFlag{
				Name:    yesFlagName,
				Aliases: []string{"y"},
				Usage:   "Skip the confirmation prompt",
			},
		},
	}
}

func cmdReset(_ context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)
	w := cmd.Root().Writer

	if !cmd.Bool(yesFlagName) {
		fmt.Fprintf(w, "This will permanently delete all calculations in %s\n", cfg.DBPath)
		fmt.Fprint(w, "Are you sure? [y/N]: ")

		reader := bufio.NewReader(cmd.Root().Reader)
		answer, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Fprintln(w, "Aborted.")
			return nil
		}
	}

	n, err := data.DeleteCalculations(cfg.DB)
	if err != nil {
		return fmt.Errorf("deleting calculations: %w", err)
	}

	slog.Info("calculations deleted", "count", n, "db", cfg.DBPath)
	fmt.Fprintln(w, "Reset complete.")
	return nil
}

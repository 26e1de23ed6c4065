package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mchmarny/radex/pkg/data"
	"github.com/mchmarny/radex/pkg/survey"
	urfave "github.com/urfave/cli/v3"
)

const (
	historyLimitDefault = 20

	limitFlagName = "limit"
	idFlagName    = "id"
	runFlagName   = "run"
)

func newHistoryCmd() *urfave.Command {
	return &urfave.Command{
		Name:    "history",
		Aliases: []string{"h"},
		Usage:   "Saved calculation operations",
		Commands: []*urfave.Command{
			{
				Name:    "list",
				Aliases: []string{"l"},
				Usage:   "List most recent calculations",
				Action:  cmdHistoryList,
				Flags: []urfave.Flag{
					&urfave.IntFlag{
						Name:  limitFlagName,
						Usage: "Limits number of result returned",
						Value: historyLimitDefault,
					},
				},
			},
			{
				Name:   "show",
				Usage:  "Show a single calculation or every calculation of a run",
				Action: cmdHistoryShow,
				Flags: []urfave.Flag{
					&urfave.IntFlag{
						Name:  idFlagName,
						Usage: "Calculation ID",
					},
					&urfave.StringFlag{
						Name:  runFlagName,
						Usage: "Run ID",
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Counts of saved calculations",
				Action: cmdHistoryStats,
			},
		},
	}
}

func cmdHistoryList(_ context.Context, cmd *urfave.Command) error {
	list, err := data.ListCalculations(getConfig(cmd).DB, int(cmd.Int(limitFlagName)))
	if err != nil {
		return fmt.Errorf("listing calculations: %w", err)
	}
	return encode(cmd, list)
}

func cmdHistoryShow(_ context.Context, cmd *urfave.Command) error {
	db := getConfig(cmd).DB

	if run := cmd.String(runFlagName); run != "" {
		list, err := data.GetRun(db, run)
		if err != nil {
			return fmt.Errorf("getting run %s: %w", run, err)
		}
		return encode(cmd, list)
	}

	id := cmd.Int(idFlagName)
	if id <= 0 {
		return fmt.Errorf("either --%s or --%s is required", idFlagName, runFlagName)
	}

	c, err := data.GetCalculation(db, int64(id))
	if err != nil {
		return fmt.Errorf("getting calculation %d: %w", id, err)
	}
	if c == nil {
		return fmt.Errorf("calculation %d not found", id)
	}
	return encode(cmd, c)
}

func cmdHistoryStats(_ context.Context, cmd *urfave.Command) error {
	state, err := data.GetDataState(getConfig(cmd).DB)
	if err != nil {
		return fmt.Errorf("getting data state: %w", err)
	}
	return encode(cmd, state)
}

func toCalculation(runID string, row *survey.Row) *data.Calculation {
	c := &data.Calculation{
		RunID:        runID,
		Name:         row.Name,
		Shape:        string(row.Shape),
		Contact:      row.Contact,
		SelfDistance: row.SelfDistance,
		Exponent:     row.Exponent,
		Calibrated:   row.Calibrated,
		Points:       make([]*data.Point, 0, len(row.Points)),
	}
	if row.Reference != nil {
		x30, b := row.Reference.X30, row.Reference.Buildup
		c.X30 = &x30
		c.Buildup = &b
	}
	for _, p := range row.Points {
		c.Points = append(c.Points, &data.Point{Distance: p.Distance, Exposure: p.Exposure})
	}
	return c
}

func saveRow(db *sql.DB, runID string, row *survey.Row) (int64, error) {
	id, err := data.SaveCalculation(db, toCalculation(runID, row))
	if err != nil {
		return 0, fmt.Errorf("saving calculation %s: %w", row.Name, err)
	}
	return id, nil
}

func saveReport(db *sql.DB, r *survey.Report) error {
	for _, row := range r.Rows {
		if _, err := saveRow(db, r.RunID, row); err != nil {
			return err
		}
	}
	return nil
}

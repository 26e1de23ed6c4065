package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/mchmarny/radex/pkg/source"
	"github.com/mchmarny/radex/pkg/survey"
	urfave "github.com/urfave/cli/v3"
)

const (
	nameFlagName        = "name"
	sideFlagName        = "side"
	diameterFlagName    = "diameter"
	heightFlagName      = "height"
	orientationFlagName = "orientation"
)

// profileResult is a single source evaluation as printed by the CLI.
type profileResult struct {
	RunID      string `json:"run_id" yaml:"runID"`
	ID         int64  `json:"id" yaml:"id"`
	survey.Row `yaml:",inline"`
}

func profileFlags() []urfave.Flag {
	return []urfave.Flag{
		&urfave.StringFlag{
			Name:  nameFlagName,
			Usage: "Label saved with the calculation",
		},
		contactFlag(),
		x30Flag(false),
		buildupFlag(),
		&urfave.FloatSliceFlag{
			Name:    distanceFlagName,
			Aliases: []string{"d"},
			Usage:   "Standoff distances in meters (repeatable, default from config)",
		},
	}
}

func newCubeCmd() *urfave.Command {
	return &urfave.Command{
		Name:   "cube",
		Usage:  "Exposure profile of a cubic source",
		Action: cmdCube,
		Flags: append([]urfave.Flag{
			&urfave.FloatFlag{
				Name:     sideFlagName,
				Usage:    "Cube side length in meters",
				Required: true,
			},
		}, profileFlags()...),
	}
}

func newCylinderCmd() *urfave.Command {
	return &urfave.Command{
		Name:    "cylinder",
		Aliases: []string{"cyl"},
		Usage:   "Exposure profile of a cylindrical source",
		Action:  cmdCylinder,
		Flags: append([]urfave.Flag{
			&urfave.FloatFlag{
				Name:     diameterFlagName,
				Usage:    "Cylinder diameter in meters",
				Required: true,
			},
			&urfave.FloatFlag{
				Name:     heightFlagName,
				Usage:    "Cylinder height in meters",
				Required: true,
			},
			&urfave.StringFlag{
				Name:  orientationFlagName,
				Usage: fmt.Sprintf("Face the distance is measured from [%s]", orientationList()),
				Value: string(source.OrientationSide),
			},
		}, profileFlags()...),
	}
}

func orientationList() string {
	list := make([]string, 0, len(source.Orientations))
	for _, o := range source.Orientations {
		list = append(list, string(o))
	}
	return strings.Join(list, ", ")
}

func cmdCube(ctx context.Context, cmd *urfave.Command) error {
	spec := source.Spec{
		Shape:           source.ShapeCube,
		Side:            cmd.Float(sideFlagName),
		ContactExposure: cmd.Float(contactFlagName),
	}
	return runProfile(ctx, cmd, spec)
}

func cmdCylinder(ctx context.Context, cmd *urfave.Command) error {
	spec := source.Spec{
		Shape:           source.ShapeCylinder,
		Diameter:        cmd.Float(diameterFlagName),
		Height:          cmd.Float(heightFlagName),
		Orientation:     cmd.String(orientationFlagName),
		ContactExposure: cmd.Float(contactFlagName),
	}
	return runProfile(ctx, cmd, spec)
}

// reference returns nil unless a 0.30 m reading was supplied.
func reference(cmd *urfave.Command) *source.Reference {
	if !cmd.IsSet(x30FlagName) {
		return nil
	}
	return &source.Reference{
		X30:     cmd.Float(x30FlagName),
		Buildup: buildup(cmd),
	}
}

func distances(cmd *urfave.Command) []float64 {
	if d := cmd.FloatSlice(distanceFlagName); len(d) > 0 {
		return d
	}
	return getConfig(cmd).Config.Distances
}

func runProfile(_ context.Context, cmd *urfave.Command, spec source.Spec) error {
	cfg := getConfig(cmd)

	src, err := source.New(spec)
	if err != nil {
		return err
	}

	name := cmd.String(nameFlagName)
	if name == "" {
		name = string(src.Shape())
	}

	row, err := survey.Profile(name, src, reference(cmd), distances(cmd))
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	id, err := saveRow(cfg.DB, runID, row)
	if err != nil {
		return err
	}
	slog.Debug("calculation saved", "id", id, "run", runID)

	return encode(cmd, &profileResult{RunID: runID, ID: id, Row: *row})
}

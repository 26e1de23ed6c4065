package cli

import (
	"context"
	"log/slog"

	"github.com/mchmarny/radex/pkg/attenuation"
	"github.com/mchmarny/radex/pkg/survey"
	urfave "github.com/urfave/cli/v3"
)

const (
	x30FlagName      = "x30"
	contactFlagName  = "contact"
	buildupFlagName  = "buildup"
	rsFlagName       = "rs"
	nFlagName        = "n"
	distanceFlagName = "distance"
)

type exponentResult struct {
	X30          float64 `json:"x30" yaml:"x30"`
	Contact      float64 `json:"contact" yaml:"contact"`
	Buildup      float64 `json:"buildup" yaml:"buildup"`
	SelfDistance float64 `json:"rs" yaml:"rs"`
	N            float64 `json:"n" yaml:"n"`
}

type exposureResult struct {
	Distance     float64 `json:"distance" yaml:"distance"`
	Contact      float64 `json:"contact" yaml:"contact"`
	N            float64 `json:"n" yaml:"n"`
	Buildup      float64 `json:"buildup" yaml:"buildup"`
	SelfDistance float64 `json:"rs" yaml:"rs"`
	Exposure     float64 `json:"exposure" yaml:"exposure"`
}

func contactFlag() *urfave.FloatFlag {
	return &urfave.FloatFlag{
		Name:     contactFlagName,
		Aliases:  []string{"c"},
		Usage:    "Exposure rate measured at the source surface",
		Required: true,
	}
}

func x30Flag(required bool) *urfave.FloatFlag {
	return &urfave.FloatFlag{
		Name:     x30FlagName,
		Usage:    "Exposure rate measured 0.30 m from the source surface",
		Required: required,
	}
}

func buildupFlag() *urfave.FloatFlag {
	return &urfave.FloatFlag{
		Name:    buildupFlagName,
		Aliases: []string{"b"},
		Usage:   "Buildup factor (default from config)",
		Value:   attenuation.DefaultBuildup,
	}
}

func rsFlag() *urfave.FloatFlag {
	return &urfave.FloatFlag{
		Name:     rsFlagName,
		Usage:    "Self-shielding distance in meters",
		Required: true,
	}
}

// buildup returns the flag value when set, the configured default otherwise.
func buildup(cmd *urfave.Command) float64 {
	if cmd.IsSet(buildupFlagName) {
		return cmd.Float(buildupFlagName)
	}
	return getConfig(cmd).Config.Buildup
}

func newCalculateNCmd() *urfave.Command {
	return &urfave.Command{
		Name:    "n",
		Aliases: []string{"exponent"},
		Usage:   "Calculate the attenuation exponent from a reading at 0.30 m",
		Action:  cmdCalculateN,
		Flags: []urfave.Flag{
			x30Flag(true),
			contactFlag(),
			buildupFlag(),
			rsFlag(),
		},
	}
}

func cmdCalculateN(_ context.Context, cmd *urfave.Command) error {
	r := &exponentResult{
		X30:          cmd.Float(x30FlagName),
		Contact:      cmd.Float(contactFlagName),
		Buildup:      buildup(cmd),
		SelfDistance: cmd.Float(rsFlagName),
	}

	n, err := attenuation.CalculateN(r.X30, r.Contact, r.Buildup, r.SelfDistance)
	if err != nil {
		return err
	}
	if err := survey.CheckFinite("n", n); err != nil {
		return err
	}
	r.N = n

	slog.Debug("exponent calculated", "n", n)
	return encode(cmd, r)
}

func newExposureCmd() *urfave.Command {
	return &urfave.Command{
		Name:    "exposure",
		Aliases: []string{"x"},
		Usage:   "Estimate exposure at a distance from raw model parameters",
		Action:  cmdEstimateExposure,
		Flags: []urfave.Flag{
			&urfave.FloatFlag{
				Name:     distanceFlagName,
				Aliases:  []string{"d"},
				Usage:    "Standoff distance beyond the source surface in meters",
				Required: true,
			},
			contactFlag(),
			&urfave.FloatFlag{
				Name:     nFlagName,
				Usage:    "Attenuation exponent",
				Required: true,
			},
			buildupFlag(),
			rsFlag(),
		},
	}
}

func cmdEstimateExposure(_ context.Context, cmd *urfave.Command) error {
	r := &exposureResult{
		Distance:     cmd.Float(distanceFlagName),
		Contact:      cmd.Float(contactFlagName),
		N:            cmd.Float(nFlagName),
		Buildup:      buildup(cmd),
		SelfDistance: cmd.Float(rsFlagName),
	}

	x, err := attenuation.EstimateExposure(r.Distance, r.Contact, r.N, r.Buildup, r.SelfDistance)
	if err != nil {
		return err
	}
	if err := survey.CheckFinite("exposure", x); err != nil {
		return err
	}
	r.Exposure = x

	return encode(cmd, r)
}

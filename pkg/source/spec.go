package source

import (
	"strings"

	"github.com/mchmarny/radex/pkg/attenuation"
)

// Spec is the declarative form of a source as read from batch files, API
// requests and CLI flags. Only the fields relevant to Shape are used.
type Spec struct {
	Shape           Shape   `json:"shape" yaml:"shape"`
	Side            float64 `json:"side,omitempty" yaml:"side,omitempty"`
	Diameter        float64 `json:"diameter,omitempty" yaml:"diameter,omitempty"`
	Height          float64 `json:"height,omitempty" yaml:"height,omitempty"`
	Orientation     string  `json:"orientation,omitempty" yaml:"orientation,omitempty"`
	ContactExposure float64 `json:"contact" yaml:"contact"`
}

// New builds the source described by s.
func New(s Spec) (Source, error) {
	switch Shape(strings.ToLower(string(s.Shape))) {
	case ShapeCube:
		c, err := NewCube(s.Side, s.ContactExposure)
		if err != nil {
			return nil, err
		}
		return c, nil
	case ShapeCylinder:
		o, err := ParseOrientation(s.Orientation)
		if err != nil {
			return nil, err
		}
		c, err := NewCylinder(s.Diameter, s.Height, o, s.ContactExposure)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, attenuation.Invalid("shape", string(s.Shape))
	}
}

package source

import (
	"strings"

	"github.com/mchmarny/radex/pkg/attenuation"
)

// CylinderNominalExponent is used for cylinders of either orientation when
// no reference is supplied.
const CylinderNominalExponent = 2.0

// Orientation is the cylinder face the standoff distance is measured from.
type Orientation string

const (
	OrientationSide Orientation = "side"
	OrientationTop  Orientation = "top"
)

// Orientations lists the valid orientations.
var Orientations = []Orientation{OrientationSide, OrientationTop}

// ParseOrientation accepts "side" or "top" in any case.
func ParseOrientation(s string) (Orientation, error) {
	o := Orientation(strings.ToLower(strings.TrimSpace(s)))
	if !o.Valid() {
		return "", attenuation.Invalid("orientation", s)
	}
	return o, nil
}

func (o Orientation) Valid() bool {
	return o == OrientationSide || o == OrientationTop
}

// Cylinder is a cylindrical source viewed from its side or its top.
type Cylinder struct {
	base
	diameter    float64
	height      float64
	orientation Orientation
}

// NewCylinder validates the geometry and returns an immutable cylinder
// source. Side view uses half the diameter as the self-shielding distance,
// top view half the height.
func NewCylinder(diameter, height float64, o Orientation, contactExposure float64) (*Cylinder, error) {
	if err := checkPositive("diameter", diameter); err != nil {
		return nil, err
	}
	if err := checkPositive("height", height); err != nil {
		return nil, err
	}
	if !o.Valid() {
		return nil, attenuation.Invalid("orientation", string(o))
	}
	if err := checkPositive("contact", contactExposure); err != nil {
		return nil, err
	}

	rs := diameter / 2
	if o == OrientationTop {
		rs = height / 2
	}

	return &Cylinder{
		base: base{
			contact:  contactExposure,
			rs:       rs,
			nominalN: CylinderNominalExponent,
		},
		diameter:    diameter,
		height:      height,
		orientation: o,
	}, nil
}

func (c *Cylinder) Shape() Shape { return ShapeCylinder }

func (c *Cylinder) Diameter() float64 { return c.diameter }

func (c *Cylinder) Height() float64 { return c.height }

func (c *Cylinder) Orientation() Orientation { return c.orientation }

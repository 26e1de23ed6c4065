package source

// CubeNominalExponent is used for cubes when no reference is supplied.
const CubeNominalExponent = 2.5

// Cube is a cubic source; its self-shielding distance is half the side.
type Cube struct {
	base
	side float64
}

// NewCube validates the geometry and returns an immutable cube source.
func NewCube(side, contactExposure float64) (*Cube, error) {
	if err := checkPositive("side", side); err != nil {
		return nil, err
	}
	if err := checkPositive("contact", contactExposure); err != nil {
		return nil, err
	}

	return &Cube{
		base: base{
			contact:  contactExposure,
			rs:       side / 2,
			nominalN: CubeNominalExponent,
		},
		side: side,
	}, nil
}

func (c *Cube) Shape() Shape { return ShapeCube }

// Side returns the cube side length in meters.
func (c *Cube) Side() float64 { return c.side }

// Package attenuation implements the empirical inverse-power-law model used
// to project a contact exposure rate to a standoff distance.
//
// Distances are measured from the source surface and offset by the source
// self-shielding distance rs:
//
//	X(delta) = Xcontact * (rs / (rs + delta))^n * B
//
// The contact point (delta == 0) is the calibration anchor and returns
// Xcontact without the buildup factor.
package attenuation

import "math"

const (
	// ReferenceDistance is the standoff (m) of the calibration reading.
	ReferenceDistance = 0.30

	// DefaultBuildup is applied when no reference measurement is supplied.
	DefaultBuildup = 1.05
)

// CalculateN derives the attenuation exponent from an exposure reading x30
// taken at ReferenceDistance.
func CalculateN(x30, xContact, buildup, rs float64) (float64, error) {
	if err := positive("x30", x30); err != nil {
		return 0, err
	}
	if err := positive("contact", xContact); err != nil {
		return 0, err
	}
	if err := positive("rs", rs); err != nil {
		return 0, err
	}

	ratio := x30 / (xContact * buildup)
	dist := rs / (rs + ReferenceDistance)
	return math.Log(ratio) / math.Log(dist), nil
}

// EstimateExposure projects xContact to delta meters beyond the surface.
func EstimateExposure(delta, xContact, n, buildup, rs float64) (float64, error) {
	if !(delta >= 0) {
		return 0, Invalid("distance", delta)
	}
	if err := positive("contact", xContact); err != nil {
		return 0, err
	}
	if err := positive("rs", rs); err != nil {
		return 0, err
	}

	if delta == 0 {
		return xContact, nil
	}

	return xContact * math.Pow(rs/(rs+delta), n) * buildup, nil
}

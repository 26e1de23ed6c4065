// Package source models compact radioactive sources by shape. Each shape
// supplies a self-shielding distance and a nominal attenuation exponent and
// projects its contact exposure through the attenuation model.
package source

import (
	"github.com/mchmarny/radex/pkg/attenuation"
)

// Shape is the geometric family of a source.
type Shape string

const (
	ShapeCube     Shape = "cube"
	ShapeCylinder Shape = "cylinder"
)

// Source is the capability shared by every source shape.
type Source interface {
	Shape() Shape
	ContactExposure() float64
	SelfDistance() float64
	NominalExponent() float64

	// EstimateN returns the nominal exponent when ref is nil, otherwise the
	// exponent calibrated from the reference measurement.
	EstimateN(ref *Reference) (float64, error)

	// ExposureAt projects the contact exposure to delta meters beyond the
	// source surface.
	ExposureAt(delta float64, ref *Reference) (float64, error)
}

// Reference is an exposure reading X30 taken at attenuation.ReferenceDistance
// together with the buildup factor used to calibrate the exponent.
type Reference struct {
	X30     float64 `json:"x30" yaml:"x30"`
	Buildup float64 `json:"buildup" yaml:"buildup"`
}

// base carries the state every shape shares. It is never mutated after
// construction.
type base struct {
	contact  float64
	rs       float64
	nominalN float64
}

func (b base) ContactExposure() float64 { return b.contact }
func (b base) SelfDistance() float64    { return b.rs }
func (b base) NominalExponent() float64 { return b.nominalN }

func (b base) EstimateN(ref *Reference) (float64, error) {
	if ref == nil {
		return b.nominalN, nil
	}
	return attenuation.CalculateN(ref.X30, b.contact, ref.Buildup, b.rs)
}

func (b base) ExposureAt(delta float64, ref *Reference) (float64, error) {
	n, err := b.EstimateN(ref)
	if err != nil {
		return 0, err
	}

	buildup := attenuation.DefaultBuildup
	if ref != nil {
		buildup = ref.Buildup
	}

	return attenuation.EstimateExposure(delta, b.contact, n, buildup, b.rs)
}

func checkPositive(param string, v float64) error {
	if !(v > 0) {
		return attenuation.Invalid(param, v)
	}
	return nil
}

var (
	_ Source = (*Cube)(nil)
	_ Source = (*Cylinder)(nil)
)

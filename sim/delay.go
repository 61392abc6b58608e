package sim

import (
	"fmt"
	"math"
	"math/rand"
)

// DelayModel samples a delay in seconds. All variants draw from the
// partitioned RNG handed to Sample, never from a process-global source.
type DelayModel interface {
	Sample(rng *rand.Rand) float64
}

// ConstantDelay always returns the same fixed delay.
type ConstantDelay struct {
	seconds float64
}

func (d *ConstantDelay) Sample(_ *rand.Rand) float64 { return d.seconds }

// UniformDelay draws from U(min, max) seconds.
type UniformDelay struct {
	min, max float64
}

func (d *UniformDelay) Sample(rng *rand.Rand) float64 {
	if d.max <= d.min {
		return d.min
	}
	return d.min + rng.Float64()*(d.max-d.min)
}

// NormalDelay draws from N(mean, std^2) seconds, clamped at zero since a
// negative delay has no physical meaning.
type NormalDelay struct {
	mean, std float64
}

func (d *NormalDelay) Sample(rng *rand.Rand) float64 {
	val := rng.NormFloat64()*d.std + d.mean
	if val < 0 {
		return 0
	}
	return val
}

// DelaySpec is the YAML-facing description of a DelayModel, mirroring the
// type+params shape used for every other pluggable policy in the scenario
// config.
type DelaySpec struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params"`
}

func requireDelayParam(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		if _, ok := params[k]; !ok {
			return fmt.Errorf("delay model requires parameter %q", k)
		}
	}
	return nil
}

// NewDelayModel builds a DelayModel from a DelaySpec.
func NewDelayModel(spec DelaySpec) (DelayModel, error) {
	switch spec.Type {
	case "", "constant":
		if err := requireDelayParam(spec.Params, "seconds"); err != nil {
			return nil, err
		}
		return &ConstantDelay{seconds: spec.Params["seconds"]}, nil

	case "uniform":
		if err := requireDelayParam(spec.Params, "min", "max"); err != nil {
			return nil, err
		}
		min, max := spec.Params["min"], spec.Params["max"]
		if max < min {
			return nil, fmt.Errorf("uniform delay: max %.6g < min %.6g", max, min)
		}
		return &UniformDelay{min: min, max: max}, nil

	case "normal":
		if err := requireDelayParam(spec.Params, "mean", "std"); err != nil {
			return nil, err
		}
		std := spec.Params["std"]
		if std < 0 || math.IsNaN(std) {
			return nil, fmt.Errorf("normal delay: invalid std %.6g", std)
		}
		return &NormalDelay{mean: spec.Params["mean"], std: std}, nil

	default:
		return nil, fmt.Errorf("unknown delay model type %q", spec.Type)
	}
}

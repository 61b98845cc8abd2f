package model

import (
	"errors"
	"fmt"
	"math"
)

// Scaler standardizes features to zero mean and unit variance using
// parameters fit on the training partition only.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// FitScaler computes per-column mean and population standard deviation.
// Constant columns get a scale of 1 so Transform never divides by zero.
func FitScaler(X [][]float64) (*Scaler, error) {
	if len(X) == 0 {
		return nil, errors.New("fit scaler: no samples")
	}
	d := len(X[0])
	mean := make([]float64, d)
	for i, x := range X {
		if len(x) != d {
			return nil, fmt.Errorf("fit scaler: sample %d has %d columns, want %d", i, len(x), d)
		}
		for j, v := range x {
			mean[j] += v
		}
	}
	n := float64(len(X))
	for j := range mean {
		mean[j] /= n
	}

	scale := make([]float64, d)
	for _, x := range X {
		for j, v := range x {
			dv := v - mean[j]
			scale[j] += dv * dv
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / n)
		if scale[j] == 0 {
			scale[j] = 1
		}
	}
	return &Scaler{Mean: mean, Scale: scale}, nil
}

// Transform returns the standardized copy of x.
func (s *Scaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out
}

func (s *Scaler) TransformAll(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, x := range X {
		out[i] = s.Transform(x)
	}
	return out
}

func (s *Scaler) dim() int { return len(s.Mean) }

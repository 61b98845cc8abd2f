package model

import (
	"errors"
	"fmt"
	"math"
)

const (
	defaultIterations   = 500
	defaultLearningRate = 0.1
	defaultL2           = 1e-3
)

// TrainOptions tunes gradient descent. Zero values fall back to defaults.
type TrainOptions struct {
	Iterations   int
	LearningRate float64
	L2           float64
}

func (o TrainOptions) withDefaults() TrainOptions {
	if o.Iterations <= 0 {
		o.Iterations = defaultIterations
	}
	if o.LearningRate <= 0 {
		o.LearningRate = defaultLearningRate
	}
	if o.L2 <= 0 {
		o.L2 = defaultL2
	}
	return o
}

// Softmax is a multinomial logistic regression classifier.
type Softmax struct {
	Weights [][]float64 `json:"weights"` // one row per class
	Bias    []float64   `json:"bias"`
}

// TrainSoftmax fits a classifier on already scaled samples with batch gradient
// descent on the cross-entropy loss. Training is deterministic.
func TrainSoftmax(X [][]float64, y []int, classes int, opts TrainOptions) (*Softmax, error) {
	if len(X) == 0 {
		return nil, errors.New("train: no samples")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("train: %d samples but %d labels", len(X), len(y))
	}
	if classes < 2 {
		return nil, fmt.Errorf("train: need at least 2 classes, got %d", classes)
	}
	opts = opts.withDefaults()
	d := len(X[0])
	for i, label := range y {
		if label < 0 || label >= classes {
			return nil, fmt.Errorf("train: sample %d has label %d outside [0,%d)", i, label, classes)
		}
		if len(X[i]) != d {
			return nil, fmt.Errorf("train: sample %d has %d features, want %d", i, len(X[i]), d)
		}
	}

	m := &Softmax{Weights: make([][]float64, classes), Bias: make([]float64, classes)}
	for k := range m.Weights {
		m.Weights[k] = make([]float64, d)
	}

	n := float64(len(X))
	gradW := make([][]float64, classes)
	for k := range gradW {
		gradW[k] = make([]float64, d)
	}
	gradB := make([]float64, classes)

	for iter := 0; iter < opts.Iterations; iter++ {
		for k := range gradW {
			clear(gradW[k])
		}
		clear(gradB)

		for i, x := range X {
			p := m.PredictProba(x)
			// gradient of the cross-entropy: (p - onehot(y)) * x
			p[y[i]] -= 1
			for k := 0; k < classes; k++ {
				gradB[k] += p[k]
				for j, v := range x {
					gradW[k][j] += p[k] * v
				}
			}
		}

		for k := 0; k < classes; k++ {
			m.Bias[k] -= opts.LearningRate * gradB[k] / n
			for j := range m.Weights[k] {
				g := gradW[k][j]/n + opts.L2*m.Weights[k][j]
				m.Weights[k][j] -= opts.LearningRate * g
			}
		}
	}
	return m, nil
}

// PredictProba returns the class distribution for a scaled sample.
func (m *Softmax) PredictProba(x []float64) []float64 {
	z := make([]float64, len(m.Weights))
	maxZ := math.Inf(-1)
	for k, w := range m.Weights {
		z[k] = m.Bias[k] + dot(w, x)
		maxZ = math.Max(maxZ, z[k])
	}
	var sum float64
	for k := range z {
		z[k] = math.Exp(z[k] - maxZ)
		sum += z[k]
	}
	for k := range z {
		z[k] /= sum
	}
	return z
}

// Predict returns the index of the most probable class.
func (m *Softmax) Predict(x []float64) int {
	return Argmax(m.PredictProba(x))
}

func (m *Softmax) dims() (classes, features int) {
	if len(m.Weights) == 0 {
		return 0, 0
	}
	return len(m.Weights), len(m.Weights[0])
}

// Argmax returns the first index of the largest value, -1 for an empty slice.
func Argmax(p []float64) int {
	best := -1
	for i, v := range p {
		if best < 0 || v > p[best] {
			best = i
		}
	}
	return best
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

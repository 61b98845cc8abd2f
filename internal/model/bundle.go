package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/utakatalp/match-predictor/internal/features"
)

const ModelType = "Multinomial Logistic Regression"

// Metadata describes how a bundle was trained. FeatureNames is the
// cross-stage contract checked against the compiled schema at load time.
type Metadata struct {
	ModelType        string    `json:"model_type"`
	SchemaVersion    string    `json:"schema_version"`
	Accuracy         float64   `json:"accuracy"`
	NTrainingSamples int       `json:"n_training_samples"`
	NTestSamples     int       `json:"n_test_samples"`
	FeatureNames     []string  `json:"feature_names"`
	Classes          []string  `json:"classes"`
	TrainedAt        time.Time `json:"trained_at"`
	// StatsDigest is the digest of the team_stats.json the training
	// dataset was built from.
	StatsDigest string `json:"stats_digest"`
}

// Bundle is a trained classifier with its fitted scaler and metadata.
type Bundle struct {
	Meta       Metadata `json:"metadata"`
	Scaler     *Scaler  `json:"scaler"`
	Classifier *Softmax `json:"classifier"`
}

// Transform scales a feature vector with the training-time parameters.
func (b *Bundle) Transform(v features.Vector) []float64 {
	return b.Scaler.Transform(v[:])
}

func (b *Bundle) PredictProba(scaled []float64) []float64 {
	return b.Classifier.PredictProba(scaled)
}

func (b *Bundle) Classes() []string      { return b.Meta.Classes }
func (b *Bundle) FeatureNames() []string { return b.Meta.FeatureNames }
func (b *Bundle) Metadata() Metadata     { return b.Meta }

// Validate checks the feature contract and that the stored parameters agree
// with it. Contract violations come back as *features.ContractMismatchError.
func (b *Bundle) Validate() error {
	if err := features.CheckContract(b.Meta.SchemaVersion, b.Meta.FeatureNames); err != nil {
		return err
	}
	if err := features.CheckClasses(b.Meta.Classes); err != nil {
		return err
	}
	if b.Scaler == nil || b.Classifier == nil {
		return errors.New("bundle is missing scaler or classifier parameters")
	}
	if b.Scaler.dim() != features.Len || len(b.Scaler.Scale) != features.Len {
		return fmt.Errorf("scaler has %d columns, schema has %d", b.Scaler.dim(), features.Len)
	}
	classes, dim := b.Classifier.dims()
	if dim != features.Len {
		return fmt.Errorf("classifier has %d inputs, schema has %d", dim, features.Len)
	}
	if classes != len(b.Meta.Classes) || len(b.Classifier.Bias) != classes {
		return fmt.Errorf("classifier has %d outputs for %d class labels", classes, len(b.Meta.Classes))
	}
	for k, w := range b.Classifier.Weights {
		if len(w) != dim {
			return fmt.Errorf("classifier row %d has %d weights, want %d", k, len(w), dim)
		}
	}
	return b.checkValues()
}

// checkValues rejects parameters that would turn every prediction into NaN.
func (b *Bundle) checkValues() error {
	for i := 0; i < features.Len; i++ {
		if !finite(b.Scaler.Mean[i]) {
			return fmt.Errorf("scaler mean of %s is %v", features.Names[i], b.Scaler.Mean[i])
		}
		if s := b.Scaler.Scale[i]; !finite(s) || s <= 0 {
			return fmt.Errorf("scaler scale of %s is %v, want a positive number", features.Names[i], s)
		}
	}
	for k, w := range b.Classifier.Weights {
		for j, v := range w {
			if !finite(v) {
				return fmt.Errorf("classifier weight [%d][%d] is %v", k, j, v)
			}
		}
		if !finite(b.Classifier.Bias[k]) {
			return fmt.Errorf("classifier bias %d is %v", k, b.Classifier.Bias[k])
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Load reads and validates a bundle written by Save.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model bundle: %w", err)
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decoding model bundle %s: %w", path, err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("validating model bundle %s: %w", path, err)
	}
	return &b, nil
}

// Save writes the bundle as JSON, replacing path atomically.
func (b *Bundle) Save(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding model bundle: %w", err)
	}
	return WriteFileAtomic(path, data)
}

// WriteFileAtomic writes to a temp file next to path and renames it into place,
// so readers never observe a half-written artifact.
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}

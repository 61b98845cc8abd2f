// Package artifacts reads and writes the files shared by the offline commands
// and the prediction server.
package artifacts

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/utakatalp/match-predictor/internal/league"
	"github.com/utakatalp/match-predictor/internal/model"
)

const (
	StatsFile   = "team_stats.json"
	ModelFile   = "model.json"
	DatasetFile  = "training_data.csv"
	ManifestFile = "manifest.json"
)

// Paths resolves artifact file names inside one directory.
type Paths struct {
	Dir string
}

func (p Paths) Stats() string   { return filepath.Join(p.Dir, StatsFile) }
func (p Paths) Model() string   { return filepath.Join(p.Dir, ModelFile) }
func (p Paths) Dataset() string { return filepath.Join(p.Dir, DatasetFile) }
func (p Paths) Manifest() string { return filepath.Join(p.Dir, ManifestFile) }

// Digest is the hex sha256 of an artifact's bytes.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// StaleModelError means model.json was not trained against the statistics
// snapshot currently on disk.
type StaleModelError struct {
	StatsDigest string
	ModelDigest string
}

func (e *StaleModelError) Error() string {
	if e.ModelDigest == "" {
		return fmt.Sprintf("model bundle records no stats digest, team stats are %s", short(e.StatsDigest))
	}
	return fmt.Sprintf("model bundle was trained on stats %s, team stats on disk are %s",
		short(e.ModelDigest), short(e.StatsDigest))
}

func short(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}

// SaveStats writes the team statistics snapshot and returns its digest.
func SaveStats(path string, stats map[string]league.TeamStatistics) (string, error) {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding team stats: %w", err)
	}
	if err := model.WriteFileAtomic(path, data); err != nil {
		return "", err
	}
	return Digest(data), nil
}

// LoadStats reads a snapshot written by SaveStats. Map keys win over the
// embedded team name so lookups always match the key.
func LoadStats(path string) (map[string]league.TeamStatistics, error) {
	stats, _, err := loadStats(path)
	return stats, err
}

func loadStats(path string) (map[string]league.TeamStatistics, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading team stats: %w", err)
	}
	var stats map[string]league.TeamStatistics
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, "", fmt.Errorf("decoding team stats %s: %w", path, err)
	}
	if len(stats) == 0 {
		return nil, "", errors.New("team stats snapshot is empty")
	}
	for name, s := range stats {
		s.Team = name
		stats[name] = s
	}
	return stats, Digest(data), nil
}

// Manifest records which statistics snapshot a training dataset was built
// from. prepare writes it last; train refuses a dataset it does not describe.
type Manifest struct {
	StatsDigest   string    `json:"stats_digest"`
	DatasetDigest string    `json:"dataset_digest"`
	Matches       int       `json:"matches"`
	Teams         int       `json:"teams"`
	Rows          int       `json:"rows"`
	CreatedAt     time.Time `json:"created_at"`
}

func SaveManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return model.WriteFileAtomic(path, data)
}

func LoadManifest(path string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("reading manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decoding manifest %s: %w", path, err)
	}
	if m.StatsDigest == "" || m.DatasetDigest == "" {
		return m, fmt.Errorf("manifest %s is missing digests", path)
	}
	return m, nil
}

// LoadDataset returns the training dataset bytes after checking them, and the
// stats file next to them, against the manifest. The returned digest is the
// stats digest a model trained on the dataset must carry.
func LoadDataset(p Paths) ([]byte, string, error) {
	m, err := LoadManifest(p.Manifest())
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(p.Dataset())
	if err != nil {
		return nil, "", fmt.Errorf("reading dataset: %w", err)
	}
	if got := Digest(data); got != m.DatasetDigest {
		return nil, "", fmt.Errorf("dataset %s is %s, manifest expects %s", p.Dataset(), short(got), short(m.DatasetDigest))
	}
	_, statsDigest, err := loadStats(p.Stats())
	if err != nil {
		return nil, "", err
	}
	if statsDigest != m.StatsDigest {
		return nil, "", fmt.Errorf("team stats are %s, manifest expects %s", short(statsDigest), short(m.StatsDigest))
	}
	return data, m.StatsDigest, nil
}

// Load reads the statistics snapshot and model bundle as one pair. A bundle
// trained on a different snapshot yields *StaleModelError.
func Load(p Paths) (map[string]league.TeamStatistics, *model.Bundle, error) {
	stats, digest, err := loadStats(p.Stats())
	if err != nil {
		return nil, nil, err
	}
	bundle, err := model.Load(p.Model())
	if err != nil {
		return nil, nil, err
	}
	if bundle.Meta.StatsDigest != digest {
		return nil, nil, &StaleModelError{StatsDigest: digest, ModelDigest: bundle.Meta.StatsDigest}
	}
	return stats, bundle, nil
}

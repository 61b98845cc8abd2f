// Package predict answers "who wins" queries against one immutable
// (statistics, model) snapshot that can be swapped atomically.
package predict

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/utakatalp/match-predictor/internal/features"
	"github.com/utakatalp/match-predictor/internal/league"
	"github.com/utakatalp/match-predictor/internal/model"
)

// Model is the trained classifier capability the service depends on.
type Model interface {
	Transform(v features.Vector) []float64
	PredictProba(scaled []float64) []float64
	Classes() []string
	FeatureNames() []string
	Metadata() model.Metadata
}

// ValidationError is a request problem reported back to the caller.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

type snapshot struct {
	stats    map[string]league.TeamStatistics
	model    Model
	teams    []string
	table    []*league.TableEntry
	loadedAt time.Time
}

// Service is safe for concurrent use. Reads never lock; Reload replaces the
// whole snapshot with one pointer store.
type Service struct {
	snap   atomic.Pointer[snapshot]
	logger *zap.Logger
}

// New checks the model against the compiled feature schema and class labels
// and returns a service serving the pair. A mismatch in either is a
// *features.ContractMismatchError.
func New(stats map[string]league.TeamStatistics, m Model, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{logger: logger}
	snap, err := newSnapshot(stats, m)
	if err != nil {
		return nil, err
	}
	s.snap.Store(snap)
	return s, nil
}

func newSnapshot(stats map[string]league.TeamStatistics, m Model) (*snapshot, error) {
	if m == nil {
		return nil, errors.New("no model supplied")
	}
	if err := features.CheckContract(m.Metadata().SchemaVersion, m.FeatureNames()); err != nil {
		return nil, err
	}
	if err := features.CheckClasses(m.Classes()); err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		return nil, errors.New("statistics snapshot is empty")
	}

	owned := make(map[string]league.TeamStatistics, len(stats))
	teams := make([]string, 0, len(stats))
	for name, st := range stats {
		owned[name] = st
		teams = append(teams, name)
	}
	sort.Strings(teams)

	return &snapshot{
		stats:    owned,
		model:    m,
		teams:    teams,
		table:    league.Standings(owned),
		loadedAt: time.Now(),
	}, nil
}

// Reload swaps in a new statistics snapshot and model together. On error the
// current pair keeps serving.
func (s *Service) Reload(stats map[string]league.TeamStatistics, m Model) error {
	snap, err := newSnapshot(stats, m)
	if err != nil {
		s.logger.Error("reload rejected", zap.Error(err))
		return err
	}
	old := s.snap.Swap(snap)
	s.logger.Info("snapshot reloaded",
		zap.Int("teams", len(snap.teams)),
		zap.String("model_type", m.Metadata().ModelType),
		zap.Time("previous_loaded_at", old.loadedAt))
	return nil
}

// Prediction is the answer for one pairing.
type Prediction struct {
	Prediction     string        `json:"prediction"`
	Probabilities  Probabilities `json:"probabilities"`
	HomeTeam       string        `json:"home_team"`
	AwayTeam       string        `json:"away_team"`
	ModelInfo      ModelInfo     `json:"model_info"`
	TeamComparison Comparison    `json:"team_comparison"`
}

// Probabilities are percentages with one decimal that add up to 100.
type Probabilities struct {
	HomeWin float64 `json:"home_win"`
	Draw    float64 `json:"draw"`
	AwayWin float64 `json:"away_win"`
}

type ModelInfo struct {
	Type     string  `json:"type"`
	Accuracy float64 `json:"accuracy"`
}

type Comparison struct {
	HomePPG      float64 `json:"home_ppg"`
	AwayPPG      float64 `json:"away_ppg"`
	HomeGoalsAvg float64 `json:"home_goals_avg"`
	AwayGoalsAvg float64 `json:"away_goals_avg"`
	HomeWinRate  float64 `json:"home_win_rate"`
	AwayWinRate  float64 `json:"away_win_rate"`
}

// Predict validates the pairing and runs the model on it. Validation failures
// return *ValidationError and never reach the model.
func (s *Service) Predict(homeTeam, awayTeam string) (*Prediction, error) {
	snap := s.snap.Load()

	homeTeam, awayTeam = strings.TrimSpace(homeTeam), strings.TrimSpace(awayTeam)
	if homeTeam == "" || awayTeam == "" {
		return nil, &ValidationError{Msg: "Please select both teams"}
	}
	if homeTeam == awayTeam {
		return nil, &ValidationError{Msg: "Home and away teams must be different"}
	}
	home, ok := snap.stats[homeTeam]
	if !ok {
		return nil, &ValidationError{Msg: fmt.Sprintf("Unknown team selected: %s", homeTeam)}
	}
	away, ok := snap.stats[awayTeam]
	if !ok {
		return nil, &ValidationError{Msg: fmt.Sprintf("Unknown team selected: %s", awayTeam)}
	}

	x := features.Build(home, away)
	probs := snap.model.PredictProba(snap.model.Transform(x))
	if len(probs) != len(features.Classes) {
		return nil, fmt.Errorf("model returned %d probabilities, want %d", len(probs), len(features.Classes))
	}
	for k, p := range probs {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			s.logger.Error("model returned an invalid probability",
				zap.String("home_team", homeTeam),
				zap.String("away_team", awayTeam),
				zap.String("class", features.Classes[k]),
				zap.Float64("p", p))
			return nil, fmt.Errorf("model returned probability %v for %s", p, features.Classes[k])
		}
	}
	best := model.Argmax(probs)
	pct := percentages(probs)
	meta := snap.model.Metadata()

	return &Prediction{
		Prediction: snap.model.Classes()[best],
		Probabilities: Probabilities{
			HomeWin: pct[0],
			Draw:    pct[1],
			AwayWin: pct[2],
		},
		HomeTeam: homeTeam,
		AwayTeam: awayTeam,
		ModelInfo: ModelInfo{
			Type:     meta.ModelType,
			Accuracy: round(meta.Accuracy*100, 1),
		},
		TeamComparison: Comparison{
			HomePPG:      round(home.PointsPerGame, 2),
			AwayPPG:      round(away.PointsPerGame, 2),
			HomeGoalsAvg: round(home.AvgGoalsScored, 2),
			AwayGoalsAvg: round(away.AvgGoalsScored, 2),
			HomeWinRate:  round(home.WinRate*100, 1),
			AwayWinRate:  round(away.WinRate*100, 1),
		},
	}, nil
}

// Teams lists the teams of the current snapshot in name order.
func (s *Service) Teams() []string {
	return append([]string(nil), s.snap.Load().teams...)
}

// TeamStats returns the current statistics of one team.
func (s *Service) TeamStats(name string) (league.TeamStatistics, bool) {
	st, ok := s.snap.Load().stats[strings.TrimSpace(name)]
	return st, ok
}

// Table returns the league table of the current snapshot.
func (s *Service) Table() []*league.TableEntry {
	return s.snap.Load().table
}

// ModelInfo returns the metadata of the current model.
func (s *Service) ModelInfo() model.Metadata {
	return s.snap.Load().model.Metadata()
}

// LoadedAt reports when the current snapshot was installed.
func (s *Service) LoadedAt() time.Time {
	return s.snap.Load().loadedAt
}

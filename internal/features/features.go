// Package features owns the matchup feature schema. Build is the only place a
// feature vector is assembled; dataset generation and live prediction both call it.
package features

import (
	"fmt"

	"github.com/utakatalp/match-predictor/internal/league"
)

// SchemaVersion changes whenever Names changes. Stored datasets and models
// built under another version have to be regenerated.
const SchemaVersion = "v1"

// Len is the number of features in a Vector.
const Len = 23

// Names is the authoritative feature order.
var Names = [Len]string{
	"home_win_rate",
	"home_draw_rate",
	"home_avg_goals_scored",
	"home_avg_goals_conceded",
	"home_goal_diff",
	"home_ppg",
	"home_home_win_rate",
	"home_shots_avg",
	"home_sot_avg",
	"away_win_rate",
	"away_draw_rate",
	"away_avg_goals_scored",
	"away_avg_goals_conceded",
	"away_goal_diff",
	"away_ppg",
	"away_away_win_rate",
	"away_shots_avg",
	"away_sot_avg",
	"win_rate_diff",
	"ppg_diff",
	"goal_diff_diff",
	"attack_vs_defense",
	"defense_vs_attack",
}

// Vector is a matchup encoded in Names order.
type Vector [Len]float64

// Build encodes a home/away pairing. It is pure and never fails.
func Build(home, away league.TeamStatistics) Vector {
	return Vector{
		home.WinRate,
		home.DrawRate,
		home.AvgGoalsScored,
		home.AvgGoalsConceded,
		home.GoalDifference,
		home.PointsPerGame,
		home.HomeWinRate,
		home.ShotsAvg,
		home.ShotsOnTargetAvg,

		away.WinRate,
		away.DrawRate,
		away.AvgGoalsScored,
		away.AvgGoalsConceded,
		away.GoalDifference,
		away.PointsPerGame,
		away.AwayWinRate,
		away.ShotsAvg,
		away.ShotsOnTargetAvg,

		home.WinRate - away.WinRate,
		home.PointsPerGame - away.PointsPerGame,
		home.GoalDifference - away.GoalDifference,
		home.AvgGoalsScored - away.AvgGoalsConceded,
		away.AvgGoalsScored - home.AvgGoalsConceded,
	}
}

// Slice returns a copy of the vector as a slice.
func (v Vector) Slice() []float64 {
	out := make([]float64, Len)
	copy(out, v[:])
	return out
}

// Named maps each feature name to its value.
func (v Vector) Named() map[string]float64 {
	out := make(map[string]float64, Len)
	for i, name := range Names {
		out[name] = v[i]
	}
	return out
}

// NameList returns Names as a fresh slice, suitable for persisting.
func NameList() []string {
	out := make([]string, Len)
	copy(out, Names[:])
	return out
}

// ContractMismatchError reports a stored schema that does not match the one
// compiled into this binary.
type ContractMismatchError struct {
	GotVersion string // set when the stored schema version differs
	Index      int    // first differing position, -1 when lengths or versions differ
	Got        string
	Want       string
	GotLen     int
	Expected   int
	Labels     bool // the mismatch is in the outcome labels, not the features
}

func (e *ContractMismatchError) Error() string {
	switch {
	case e.Labels && e.Index < 0:
		return fmt.Sprintf("feature contract mismatch: got %d class labels, schema %s has %d",
			e.GotLen, SchemaVersion, e.Expected)
	case e.Labels:
		return fmt.Sprintf("feature contract mismatch at class %d: got %q, schema %s has %q",
			e.Index, e.Got, SchemaVersion, e.Want)
	case e.GotVersion != "":
		return fmt.Sprintf("feature contract mismatch: stored schema %s, binary has %s",
			e.GotVersion, SchemaVersion)
	case e.Index < 0:
		return fmt.Sprintf("feature contract mismatch: got %d features, schema %s has %d",
			e.GotLen, SchemaVersion, e.Expected)
	}
	return fmt.Sprintf("feature contract mismatch at position %d: got %q, schema %s has %q",
		e.Index, e.Got, SchemaVersion, e.Want)
}

// CheckNames verifies that names equals Names in length and order.
func CheckNames(names []string) error {
	if len(names) != Len {
		return &ContractMismatchError{Index: -1, GotLen: len(names), Expected: Len}
	}
	for i, name := range names {
		if name != Names[i] {
			return &ContractMismatchError{Index: i, Got: name, Want: Names[i], GotLen: len(names), Expected: Len}
		}
	}
	return nil
}

// CheckContract verifies a persisted schema version together with its names.
func CheckContract(version string, names []string) error {
	if version != SchemaVersion {
		if version == "" {
			version = "(none)"
		}
		return &ContractMismatchError{GotVersion: version, Index: -1, GotLen: len(names), Expected: Len}
	}
	return CheckNames(names)
}

// CheckClasses verifies that classes equals Classes in length and order, so
// probability k always means the same outcome.
func CheckClasses(classes []string) error {
	if len(classes) != len(Classes) {
		return &ContractMismatchError{Index: -1, GotLen: len(classes), Expected: len(Classes), Labels: true}
	}
	for i, c := range classes {
		if c != Classes[i] {
			return &ContractMismatchError{Index: i, Got: c, Want: Classes[i], GotLen: len(classes), Expected: len(Classes), Labels: true}
		}
	}
	return nil
}

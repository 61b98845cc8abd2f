package league

import "fmt"

// Result is the full-time result code of a match relative to the venue.
type Result string

const (
	HomeWin Result = "H"
	Draw    Result = "D"
	AwayWin Result = "A"
)

// ParseResult maps a raw result code onto a Result. Unknown codes are rejected.
func ParseResult(code string) (Result, error) {
	switch r := Result(code); r {
	case HomeWin, Draw, AwayWin:
		return r, nil
	}
	return "", &DataError{Field: "result", Value: code, Reason: "result code must be one of H, D, A"}
}

// MatchRecord is one finished fixture. Records are values and are never mutated
// after ingestion.
type MatchRecord struct {
	Season    string `json:"season"`
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	HomeGoals int    `json:"home_goals"`
	AwayGoals int    `json:"away_goals"`
	Result    Result `json:"result"`

	HomeShots         int `json:"home_shots"`
	AwayShots         int `json:"away_shots"`
	HomeShotsOnTarget int `json:"home_shots_on_target"`
	AwayShotsOnTarget int `json:"away_shots_on_target"`
}

func (m MatchRecord) ScoreLine() string {
	return fmt.Sprintf("%s %d - %d %s",
		m.HomeTeam, m.HomeGoals,
		m.AwayGoals, m.AwayTeam,
	)
}

// Validate reports the first problem that makes the record unusable.
func (m MatchRecord) Validate() error {
	switch {
	case m.HomeTeam == "":
		return &DataError{Field: "home_team", Reason: "missing team name"}
	case m.AwayTeam == "":
		return &DataError{Field: "away_team", Reason: "missing team name"}
	case m.HomeTeam == m.AwayTeam:
		return &DataError{Field: "away_team", Value: m.AwayTeam, Reason: "team cannot play itself"}
	}
	if _, err := ParseResult(string(m.Result)); err != nil {
		return err
	}
	counts := []struct {
		field string
		value int
	}{
		{"home_goals", m.HomeGoals},
		{"away_goals", m.AwayGoals},
		{"home_shots", m.HomeShots},
		{"away_shots", m.AwayShots},
		{"home_shots_on_target", m.HomeShotsOnTarget},
		{"away_shots_on_target", m.AwayShotsOnTarget},
	}
	for _, c := range counts {
		if c.value < 0 {
			return &DataError{Field: c.field, Value: fmt.Sprint(c.value), Reason: "count cannot be negative"}
		}
	}
	return nil
}

// DataError describes a malformed match record.
type DataError struct {
	Row    int // 1-based source row, 0 when unknown
	Field  string
	Value  string
	Reason string
}

func (e *DataError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %s %q: %s", e.Row, e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Reason)
}

// TeamStatistics holds the aggregate performance of one team over a match snapshot.
type TeamStatistics struct {
	Team       string `json:"team"`
	HomeGames  int    `json:"home_games"`
	AwayGames  int    `json:"away_games"`
	TotalGames int    `json:"total_games"`

	Wins         int `json:"wins"`
	Draws        int `json:"draws"`
	Losses       int `json:"losses"`
	GoalsFor     int `json:"goals_for"`
	GoalsAgainst int `json:"goals_against"`
	Points       int `json:"points"`

	WinRate          float64 `json:"win_rate"`
	DrawRate         float64 `json:"draw_rate"`
	LossRate         float64 `json:"loss_rate"`
	AvgGoalsScored   float64 `json:"avg_goals_scored"`
	AvgGoalsConceded float64 `json:"avg_goals_conceded"`
	GoalDifference   float64 `json:"goal_difference"`
	PointsPerGame    float64 `json:"points_per_game"`
	HomeWinRate      float64 `json:"home_win_rate"`
	AwayWinRate      float64 `json:"away_win_rate"`
	HomeGoalsAvg     float64 `json:"home_goals_avg"`
	AwayGoalsAvg     float64 `json:"away_goals_avg"`
	ShotsAvg         float64 `json:"shots_avg"`
	ShotsOnTargetAvg float64 `json:"shots_on_target_avg"`
}

// TableEntry holds the standings info for one team.
type TableEntry struct {
	Position      int     `json:"position"`
	Team          string  `json:"team"`
	Played        int     `json:"played"`
	Wins          int     `json:"wins"`
	Draws         int     `json:"draws"`
	Losses        int     `json:"losses"`
	GoalsFor      int     `json:"goals_for"`
	GoalsAgainst  int     `json:"goals_against"`
	GoalDiff      int     `json:"goal_diff"`
	Points        int     `json:"points"`
	PointsPerGame float64 `json:"points_per_game"`
}

package features

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utakatalp/match-predictor/internal/league"
)

func homeStats() league.TeamStatistics {
	return league.TeamStatistics{
		Team:             "Arsenal",
		WinRate:          0.6,
		DrawRate:         0.2,
		AvgGoalsScored:   2.1,
		AvgGoalsConceded: 0.8,
		GoalDifference:   1.3,
		PointsPerGame:    2.0,
		HomeWinRate:      0.75,
		AwayWinRate:      0.45,
		ShotsAvg:         16.2,
		ShotsOnTargetAvg: 6.1,
	}
}

func awayStats() league.TeamStatistics {
	return league.TeamStatistics{
		Team:             "Chelsea",
		WinRate:          0.4,
		DrawRate:         0.3,
		AvgGoalsScored:   1.5,
		AvgGoalsConceded: 1.2,
		GoalDifference:   0.3,
		PointsPerGame:    1.5,
		HomeWinRate:      0.5,
		AwayWinRate:      0.3,
		ShotsAvg:         13.4,
		ShotsOnTargetAvg: 4.9,
	}
}

func TestBuild_FieldOrder(t *testing.T) {
	v := Build(homeStats(), awayStats()).Named()

	assert.Equal(t, 0.6, v["home_win_rate"])
	assert.Equal(t, 0.75, v["home_home_win_rate"])
	assert.Equal(t, 6.1, v["home_sot_avg"])
	assert.Equal(t, 0.4, v["away_win_rate"])
	assert.Equal(t, 0.3, v["away_away_win_rate"], "away side uses the away-venue win rate")
	assert.Equal(t, 13.4, v["away_shots_avg"])
	assert.InDelta(t, 0.2, v["win_rate_diff"], 1e-12)
	assert.InDelta(t, 0.5, v["ppg_diff"], 1e-12)
	assert.InDelta(t, 1.0, v["goal_diff_diff"], 1e-12)
	assert.InDelta(t, 0.9, v["attack_vs_defense"], 1e-12)
	assert.InDelta(t, 0.7, v["defense_vs_attack"], 1e-12)
}

func TestBuild_Deterministic(t *testing.T) {
	a := Build(homeStats(), awayStats())
	b := Build(homeStats(), awayStats())
	assert.Equal(t, a, b)
	assert.Len(t, a.Slice(), Len)
}

func TestBuild_ZeroStatistics(t *testing.T) {
	v := Build(league.TeamStatistics{}, league.TeamStatistics{})
	assert.Equal(t, Vector{}, v)
}

func TestBuild_AgreesWithAggregatedHistory(t *testing.T) {
	records := []league.MatchRecord{
		{HomeTeam: "Arsenal", AwayTeam: "Chelsea", HomeGoals: 2, AwayGoals: 0, Result: league.HomeWin, HomeShots: 14, AwayShots: 9, HomeShotsOnTarget: 6, AwayShotsOnTarget: 2},
		{HomeTeam: "Chelsea", AwayTeam: "Arsenal", HomeGoals: 1, AwayGoals: 1, Result: league.Draw, HomeShots: 11, AwayShots: 12, HomeShotsOnTarget: 4, AwayShotsOnTarget: 5},
	}
	stats, err := league.Aggregate(records)
	require.NoError(t, err)

	v := Build(stats["Arsenal"], stats["Chelsea"]).Named()
	assert.InDelta(t, 0.5, v["home_win_rate"], 1e-12)
	assert.InDelta(t, 1.5, v["home_avg_goals_scored"], 1e-12)
	assert.InDelta(t, 0.0, v["away_away_win_rate"], 1e-12)
	assert.InDelta(t, 1.5, v["ppg_diff"], 1e-12)
}

func TestNames_Unique(t *testing.T) {
	seen := map[string]bool{}
	for _, n := range Names {
		assert.False(t, seen[n], n)
		seen[n] = true
	}
	assert.Equal(t, Names[:], NameList())
}

func TestCheckNames(t *testing.T) {
	require.NoError(t, CheckNames(NameList()))

	short := NameList()[:Len-1]
	err := CheckNames(short)
	var cm *ContractMismatchError
	require.ErrorAs(t, err, &cm)
	assert.Equal(t, -1, cm.Index)
	assert.Equal(t, Len-1, cm.GotLen)

	swapped := NameList()
	swapped[3], swapped[4] = swapped[4], swapped[3]
	err = CheckNames(swapped)
	require.ErrorAs(t, err, &cm)
	assert.Equal(t, 3, cm.Index)
	assert.Equal(t, "home_goal_diff", cm.Got)
	assert.Contains(t, err.Error(), "position 3")
}

func TestCheckContract(t *testing.T) {
	require.NoError(t, CheckContract(SchemaVersion, NameList()))

	err := CheckContract("v0", NameList())
	var cm *ContractMismatchError
	require.ErrorAs(t, err, &cm)
	assert.Equal(t, "v0", cm.GotVersion)
	assert.Contains(t, err.Error(), "stored schema v0")

	err = CheckContract(SchemaVersion, append(NameList(), "extra"))
	require.ErrorAs(t, err, &cm)
	assert.Equal(t, Len+1, cm.GotLen)
}

func TestCheckClasses(t *testing.T) {
	require.NoError(t, CheckClasses([]string{"Home Win", "Draw", "Away Win"}))

	err := CheckClasses([]string{"Away Win", "Draw", "Home Win"})
	var cm *ContractMismatchError
	require.ErrorAs(t, err, &cm)
	assert.True(t, cm.Labels)
	assert.Equal(t, 0, cm.Index)
	assert.Equal(t, "Away Win", cm.Got)
	assert.Contains(t, err.Error(), "at class 0")

	err = CheckClasses([]string{"Home Win", "Away Win"})
	require.ErrorAs(t, err, &cm)
	assert.Equal(t, -1, cm.Index)
	assert.Contains(t, err.Error(), "got 2 class labels")
}

func TestDataset_CSVRoundTripKeepsSchema(t *testing.T) {
	records := []league.MatchRecord{
		{HomeTeam: "Arsenal", AwayTeam: "Chelsea", HomeGoals: 2, AwayGoals: 0, Result: league.HomeWin},
		{HomeTeam: "Chelsea", AwayTeam: "Arsenal", HomeGoals: 1, AwayGoals: 1, Result: league.Draw},
		{HomeTeam: "Chelsea", AwayTeam: "Everton", HomeGoals: 0, AwayGoals: 1, Result: league.AwayWin},
	}
	stats, err := league.Aggregate(records[:2])
	require.NoError(t, err)

	rows, skipped, err := BuildDataset(records, stats)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, rows, 2)
	assert.Equal(t, Build(stats["Arsenal"], stats["Chelsea"]), rows[0].X)
	assert.Equal(t, 0, rows[0].Label)
	assert.Equal(t, 1, rows[1].Label)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))
	assert.True(t, strings.HasPrefix(buf.String(), "home_win_rate,home_draw_rate,"))

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, rows, back)
}

func TestReadCSV_RejectsForeignHeader(t *testing.T) {
	names := NameList()
	names[0], names[1] = names[1], names[0]
	input := strings.Join(append(names, "result"), ",") + "\n"

	_, err := ReadCSV(strings.NewReader(input))
	var cm *ContractMismatchError
	require.ErrorAs(t, err, &cm)
	assert.Equal(t, 0, cm.Index)
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestLabel(t *testing.T) {
	for i, r := range []league.Result{league.HomeWin, league.Draw, league.AwayWin} {
		got, err := Label(r)
		require.NoError(t, err)
		assert.Equal(t, i, got)
	}
	_, err := Label("Z")
	assert.Error(t, err)
}

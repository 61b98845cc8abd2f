// internal/league/logic.go
package league

import (
	"errors"
	"fmt"
	"io"
	"sort"
)

// tally is the integer accumulator for one team. Only counts are summed while
// walking the records, so the reduction does not depend on record order.
type tally struct {
	homeGames, awayGames int
	homeWins, awayWins   int
	homeDraws, awayDraws int

	homeGoalsFor, awayGoalsFor int
	goalsAgainst               int
	shots, shotsOnTarget       int
}

// Aggregate reduces a match snapshot into one TeamStatistics per team that
// appears at either venue. Every record must pass Validate; the first invalid
// record aborts the reduction with its *DataError.
func Aggregate(records []MatchRecord) (map[string]TeamStatistics, error) {
	tallies := make(map[string]*tally)
	get := func(team string) *tally {
		t, ok := tallies[team]
		if !ok {
			t = &tally{}
			tallies[team] = t
		}
		return t
	}

	for i, m := range records {
		if err := m.Validate(); err != nil {
			var de *DataError
			if errors.As(err, &de) && de.Row == 0 {
				de.Row = i + 1
			}
			return nil, fmt.Errorf("aggregating %s: %w", m.ScoreLine(), err)
		}
		home, away := get(m.HomeTeam), get(m.AwayTeam)

		home.homeGames++
		away.awayGames++

		// Goals and shots
		home.homeGoalsFor += m.HomeGoals
		home.goalsAgainst += m.AwayGoals
		away.awayGoalsFor += m.AwayGoals
		away.goalsAgainst += m.HomeGoals
		home.shots += m.HomeShots
		home.shotsOnTarget += m.HomeShotsOnTarget
		away.shots += m.AwayShots
		away.shotsOnTarget += m.AwayShotsOnTarget

		// Result relative to venue
		switch m.Result {
		case HomeWin:
			home.homeWins++
		case AwayWin:
			away.awayWins++
		case Draw:
			home.homeDraws++
			away.awayDraws++
		}
	}

	stats := make(map[string]TeamStatistics, len(tallies))
	for team, t := range tallies {
		stats[team] = t.statistics(team)
	}
	return stats, nil
}

func (t *tally) statistics(team string) TeamStatistics {
	games := t.homeGames + t.awayGames
	wins := t.homeWins + t.awayWins
	draws := t.homeDraws + t.awayDraws
	losses := games - wins - draws
	goalsFor := t.homeGoalsFor + t.awayGoalsFor
	points := 3*wins + draws

	return TeamStatistics{
		Team:         team,
		HomeGames:    t.homeGames,
		AwayGames:    t.awayGames,
		TotalGames:   games,
		Wins:         wins,
		Draws:        draws,
		Losses:       losses,
		GoalsFor:     goalsFor,
		GoalsAgainst: t.goalsAgainst,
		Points:       points,

		WinRate:          perGame(wins, games),
		DrawRate:         perGame(draws, games),
		LossRate:         perGame(losses, games),
		AvgGoalsScored:   perGame(goalsFor, games),
		AvgGoalsConceded: perGame(t.goalsAgainst, games),
		GoalDifference:   perGame(goalsFor-t.goalsAgainst, games),
		PointsPerGame:    perGame(points, games),
		HomeWinRate:      perGame(t.homeWins, t.homeGames),
		AwayWinRate:      perGame(t.awayWins, t.awayGames),
		HomeGoalsAvg:     perGame(t.homeGoalsFor, t.homeGames),
		AwayGoalsAvg:     perGame(t.awayGoalsFor, t.awayGames),
		ShotsAvg:         perGame(t.shots, games),
		ShotsOnTargetAvg: perGame(t.shotsOnTarget, games),
	}
}

// perGame divides by max(games, 1) so a team without games reports 0.
func perGame(n, games int) float64 {
	return float64(n) / float64(max(games, 1))
}

// Standings turns a statistics snapshot into a sorted league table.
func Standings(stats map[string]TeamStatistics) []*TableEntry {
	entries := tableEntries(stats)

	// Sort
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		return tieBreak(a, b)
	})
	return numbered(entries)
}

// RankByPointsPerGame orders teams by points per game, so clubs with fewer
// recorded seasons are not pushed down by raw totals.
func RankByPointsPerGame(stats map[string]TeamStatistics) []*TableEntry {
	entries := tableEntries(stats)
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.PointsPerGame != b.PointsPerGame {
			return a.PointsPerGame > b.PointsPerGame
		}
		return tieBreak(a, b)
	})
	return numbered(entries)
}

func tableEntries(stats map[string]TeamStatistics) []*TableEntry {
	entries := make([]*TableEntry, 0, len(stats))
	for _, s := range stats {
		entries = append(entries, &TableEntry{
			Team:          s.Team,
			Played:        s.TotalGames,
			Wins:          s.Wins,
			Draws:         s.Draws,
			Losses:        s.Losses,
			GoalsFor:      s.GoalsFor,
			GoalsAgainst:  s.GoalsAgainst,
			GoalDiff:      s.GoalsFor - s.GoalsAgainst,
			Points:        s.Points,
			PointsPerGame: s.PointsPerGame,
		})
	}
	return entries
}

// tieBreak orders by goal difference, goals for, then name.
func tieBreak(a, b *TableEntry) bool {
	if a.GoalDiff != b.GoalDiff {
		return a.GoalDiff > b.GoalDiff
	}
	if a.GoalsFor != b.GoalsFor {
		return a.GoalsFor > b.GoalsFor
	}
	return a.Team < b.Team
}

func numbered(entries []*TableEntry) []*TableEntry {
	for i, e := range entries {
		e.Position = i + 1
	}
	return entries
}

func PrintTable(w io.Writer, label string, table []*TableEntry) {
	fmt.Fprintln(w, label)
	fmt.Fprintf(w, "%-20s %3s %3s %3s %3s %4s %4s %4s %4s %5s",
		"Team", "P", "W", "D", "L", "GF", "GA", "GD", "Pts", "PPG")
	for _, entry := range table {
		fmt.Fprintf(w, "\n%-20s %3d %3d %3d %3d %4d %4d %4d %4d %5.2f",
			entry.Team,
			entry.Played,
			entry.Wins,
			entry.Draws,
			entry.Losses,
			entry.GoalsFor,
			entry.GoalsAgainst,
			entry.GoalDiff,
			entry.Points,
			entry.PointsPerGame,
		)
	}
	fmt.Fprintln(w)
}

package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utakatalp/match-predictor/internal/features"
	"github.com/utakatalp/match-predictor/internal/league"
	"github.com/utakatalp/match-predictor/internal/model"
)

func TestStats_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), StatsFile)
	stats := map[string]league.TeamStatistics{
		"Arsenal": {Team: "Arsenal", TotalGames: 38, PointsPerGame: 2.34},
		"Everton": {Team: "wrong", TotalGames: 38, PointsPerGame: 1.05},
	}
	digest, err := SaveStats(path, stats)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Digest(data), digest)
	assert.Len(t, digest, 64)

	got, err := LoadStats(path)
	require.NoError(t, err)
	assert.Equal(t, stats["Arsenal"], got["Arsenal"])
	assert.Equal(t, "Everton", got["Everton"].Team)
}

func TestLoadStats_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), StatsFile)
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	_, err := LoadStats(path)
	assert.Error(t, err)
}

func trainTiny(t *testing.T) *model.Bundle {
	t.Helper()
	var x features.Vector
	rows := []features.Row{{X: x, Label: 0}, {X: x, Label: 1}, {X: x, Label: 2}}
	b, _, err := model.Train(rows, model.Config{Options: model.TrainOptions{Iterations: 5}})
	require.NoError(t, err)
	return b
}

func TestLoad_ContractMismatch(t *testing.T) {
	p := Paths{Dir: t.TempDir()}
	digest, err := SaveStats(p.Stats(), map[string]league.TeamStatistics{"Arsenal": {Team: "Arsenal"}})
	require.NoError(t, err)

	b := trainTiny(t)
	b.Meta.StatsDigest = digest
	b.Meta.FeatureNames[3], b.Meta.FeatureNames[4] = b.Meta.FeatureNames[4], b.Meta.FeatureNames[3]
	require.NoError(t, b.Save(p.Model()))

	_, _, err = Load(p)
	var cm *features.ContractMismatchError
	require.ErrorAs(t, err, &cm)
	assert.Equal(t, 3, cm.Index)
}

func TestLoad_Pair(t *testing.T) {
	p := Paths{Dir: t.TempDir()}
	digest, err := SaveStats(p.Stats(), map[string]league.TeamStatistics{"Arsenal": {Team: "Arsenal"}})
	require.NoError(t, err)
	b := trainTiny(t)
	b.Meta.StatsDigest = digest
	require.NoError(t, b.Save(p.Model()))

	stats, got, err := Load(p)
	require.NoError(t, err)
	assert.Contains(t, stats, "Arsenal")
	assert.Equal(t, digest, got.Meta.StatsDigest)
}

func TestLoad_StatsRewrittenUnderModel(t *testing.T) {
	p := Paths{Dir: t.TempDir()}
	digest, err := SaveStats(p.Stats(), map[string]league.TeamStatistics{
		"Arsenal": {Team: "Arsenal"},
		"Chelsea": {Team: "Chelsea"},
	})
	require.NoError(t, err)
	b := trainTiny(t)
	b.Meta.StatsDigest = digest
	require.NoError(t, b.Save(p.Model()))

	// new stats land while model.json is left over from the old snapshot
	newDigest, err := SaveStats(p.Stats(), map[string]league.TeamStatistics{
		"Leeds":   {Team: "Leeds"},
		"Burnley": {Team: "Burnley"},
	})
	require.NoError(t, err)

	_, _, err = Load(p)
	var stale *StaleModelError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, digest, stale.ModelDigest)
	assert.Equal(t, newDigest, stale.StatsDigest)
}

func TestLoad_ModelWithoutDigest(t *testing.T) {
	p := Paths{Dir: t.TempDir()}
	_, err := SaveStats(p.Stats(), map[string]league.TeamStatistics{"Arsenal": {Team: "Arsenal"}})
	require.NoError(t, err)
	require.NoError(t, trainTiny(t).Save(p.Model()))

	_, _, err = Load(p)
	var stale *StaleModelError
	require.ErrorAs(t, err, &stale)
	assert.Empty(t, stale.ModelDigest)
	assert.Contains(t, err.Error(), "no stats digest")
}

func writeDataset(t *testing.T, p Paths) Manifest {
	t.Helper()
	digest, err := SaveStats(p.Stats(), map[string]league.TeamStatistics{"Arsenal": {Team: "Arsenal"}})
	require.NoError(t, err)
	data := []byte("header\n1,2,3\n")
	require.NoError(t, os.WriteFile(p.Dataset(), data, 0o644))
	m := Manifest{StatsDigest: digest, DatasetDigest: Digest(data), Rows: 1, Teams: 1}
	require.NoError(t, SaveManifest(p.Manifest(), m))
	return m
}

func TestLoadDataset(t *testing.T) {
	p := Paths{Dir: t.TempDir()}
	m := writeDataset(t, p)

	data, digest, err := LoadDataset(p)
	require.NoError(t, err)
	assert.Equal(t, "header\n1,2,3\n", string(data))
	assert.Equal(t, m.StatsDigest, digest)
}

func TestLoadDataset_Mismatch(t *testing.T) {
	t.Run("stats replaced", func(t *testing.T) {
		p := Paths{Dir: t.TempDir()}
		writeDataset(t, p)
		_, err := SaveStats(p.Stats(), map[string]league.TeamStatistics{"Leeds": {Team: "Leeds"}})
		require.NoError(t, err)

		_, _, err = LoadDataset(p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "team stats")
	})
	t.Run("dataset replaced", func(t *testing.T) {
		p := Paths{Dir: t.TempDir()}
		writeDataset(t, p)
		require.NoError(t, os.WriteFile(p.Dataset(), []byte("other\n"), 0o644))

		_, _, err := LoadDataset(p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dataset")
	})
	t.Run("no manifest", func(t *testing.T) {
		_, _, err := LoadDataset(Paths{Dir: t.TempDir()})
		assert.Error(t, err)
	})
}

func TestPaths(t *testing.T) {
	p := Paths{Dir: "models"}
	assert.Equal(t, filepath.Join("models", "team_stats.json"), p.Stats())
	assert.Equal(t, filepath.Join("models", "model.json"), p.Model())
	assert.Equal(t, filepath.Join("models", "training_data.csv"), p.Dataset())
	assert.Equal(t, filepath.Join("models", "manifest.json"), p.Manifest())
}

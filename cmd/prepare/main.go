package main

import (
	"bytes"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/utakatalp/match-predictor/internal/artifacts"
	"github.com/utakatalp/match-predictor/internal/config"
	"github.com/utakatalp/match-predictor/internal/features"
	"github.com/utakatalp/match-predictor/internal/ingest"
	"github.com/utakatalp/match-predictor/internal/league"
	"github.com/utakatalp/match-predictor/internal/logger"
	"github.com/utakatalp/match-predictor/internal/model"
	"github.com/utakatalp/match-predictor/internal/store"
)

// prepare turns the match history into team_stats.json, training_data.csv and
// the manifest.json binding the two.
// History comes from the CSV data dir, or from Postgres when db.dsn is set and
// db.save is false. With db.save the CSV seasons are also written to Postgres.
func main() {
	cfg, err := config.Load(os.Getenv("MP_CONFIG"))
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.Log, "prepare")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	records := loadHistory(cfg, log)

	stats, err := league.Aggregate(records)
	if err != nil {
		log.Fatal("aggregating statistics failed", zap.Error(err))
	}
	league.PrintTable(os.Stdout, "Rankings by points per game", league.RankByPointsPerGame(stats))

	rows, skipped, err := features.BuildDataset(records, stats)
	if err != nil {
		log.Fatal("building dataset failed", zap.Error(err))
	}

	paths := artifacts.Paths{Dir: cfg.Artifacts.Dir}
	if err := os.MkdirAll(paths.Dir, 0o755); err != nil {
		log.Fatal("creating artifacts dir failed", zap.String("dir", paths.Dir), zap.Error(err))
	}
	statsDigest, err := artifacts.SaveStats(paths.Stats(), stats)
	if err != nil {
		log.Fatal("saving team stats failed", zap.Error(err))
	}
	var buf bytes.Buffer
	if err := features.WriteCSV(&buf, rows); err != nil {
		log.Fatal("encoding dataset failed", zap.Error(err))
	}
	if err := model.WriteFileAtomic(paths.Dataset(), buf.Bytes()); err != nil {
		log.Fatal("saving dataset failed", zap.Error(err))
	}
	// written last: train only trusts a dataset the manifest describes
	if err := artifacts.SaveManifest(paths.Manifest(), artifacts.Manifest{
		StatsDigest:   statsDigest,
		DatasetDigest: artifacts.Digest(buf.Bytes()),
		Matches:       len(records),
		Teams:         len(stats),
		Rows:          len(rows),
		CreatedAt:     time.Now().UTC(),
	}); err != nil {
		log.Fatal("saving manifest failed", zap.Error(err))
	}

	log.Info("prepare done",
		zap.Int("matches", len(records)),
		zap.Int("teams", len(stats)),
		zap.Int("rows", len(rows)),
		zap.Int("skipped", skipped),
		zap.Int("features", features.Len),
		zap.String("stats_digest", statsDigest),
		zap.String("dir", paths.Dir))
	log.Info("team stats changed, run train so the server can load the new pair", zap.String("model", paths.Model()))
}

func loadHistory(cfg config.Config, log *zap.Logger) []league.MatchRecord {
	var st *store.Store
	if cfg.DB.DSN != "" {
		var err error
		if st, err = store.NewStore(cfg.DB.DSN); err != nil {
			log.Fatal("db open failed", zap.Error(err))
		}
		defer st.Close()
		if err := st.Migrate(); err != nil {
			log.Fatal("migrate failed", zap.Error(err))
		}
		if !cfg.DB.Save {
			records, err := st.LoadMatches("")
			if err != nil {
				log.Fatal("loading matches from db failed", zap.Error(err))
			}
			log.Info("history loaded from db", zap.Int("matches", len(records)))
			return records
		}
	}

	records, rep, err := ingest.NewLoader(log).LoadDir(cfg.Data.Dir)
	if err != nil {
		log.Fatal("loading season files failed", zap.String("dir", cfg.Data.Dir), zap.Error(err))
	}
	log.Info("history loaded from csv",
		zap.Int("files", rep.Files),
		zap.Int("rows", rep.Rows),
		zap.Int("skipped", rep.Skipped))

	if st != nil {
		for _, season := range seasonsOf(records) {
			if err := st.ReplaceSeason(season, filterSeason(records, season)); err != nil {
				log.Fatal("saving season failed", zap.String("season", season), zap.Error(err))
			}
		}
		log.Info("history saved to db", zap.Int("matches", len(records)))
	}
	return records
}

func seasonsOf(records []league.MatchRecord) []string {
	seen := make(map[string]bool)
	var seasons []string
	for _, r := range records {
		if !seen[r.Season] {
			seen[r.Season] = true
			seasons = append(seasons, r.Season)
		}
	}
	return seasons
}

func filterSeason(records []league.MatchRecord, season string) []league.MatchRecord {
	var out []league.MatchRecord
	for _, r := range records {
		if r.Season == season {
			out = append(out, r)
		}
	}
	return out
}

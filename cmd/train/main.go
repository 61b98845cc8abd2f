package main

import (
	"bytes"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/utakatalp/match-predictor/internal/artifacts"
	"github.com/utakatalp/match-predictor/internal/config"
	"github.com/utakatalp/match-predictor/internal/features"
	"github.com/utakatalp/match-predictor/internal/logger"
	"github.com/utakatalp/match-predictor/internal/model"
)

// train fits the classifier on training_data.csv and writes model.json, bound
// to the team_stats.json the dataset was built from.
func main() {
	cfg, err := config.Load(os.Getenv("MP_CONFIG"))
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.Log, "train")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	paths := artifacts.Paths{Dir: cfg.Artifacts.Dir}
	data, statsDigest, err := artifacts.LoadDataset(paths)
	if err != nil {
		log.Fatal("dataset does not match its manifest, rerun prepare", zap.Error(err))
	}
	rows, err := features.ReadCSV(bytes.NewReader(data))
	if err != nil {
		log.Fatal("reading dataset failed", zap.String("path", paths.Dataset()), zap.Error(err))
	}

	bundle, rep, err := model.Train(rows, model.Config{
		TestFraction: cfg.Train.TestFraction,
		Seed:         cfg.Train.Seed,
		Options: model.TrainOptions{
			Iterations:   cfg.Train.Iterations,
			LearningRate: cfg.Train.LearningRate,
			L2:           cfg.Train.L2,
		},
	})
	if err != nil {
		log.Fatal("training failed", zap.Error(err))
	}
	bundle.Meta.StatsDigest = statsDigest
	if err := bundle.Save(paths.Model()); err != nil {
		log.Fatal("saving model failed", zap.Error(err))
	}

	log.Info("model trained",
		zap.String("model_type", bundle.Meta.ModelType),
		zap.Int("train_samples", rep.TrainSamples),
		zap.Int("test_samples", rep.TestSamples),
		zap.Float64("accuracy", rep.Accuracy),
		zap.String("stats_digest", statsDigest),
		zap.String("path", paths.Model()))

	fmt.Printf("%-10s", "actual")
	for _, c := range features.Classes {
		fmt.Printf(" %9s", c)
	}
	fmt.Println()
	for i, row := range rep.Confusion {
		fmt.Printf("%-10s", features.Classes[i])
		for _, n := range row {
			fmt.Printf(" %9d", n)
		}
		fmt.Println()
	}
}

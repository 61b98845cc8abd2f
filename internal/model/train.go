package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/utakatalp/match-predictor/internal/features"
)

// Config drives a full training run.
type Config struct {
	TestFraction float64
	Seed         int64
	Options      TrainOptions
}

// Report carries the evaluation of a training run.
type Report struct {
	TrainSamples int
	TestSamples  int
	Accuracy     float64
	Confusion    [][]int // rows are actual classes, columns predicted
}

// Train splits rows, fits the scaler on the training partition, trains the
// classifier and evaluates it on the held-out partition.
func Train(rows []features.Row, cfg Config) (*Bundle, Report, error) {
	var rep Report
	if len(rows) == 0 {
		return nil, rep, errors.New("train: empty dataset")
	}
	if cfg.TestFraction < 0 || cfg.TestFraction >= 1 {
		return nil, rep, fmt.Errorf("train: test fraction %v outside [0,1)", cfg.TestFraction)
	}

	trainRows, testRows := StratifiedSplit(rows, cfg.TestFraction, cfg.Seed)
	if len(trainRows) == 0 {
		return nil, rep, errors.New("train: no rows left for the training partition")
	}
	Xtrain, ytrain := matrix(trainRows)

	scaler, err := FitScaler(Xtrain)
	if err != nil {
		return nil, rep, fmt.Errorf("train: %w", err)
	}
	clf, err := TrainSoftmax(scaler.TransformAll(Xtrain), ytrain, len(features.Classes), cfg.Options)
	if err != nil {
		return nil, rep, err
	}

	b := &Bundle{
		Meta: Metadata{
			ModelType:        ModelType,
			SchemaVersion:    features.SchemaVersion,
			NTrainingSamples: len(trainRows),
			NTestSamples:     len(testRows),
			FeatureNames:     features.NameList(),
			Classes:          append([]string(nil), features.Classes...),
			TrainedAt:        time.Now().UTC(),
		},
		Scaler:     scaler,
		Classifier: clf,
	}

	evalRows := testRows
	if len(evalRows) == 0 {
		evalRows = trainRows
	}
	rep = b.Evaluate(evalRows)
	rep.TrainSamples = len(trainRows)
	rep.TestSamples = len(testRows)
	b.Meta.Accuracy = rep.Accuracy
	return b, rep, nil
}

// Evaluate scores the bundle on labelled rows.
func (b *Bundle) Evaluate(rows []features.Row) Report {
	k := len(b.Meta.Classes)
	rep := Report{Confusion: make([][]int, k)}
	for i := range rep.Confusion {
		rep.Confusion[i] = make([]int, k)
	}
	if len(rows) == 0 {
		return rep
	}
	correct := 0
	for _, r := range rows {
		pred := Argmax(b.PredictProba(b.Transform(r.X)))
		rep.Confusion[r.Label][pred]++
		if pred == r.Label {
			correct++
		}
	}
	rep.Accuracy = float64(correct) / float64(len(rows))
	return rep
}

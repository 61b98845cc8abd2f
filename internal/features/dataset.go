package features

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/utakatalp/match-predictor/internal/league"
)

// Classes are the outcome labels in class-index order.
var Classes = []string{"Home Win", "Draw", "Away Win"}

const resultColumn = "result"

// Label returns the class index of a match result.
func Label(r league.Result) (int, error) {
	switch r {
	case league.HomeWin:
		return 0, nil
	case league.Draw:
		return 1, nil
	case league.AwayWin:
		return 2, nil
	}
	return -1, &league.DataError{Field: "result", Value: string(r), Reason: "no class for result code"}
}

// Row is one labelled training example.
type Row struct {
	X     Vector
	Label int
}

// BuildDataset encodes every historical match with Build, using the
// statistics snapshot for both sides. Matches whose teams are missing from
// stats are skipped and counted.
func BuildDataset(records []league.MatchRecord, stats map[string]league.TeamStatistics) (rows []Row, skipped int, err error) {
	rows = make([]Row, 0, len(records))
	for i, m := range records {
		home, okHome := stats[m.HomeTeam]
		away, okAway := stats[m.AwayTeam]
		if !okHome || !okAway {
			skipped++
			continue
		}
		label, err := Label(m.Result)
		if err != nil {
			return nil, skipped, fmt.Errorf("labelling match %d (%s): %w", i+1, m.ScoreLine(), err)
		}
		rows = append(rows, Row{X: Build(home, away), Label: label})
	}
	return rows, skipped, nil
}

// WriteCSV writes rows with a header of Names followed by the result column.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	header := append(NameList(), resultColumn)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing dataset header: %w", err)
	}
	record := make([]string, Len+1)
	for _, r := range rows {
		for i, v := range r.X {
			record[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		record[Len] = strconv.Itoa(r.Label)
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing dataset row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a dataset written by WriteCSV. The header must match the
// compiled schema exactly or a *ContractMismatchError is returned.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("reading dataset: empty file")
		}
		return nil, fmt.Errorf("reading dataset header: %w", err)
	}
	if len(header) == 0 || header[len(header)-1] != resultColumn {
		return nil, fmt.Errorf("reading dataset header: last column must be %q", resultColumn)
	}
	if err := CheckNames(header[:len(header)-1]); err != nil {
		return nil, err
	}

	var rows []Row
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading dataset line %d: %w", line, err)
		}
		var row Row
		for i := 0; i < Len; i++ {
			v, err := strconv.ParseFloat(record[i], 64)
			if err != nil {
				return nil, fmt.Errorf("dataset line %d, column %s: %w", line, Names[i], err)
			}
			row.X[i] = v
		}
		label, err := strconv.Atoi(record[Len])
		if err != nil || label < 0 || label >= len(Classes) {
			return nil, fmt.Errorf("dataset line %d: invalid label %q", line, record[Len])
		}
		row.Label = label
		rows = append(rows, row)
	}
	return rows, nil
}

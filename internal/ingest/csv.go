// Package ingest turns football-data.co.uk season files into validated match records.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/utakatalp/match-predictor/internal/league"
)

// Columns every season file has to provide.
var Columns = []string{"HomeTeam", "AwayTeam", "FTHG", "FTAG", "FTR", "HS", "AS", "HST", "AST"}

// DefaultNameMap folds the long club names used by some seasons onto the short form.
var DefaultNameMap = map[string]string{
	"Manchester City":         "Man City",
	"Manchester United":       "Man United",
	"Man Utd":                 "Man United",
	"Newcastle United":        "Newcastle",
	"Wolverhampton":           "Wolves",
	"Wolverhampton Wanderers": "Wolves",
	"West Ham United":         "West Ham",
	"Nottingham Forest":       "Nottm Forest",
	"Nott'm Forest":           "Nottm Forest",
	"Leicester City":          "Leicester",
	"Ipswich Town":            "Ipswich",
	"Tottenham Hotspur":       "Tottenham",
}

// Report summarizes one ingestion run.
type Report struct {
	Files   int
	Rows    int
	Skipped int
}

// Loader reads season CSVs. A nil Logger disables logging.
type Loader struct {
	Logger  *zap.Logger
	NameMap map[string]string
}

func NewLoader(logger *zap.Logger) *Loader {
	return &Loader{Logger: logger, NameMap: DefaultNameMap}
}

// LoadDir reads every *.csv file in dir in name order. The season label is the
// file name without extension and without an "E0_" prefix.
func (l *Loader) LoadDir(dir string) ([]league.MatchRecord, Report, error) {
	var rep Report
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, rep, fmt.Errorf("listing %s: %w", dir, err)
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, rep, fmt.Errorf("no season files in %s", dir)
	}

	var all []league.MatchRecord
	for _, p := range paths {
		season := strings.TrimPrefix(strings.TrimSuffix(filepath.Base(p), ".csv"), "E0_")
		f, err := os.Open(p)
		if err != nil {
			return nil, rep, fmt.Errorf("opening %s: %w", p, err)
		}
		records, fileRep, err := l.ReadSeason(f, season)
		f.Close()
		if err != nil {
			return nil, rep, fmt.Errorf("reading %s: %w", p, err)
		}
		rep.Files++
		rep.Rows += fileRep.Rows
		rep.Skipped += fileRep.Skipped
		all = append(all, records...)
		l.info("season loaded",
			zap.String("season", season),
			zap.Int("matches", len(records)),
			zap.Int("skipped", fileRep.Skipped))
	}
	return all, rep, nil
}

// ReadSeason parses one season file. Rows with a blank required cell are
// skipped. A row with an unknown result code or a non-numeric count fails the
// whole file with a *league.DataError.
func (l *Loader) ReadSeason(r io.Reader, season string) ([]league.MatchRecord, Report, error) {
	var rep Report
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, rep, fmt.Errorf("reading header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = i
	}
	for _, col := range Columns {
		if _, ok := idx[col]; !ok {
			return nil, rep, fmt.Errorf("missing column %s", col)
		}
	}

	var records []league.MatchRecord
	for row := 2; ; row++ {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, rep, fmt.Errorf("row %d: %w", row, err)
		}
		rep.Rows++

		get := func(col string) string {
			i := idx[col]
			if i >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[i])
		}
		if blank(get) {
			rep.Skipped++
			continue
		}

		m, err := l.parseRow(get, season)
		if err != nil {
			var de *league.DataError
			if errors.As(err, &de) {
				de.Row = row
			}
			return nil, rep, err
		}
		records = append(records, m)
	}
	return records, rep, nil
}

func blank(get func(string) string) bool {
	for _, col := range Columns {
		if get(col) == "" {
			return true
		}
	}
	return false
}

func (l *Loader) parseRow(get func(string) string, season string) (league.MatchRecord, error) {
	res, err := league.ParseResult(get("FTR"))
	if err != nil {
		return league.MatchRecord{}, err
	}
	counts := make(map[string]int, 6)
	for _, col := range []string{"FTHG", "FTAG", "HS", "AS", "HST", "AST"} {
		n, err := parseCount(get(col))
		if err != nil {
			return league.MatchRecord{}, &league.DataError{Field: col, Value: get(col), Reason: "not a whole number"}
		}
		counts[col] = n
	}

	m := league.MatchRecord{
		Season:            season,
		HomeTeam:          l.normalize(get("HomeTeam")),
		AwayTeam:          l.normalize(get("AwayTeam")),
		HomeGoals:         counts["FTHG"],
		AwayGoals:         counts["FTAG"],
		Result:            res,
		HomeShots:         counts["HS"],
		AwayShots:         counts["AS"],
		HomeShotsOnTarget: counts["HST"],
		AwayShotsOnTarget: counts["AST"],
	}
	if err := m.Validate(); err != nil {
		return league.MatchRecord{}, err
	}
	return m, nil
}

// parseCount accepts "3" and the "3.0" form pandas writes for float columns.
func parseCount(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("not a whole number: %q", s)
	}
	return int(f), nil
}

func (l *Loader) normalize(name string) string {
	if short, ok := l.NameMap[name]; ok {
		return short
	}
	return name
}

func (l *Loader) info(msg string, fields ...zap.Field) {
	if l.Logger != nil {
		l.Logger.Info(msg, fields...)
	}
}

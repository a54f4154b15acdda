package result

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"boundedvote/pkg/log"
	"boundedvote/pkg/metrics"

	"golang.org/x/xerrors"
)

// Writer is responsible for creating and writing result files.
type Writer struct {
	resultsPath string
	hwName      string
	runs        uint64
	voters      uint64
	now         func() time.Time
}

// NewWriter creates a new writer for result files.
func NewWriter(resultsPath string, hwName string, runs, voters uint64) *Writer {
	return &Writer{
		resultsPath: resultsPath,
		hwName:      hwName,
		runs:        runs,
		voters:      voters,
		now:         time.Now,
	}
}

// WriteAllResults writes the raw per-run measurements and the per-component
// statistics. It returns the paths of both files.
func (w *Writer) WriteAllResults(analysis metrics.AnalysisResult) (rawPath, statsPath string, err error) {
	if err := os.MkdirAll(w.resultsPath, 0755); err != nil {
		return "", "", xerrors.Errorf("could not create results directory %s: %w", w.resultsPath, err)
	}

	rawPath = w.generateFilename("RAW")
	if err := writeCSV(rawPath, rawRows(analysis)); err != nil {
		return "", "", xerrors.Errorf("failed to write raw results: %w", err)
	}
	log.Info("Raw results written to %s", rawPath)

	statsPath = w.generateFilename("STATS")
	if err := writeCSV(statsPath, statRows(analysis)); err != nil {
		return "", "", xerrors.Errorf("failed to write statistical results: %w", err)
	}
	log.Info("Statistical results written to %s", statsPath)
	return rawPath, statsPath, nil
}

// generateFilename creates a standardized filename for a result file.
// Example: RAW_CDisk_R10_V100_T2026-01-02-15-04-05.csv
func (w *Writer) generateFilename(fileType string) string {
	timestamp := w.now().Format("2006-01-02-15-04-05")
	base := fmt.Sprintf("%s_C%s_R%d_V%d_T%s.csv", fileType, w.hwName, w.runs, w.voters, timestamp)
	return filepath.Join(w.resultsPath, base)
}

var (
	rawHeader  = []string{"Run", "Measurement", "Type", "Depth", "WallClock_us", "UserTime_us", "SystemTime_us"}
	statHeader = []string{"Component", "Metric", "Clock", "Count", "Mean_us", "Median_us", "P95_us", "Min_us", "Max_us"}
)

// rawRows flattens every recorded tree. Nested measurements are named by
// their slash-separated unique path.
func rawRows(analysis metrics.AnalysisResult) [][]string {
	rows := [][]string{rawHeader}
	for run, rec := range analysis.Recorders {
		var walk func(m *metrics.Measurement, prefix string)
		walk = func(m *metrics.Measurement, prefix string) {
			path := m.UniqueName
			if prefix != "" {
				path = prefix + "/" + m.UniqueName
			}
			rows = append(rows, []string{
				strconv.Itoa(run + 1),
				path,
				m.Type.String(),
				strconv.Itoa(m.Depth),
				us(m.Inclusive.WallClock),
				us(m.Inclusive.UserTime),
				us(m.Inclusive.SystemTime),
			})
			for _, child := range m.Children {
				walk(child, path)
			}
		}
		for _, root := range rec.RootMeasurements() {
			walk(root, "")
		}
	}
	return rows
}

func statRows(analysis metrics.AnalysisResult) [][]string {
	rows := [][]string{statHeader}
	for _, name := range analysis.ComponentNames() {
		comp := analysis.Components[name]
		metricNames := make([]string, 0, len(comp.Summaries))
		for metric := range comp.Summaries {
			metricNames = append(metricNames, metric)
		}
		sort.Strings(metricNames)

		for _, metric := range metricNames {
			s := comp.Summaries[metric]
			for _, clock := range []struct {
				name    string
				summary metrics.StatSummary
			}{
				{"WallClock", s.WallClock},
				{"UserTime", s.User},
				{"SystemTime", s.System},
			} {
				rows = append(rows, []string{
					name, metric, clock.name,
					strconv.Itoa(clock.summary.Count),
					us(clock.summary.Mean),
					us(clock.summary.P50),
					us(clock.summary.P95),
					us(clock.summary.Min),
					us(clock.summary.Max),
				})
			}
		}
	}
	return rows
}

func writeCSV(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return xerrors.Errorf("could not create %s: %w", path, err)
	}
	defer file.Close()

	csvWriter := csv.NewWriter(file)
	if err := csvWriter.WriteAll(rows); err != nil {
		return xerrors.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}

func us(d time.Duration) string {
	return strconv.FormatInt(d.Microseconds(), 10)
}

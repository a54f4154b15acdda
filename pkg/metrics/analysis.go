package metrics

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Derived metric names. Besides these, every non-logic MeasurementType
// below a component shows up under its String() name.
const (
	WallClockMetric = "WallClock"
	LogicMetric     = "Logic"
)

// StatSummary holds the statistics of one series of durations.
type StatSummary struct {
	Count int
	Mean  time.Duration
	P50   time.Duration
	P95   time.Duration
	Min   time.Duration
	Max   time.Duration
}

// TimeTotalsStats summarises each clock separately.
type TimeTotalsStats struct {
	WallClock StatSummary
	User      StatSummary
	System    StatSummary
}

// ComponentResult holds the summaries of one conceptual name, keyed by derived metric.
type ComponentResult struct {
	ConceptualName string
	Summaries      map[string]TimeTotalsStats
}

// AnalysisResult is the output of Analyze.
type AnalysisResult struct {
	Components map[string]ComponentResult
	Recorders  []*Recorder // Kept for raw output.
}

// ComponentNames returns the analysed component names in sorted order.
func (a AnalysisResult) ComponentNames() []string {
	names := make([]string, 0, len(a.Components))
	for name := range a.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Analyzer aggregates the recorders of several runs.
type Analyzer struct {
	recorders []*Recorder
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

func (a *Analyzer) Add(recorder *Recorder) {
	a.recorders = append(a.recorders, recorder)
}

// series collects the raw samples of one derived metric.
type series struct {
	wall, user, system []time.Duration
}

func (s *series) append(t TimeTotals) {
	s.wall = append(s.wall, t.WallClock)
	s.user = append(s.user, t.UserTime)
	s.system = append(s.system, t.SystemTime)
}

// samples maps component name to derived metric name to series.
type samples map[string]map[string]*series

func (s samples) add(component, metric string, t TimeTotals) {
	byMetric, ok := s[component]
	if !ok {
		byMetric = make(map[string]*series)
		s[component] = byMetric
	}
	sr, ok := byMetric[metric]
	if !ok {
		sr = &series{}
		byMetric[metric] = sr
	}
	sr.append(t)
}

// Analyze walks every recorded tree. Only MLogic nodes become components;
// their Logic metric is the inclusive time minus time spent in non-logic
// descendants.
func (a *Analyzer) Analyze() AnalysisResult {
	collected := make(samples)
	for _, rec := range a.recorders {
		for _, root := range rec.RootMeasurements() {
			processNode(root, collected)
		}
	}

	result := AnalysisResult{
		Components: make(map[string]ComponentResult, len(collected)),
		Recorders:  a.recorders,
	}
	for name, byMetric := range collected {
		comp := ComponentResult{ConceptualName: name, Summaries: make(map[string]TimeTotalsStats, len(byMetric))}
		for metric, sr := range byMetric {
			comp.Summaries[metric] = TimeTotalsStats{
				WallClock: calculateStats(sr.wall),
				User:      calculateStats(sr.user),
				System:    calculateStats(sr.system),
			}
		}
		result.Components[name] = comp
	}
	return result
}

// processNode returns the time the subtree rooted at m spent per measurement type.
func processNode(m *Measurement, collected samples) map[MeasurementType]TimeTotals {
	below := make(map[MeasurementType]TimeTotals)
	for _, child := range m.Children {
		for mType, t := range processNode(child, collected) {
			cur := below[mType]
			cur.add(t)
			below[mType] = cur
		}
	}

	if m.Type == MLogic {
		collected.add(m.ConceptualName, WallClockMetric, m.Inclusive)

		var nonLogic TimeTotals
		for mType, t := range below {
			if mType == MLogic || !t.nonZero() {
				continue
			}
			nonLogic.add(t)
			collected.add(m.ConceptualName, mType.String(), t)
		}
		collected.add(m.ConceptualName, LogicMetric, TimeTotals{
			WallClock:  maxDuration(0, m.Inclusive.WallClock-nonLogic.WallClock),
			UserTime:   maxDuration(0, m.Inclusive.UserTime-nonLogic.UserTime),
			SystemTime: maxDuration(0, m.Inclusive.SystemTime-nonLogic.SystemTime),
		})
	}

	// A node's inclusive time already covers its same-type descendants.
	total := make(map[MeasurementType]TimeTotals, len(below)+1)
	for mType, t := range below {
		if mType != m.Type {
			total[mType] = t
		}
	}
	total[m.Type] = m.Inclusive
	return total
}

// calculateStats summarises durations in microseconds.
func calculateStats(durations []time.Duration) StatSummary {
	if len(durations) == 0 {
		return StatSummary{}
	}

	floats := make([]float64, len(durations))
	for i, v := range durations {
		floats[i] = float64(v.Microseconds())
	}
	sort.Float64s(floats)

	us := func(f float64) time.Duration { return time.Duration(f) * time.Microsecond }
	return StatSummary{
		Count: len(durations),
		Mean:  us(stat.Mean(floats, nil)),
		P50:   us(stat.Quantile(0.5, stat.Empirical, floats, nil)),
		P95:   us(stat.Quantile(0.95, stat.Empirical, floats, nil)),
		Min:   us(floats[0]),
		Max:   us(floats[len(floats)-1]),
	}
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}

// Package metrics records a tree of timed operations per simulation run and
// summarises them across runs.
package metrics

import (
	"fmt"
	"syscall"
	"time"

	"golang.org/x/xerrors"
)

// MeasurementType tells the analyzer how to attribute a node's time.
type MeasurementType uint

const (
	MLogic MeasurementType = iota
	MDiskRead
	MDiskWrite
)

func (mt MeasurementType) String() string {
	switch mt {
	case MLogic:
		return "Logic"
	case MDiskRead:
		return "DiskRead"
	case MDiskWrite:
		return "DiskWrite"
	default:
		return "Unknown"
	}
}

type TimeTotals struct {
	WallClock, UserTime, SystemTime time.Duration
}

func (t *TimeTotals) add(o TimeTotals) {
	t.WallClock += o.WallClock
	t.UserTime += o.UserTime
	t.SystemTime += o.SystemTime
}

func (t TimeTotals) nonZero() bool {
	return t.WallClock > 0 || t.UserTime > 0 || t.SystemTime > 0
}

// Measurement is one node of the tree. Repeated names under the same parent
// get a _<n> suffix in UniqueName.
type Measurement struct {
	ConceptualName string
	UniqueName     string
	Type           MeasurementType
	Depth          int
	Inclusive      TimeTotals
	Children       []*Measurement

	nameCounts map[string]int
	startTime  time.Time
	startSelf  syscall.Rusage
	startChild syscall.Rusage
}

// Recorder builds the measurement tree of a single run. It is not safe for
// concurrent use: record from the goroutine driving the flow.
type Recorder struct {
	roots      []*Measurement
	rootCounts map[string]int
	active     []*Measurement
}

func NewRecorder() *Recorder {
	return &Recorder{rootCounts: make(map[string]int)}
}

// Record times f as a child of the innermost active measurement. The error
// of f is returned, joined with any bookkeeping error.
func (r *Recorder) Record(conceptualName string, mType MeasurementType, f func() error) (err error) {
	if err = r.start(conceptualName, mType); err != nil {
		return xerrors.Errorf("could not start timer for '%s': %w", conceptualName, err)
	}
	defer func() {
		if stopErr := r.stop(conceptualName); stopErr != nil {
			if err != nil {
				err = xerrors.Errorf("op error for '%s' (%v) and stop error: %w", conceptualName, err, stopErr)
			} else {
				err = stopErr
			}
		}
	}()
	return f()
}

func (r *Recorder) start(conceptualName string, mType MeasurementType) error {
	counts, depth := r.rootCounts, 0
	var parent *Measurement
	if n := len(r.active); n > 0 {
		parent = r.active[n-1]
		counts, depth = parent.nameCounts, parent.Depth+1
	}

	uniqueName := conceptualName
	if seen := counts[conceptualName]; seen > 0 {
		uniqueName = fmt.Sprintf("%s_%d", conceptualName, seen)
	}
	counts[conceptualName]++

	m := &Measurement{
		ConceptualName: conceptualName,
		UniqueName:     uniqueName,
		Type:           mType,
		Depth:          depth,
		nameCounts:     make(map[string]int),
	}
	var err error
	if m.startSelf, err = getRUsage(syscall.RUSAGE_SELF); err != nil {
		return err
	}
	if m.startChild, err = getRUsage(syscall.RUSAGE_CHILDREN); err != nil {
		return err
	}

	if parent != nil {
		parent.Children = append(parent.Children, m)
	} else {
		r.roots = append(r.roots, m)
	}
	r.active = append(r.active, m)
	m.startTime = time.Now()
	return nil
}

func (r *Recorder) stop(conceptualName string) error {
	if len(r.active) == 0 {
		return xerrors.Errorf("cannot stop '%s': no active measurements", conceptualName)
	}
	m := r.active[len(r.active)-1]
	if m.ConceptualName != conceptualName {
		return xerrors.Errorf("cannot stop '%s': the active measurement is '%s'", conceptualName, m.ConceptualName)
	}

	wall := time.Since(m.startTime)
	endSelf, err := getRUsage(syscall.RUSAGE_SELF)
	if err != nil {
		return err
	}
	endChild, err := getRUsage(syscall.RUSAGE_CHILDREN)
	if err != nil {
		return err
	}
	m.Inclusive = TimeTotals{
		WallClock:  wall,
		UserTime:   rtimeDifference(m.startSelf.Utime, endSelf.Utime) + rtimeDifference(m.startChild.Utime, endChild.Utime),
		SystemTime: rtimeDifference(m.startSelf.Stime, endSelf.Stime) + rtimeDifference(m.startChild.Stime, endChild.Stime),
	}

	r.active = r.active[:len(r.active)-1]
	return nil
}

// RootMeasurements returns the top-level nodes in recording order.
func (r *Recorder) RootMeasurements() []*Measurement {
	return r.roots
}

func getRUsage(who int) (syscall.Rusage, error) {
	var rusage syscall.Rusage
	err := syscall.Getrusage(who, &rusage)
	return rusage, err
}

func rtimeDifference(start, end syscall.Timeval) time.Duration {
	return time.Duration(end.Nano() - start.Nano())
}

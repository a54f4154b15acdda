package metrics

import (
	"fmt"
	"io"
	"time"
)

// PrintTree writes the measurement tree up to maxDepth, expanding at most
// maxChildren children per node. -1 disables either limit.
func (r *Recorder) PrintTree(w io.Writer, maxDepth int, maxChildren int) {
	fmt.Fprintf(w, "--- Measurement Tree (Depth <= %d) ---\n", maxDepth)
	if maxDepth < 0 {
		maxDepth = int(^uint(0) >> 1)
	}
	if maxChildren < 0 {
		maxChildren = int(^uint(0) >> 1)
	}
	for i, root := range r.roots {
		printNode(w, root, "", i == len(r.roots)-1, maxDepth, maxChildren)
	}
}

func printNode(w io.Writer, m *Measurement, prefix string, isLast bool, maxDepth int, maxChildren int) {
	if m.Depth > maxDepth {
		return
	}

	branch, next := "├── ", "│   "
	if isLast {
		branch, next = "└── ", "    "
	}
	fmt.Fprintf(w, "%s%s%s (%s) - %s\n", prefix, branch, m.UniqueName, m.Type, m.Inclusive.WallClock.Round(time.Microsecond))
	prefix += next

	if len(m.Children) == 0 {
		return
	}
	if m.Depth >= maxDepth || len(m.Children) > maxChildren {
		fmt.Fprintf(w, "%s└── [... %d hidden ...]\n", prefix, len(m.Children))
		return
	}
	for i, child := range m.Children {
		printNode(w, child, prefix, i == len(m.Children)-1, maxDepth, maxChildren)
	}
}

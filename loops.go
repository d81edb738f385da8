package fogsim

// loops.go holds the loop latency tracker.  For each registered
// application loop the tracker watches units enter the loop's first node
// and correlated units exit its last node, recording one latency sample
// per completed traversal.  Correlation is by causal lineage, so
// concurrent in-flight instances of the same loop stay separate, and a
// unit dropped mid-path simply never completes its instance.

import (
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
)

// A LoopStats value reports the completed-traversal count and mean
// latency observed for one loop.
type LoopStats struct {
	LoopID int
	Count  int
	Mean   float64
}

// LoopTracker owns the per-loop running statistics.
type LoopTracker struct {
	loops map[int]*AppLoop

	// loop ids whose path begins / ends at the named node
	firstNode map[string][]int
	lastNode  map[string][]int

	// open loop instances: entry time by lineage, per loop
	entries map[int]map[uuid.UUID]float64

	// completed traversal latencies, per loop
	samples map[int][]float64
}

// createLoopTracker is a constructor; it indexes the loops by their
// terminal nodes so entry and exit observation are map lookups.
func createLoopTracker(loops []*AppLoop) *LoopTracker {
	lt := new(LoopTracker)
	lt.loops = make(map[int]*AppLoop)
	lt.firstNode = make(map[string][]int)
	lt.lastNode = make(map[string][]int)
	lt.entries = make(map[int]map[uuid.UUID]float64)
	lt.samples = make(map[int][]float64)

	for _, loop := range loops {
		lt.loops[loop.LoopID] = loop
		first := loop.Nodes[0]
		last := loop.Nodes[len(loop.Nodes)-1]
		lt.firstNode[first] = append(lt.firstNode[first], loop.LoopID)
		lt.lastNode[last] = append(lt.lastNode[last], loop.LoopID)
		lt.entries[loop.LoopID] = make(map[uuid.UUID]float64)
		lt.samples[loop.LoopID] = make([]float64, 0)
	}
	return lt
}

// recordEntry notes a unit entering the first node of any loop rooted at
// the named node.  The first observation of a lineage opens the instance;
// later arrivals of the same lineage do not reset it.
func (lt *LoopTracker) recordEntry(node string, lineage uuid.UUID, now float64) {
	for _, loopID := range lt.firstNode[node] {
		_, present := lt.entries[loopID][lineage]
		if !present {
			lt.entries[loopID][lineage] = now
		}
	}
}

// recordExit notes a unit arriving at the last node of any loop ending at
// the named node.  An open instance with the same lineage yields exactly
// one latency sample and is closed; an exit with no matching entry is
// ignored.
func (lt *LoopTracker) recordExit(node string, lineage uuid.UUID, now float64) {
	for _, loopID := range lt.lastNode[node] {
		entry, present := lt.entries[loopID][lineage]
		if !present {
			continue
		}
		delete(lt.entries[loopID], lineage)
		lt.samples[loopID] = append(lt.samples[loopID], now-entry)
	}
}

// Statistics returns the completed-traversal count and mean latency for
// the identified loop.  The query mutates nothing, so repeated calls
// without intervening arrivals return identical results.
func (lt *LoopTracker) Statistics(loopID int) (LoopStats, error) {
	_, present := lt.loops[loopID]
	if !present {
		return LoopStats{}, fmt.Errorf("loop %d: %w", loopID, ErrInvalidLoop)
	}

	samples := lt.samples[loopID]
	ls := LoopStats{LoopID: loopID, Count: len(samples)}
	if len(samples) > 0 {
		ls.Mean = stat.Mean(samples, nil)
	}
	return ls, nil
}

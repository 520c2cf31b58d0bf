package lineage

import (
	"fmt"
	"strings"
)

// CycleError reports a cycle discovered in the ancestry graph. The lineage
// structure is a DAG by construction, so a cycle indicates upstream data
// corruption and is never tolerated silently.
type CycleError struct {
	Path []GenerationID // the cycle, first element repeated at the end
}

func (e *CycleError) Error() string {
	parts := make([]string, 0, len(e.Path))
	for _, id := range e.Path {
		parts = append(parts, id.Short())
	}
	return fmt.Sprintf("lineage: cycle detected: %s", strings.Join(parts, " -> "))
}

// ParentFunc supplies the parent IDs of a generation during traversal.
type ParentFunc func(GenerationID) ([]GenerationID, error)

// CheckAcyclic walks the ancestry of start depth-first and returns a
// *CycleError if the graph reachable from it contains a cycle.
//
// Traversal uses 3-color marking: white = unvisited, gray = on the current
// DFS path, black = fully explored. Meeting a gray node means a cycle.
func CheckAcyclic(start GenerationID, parents ParentFunc) error {
	const (
		white = iota
		gray
		black
	)
	color := make(map[GenerationID]int)
	var stack []GenerationID

	var visit func(id GenerationID) error
	visit = func(id GenerationID) error {
		switch color[id] {
		case black:
			return nil
		case gray:
			cycle := cycleFrom(stack, id)
			return &CycleError{Path: cycle}
		}
		color[id] = gray
		stack = append(stack, id)
		pids, err := parents(id)
		if err != nil {
			return err
		}
		for _, pid := range pids {
			if err := visit(pid); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return nil
	}
	return visit(start)
}

// cycleFrom extracts the portion of the DFS stack that forms the cycle
// closing at id, with id repeated at the end.
func cycleFrom(stack []GenerationID, id GenerationID) []GenerationID {
	for i, s := range stack {
		if s == id {
			cycle := append([]GenerationID{}, stack[i:]...)
			return append(cycle, id)
		}
	}
	return []GenerationID{id, id}
}

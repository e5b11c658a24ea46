package pipeline

import (
	"container/list"
	"errors"
	"fmt"
	"strings"
)

// ProcessingQueue wraps a list-based queue for Kahn's algorithm processing.
// It holds nodes that are ready to run (in-degree of 0).
type ProcessingQueue struct {
	queue *list.List
}

// NewProcessingQueue creates a new empty processing queue.
func NewProcessingQueue() *ProcessingQueue {
	return &ProcessingQueue{queue: list.New()}
}

// InitializeQueue populates a processing queue with every system that has no
// unresolved predecessor, ordered by registration index for determinism.
func (g *Graph) InitializeQueue(inDegree map[string]int) *ProcessingQueue {
	pq := NewProcessingQueue()
	for _, id := range g.orderedSystemIDs() {
		if inDegree[id] == 0 {
			pq.Enqueue(id)
		}
	}
	return pq
}

func (g *Graph) orderedSystemIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && g.Nodes[ids[j-1]].Index > g.Nodes[ids[j]].Index; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

// Enqueue adds a node to the back of the queue.
func (pq *ProcessingQueue) Enqueue(node string) {
	pq.queue.PushBack(node)
}

// Dequeue removes and returns the node at the front of the queue.
func (pq *ProcessingQueue) Dequeue() (string, bool) {
	if pq.queue.Len() == 0 {
		return "", false
	}
	elem := pq.queue.Front()
	pq.queue.Remove(elem)
	return elem.Value.(string), true
}

// Len returns the number of nodes in the queue.
func (pq *ProcessingQueue) Len() int {
	return pq.queue.Len()
}

// IsEmpty returns true if the queue has no nodes.
func (pq *ProcessingQueue) IsEmpty() bool {
	return pq.queue.Len() == 0
}

// CalculateInDegrees computes, for each system, the number of systems that
// must run before it.
func (g *Graph) CalculateInDegrees() map[string]int {
	inDegree := make(map[string]int)
	for name := range g.Nodes {
		inDegree[name] = 0
	}
	for _, children := range g.Children {
		for _, child := range children {
			inDegree[child]++
		}
	}
	return inDegree
}

// ErrCycleDetected matches (via errors.Is) the *CycleError returned when the
// conflict graph contains a cycle, making a sequential fallback order
// impossible. Build never produces one on
// its own (conflict edges are oriented by registration index, which is a
// strict order), but a hand-assembled Graph used in tests can.
var ErrCycleDetected = errors.New("cycle detected in system conflict graph")

// CycleInfo describes why a sequential order could not be produced.
type CycleInfo struct {
	TotalNodes        int
	ProcessedNodes    int
	UnprocessedNodes  []string
	CycleParticipants []string
	CyclePath         []string
}

// CycleError reports a cycle in the conflict graph, naming the systems
// involved.
type CycleError struct {
	Info *CycleInfo
}

func (e *CycleError) Error() string {
	msg := fmt.Sprintf("cycle detected in system conflict graph: %d of %d systems could not be ordered",
		len(e.Info.UnprocessedNodes), e.Info.TotalNodes)
	if len(e.Info.CyclePath) > 0 {
		msg += fmt.Sprintf("\ncycle path: %s", strings.Join(e.Info.CyclePath, " -> "))
	}
	if len(e.Info.CycleParticipants) > 0 {
		msg += fmt.Sprintf("\nsystems in cycle: %s", strings.Join(e.Info.CycleParticipants, ", "))
	}
	return msg
}

// Unwrap lets errors.Is(err, ErrCycleDetected) recognise a *CycleError.
func (e *CycleError) Unwrap() error {
	return ErrCycleDetected
}

func (g *Graph) detectIncompleteProcessing() *CycleInfo {
	inDegree := g.CalculateInDegrees()
	queue := g.InitializeQueue(inDegree)

	processed := make(map[string]bool)
	for !queue.IsEmpty() {
		node, _ := queue.Dequeue()
		processed[node] = true
		for _, child := range g.GetChildren(node) {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue.Enqueue(child)
			}
		}
	}

	if len(processed) == len(g.Nodes) {
		return nil
	}

	var unprocessed []string
	for name := range g.Nodes {
		if !processed[name] {
			unprocessed = append(unprocessed, name)
		}
	}

	unprocessedSet := make(map[string]bool)
	for _, node := range unprocessed {
		unprocessedSet[node] = true
	}

	var cycleParticipants []string
	for _, node := range unprocessed {
		if g.canReachSelf(node, unprocessedSet) {
			cycleParticipants = append(cycleParticipants, node)
		}
	}

	var cyclePath []string
	if len(cycleParticipants) > 0 {
		cyclePath = g.findCyclePath(cycleParticipants[0], unprocessedSet)
	}

	return &CycleInfo{
		TotalNodes:        len(g.Nodes),
		ProcessedNodes:    len(processed),
		UnprocessedNodes:  unprocessed,
		CycleParticipants: cycleParticipants,
		CyclePath:         cyclePath,
	}
}

// HasCycle reports whether the conflict graph contains a cycle.
func (g *Graph) HasCycle() bool {
	return g.detectIncompleteProcessing() != nil
}

func (g *Graph) findCyclePath(start string, allowed map[string]bool) []string {
	visited := make(map[string]bool)
	path := []string{start}
	if g.dfsFindPath(start, start, visited, allowed, &path) {
		return path
	}
	return nil
}

func (g *Graph) dfsFindPath(current, target string, visited, allowed map[string]bool, path *[]string) bool {
	for _, child := range g.GetChildren(current) {
		if !allowed[child] {
			continue
		}
		if child == target {
			*path = append(*path, target)
			return true
		}
		if visited[child] {
			continue
		}
		visited[child] = true
		*path = append(*path, child)
		if g.dfsFindPath(child, target, visited, allowed, path) {
			return true
		}
		*path = (*path)[:len(*path)-1]
	}
	return false
}

func (g *Graph) canReachSelf(start string, allowed map[string]bool) bool {
	visited := make(map[string]bool)
	return g.dfsCanReach(start, start, visited, allowed, true)
}

func (g *Graph) dfsCanReach(current, target string, visited, allowed map[string]bool, isStart bool) bool {
	if current == target && !isStart {
		return true
	}
	if visited[current] || !allowed[current] {
		return false
	}
	visited[current] = true
	for _, child := range g.GetChildren(current) {
		if g.dfsCanReach(child, target, visited, allowed, false) {
			return true
		}
	}
	return false
}

// Order returns the systems in a valid sequential run order: every system
// that conflicts with another runs strictly after it in registration order.
// Returns a *CycleError if the graph contains a cycle.
func (g *Graph) Order() ([]string, error) {
	inDegree := g.CalculateInDegrees()
	queue := g.InitializeQueue(inDegree)

	var result []string
	processed := 0

	for !queue.IsEmpty() {
		node, _ := queue.Dequeue()
		result = append(result, node)
		processed++

		next := make([]string, 0, len(g.GetChildren(node)))
		next = append(next, g.GetChildren(node)...)
		for i := 1; i < len(next); i++ {
			for j := i; j > 0 && g.Nodes[next[j-1]].Index > g.Nodes[next[j]].Index; j-- {
				next[j-1], next[j] = next[j], next[j-1]
			}
		}
		for _, child := range next {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue.Enqueue(child)
			}
		}
	}

	if processed != len(g.Nodes) {
		return nil, &CycleError{Info: g.detectIncompleteProcessing()}
	}

	return result, nil
}

// Validate checks the conflict graph for cycles, failing fast before a run
// rather than discovering a contradiction mid-schedule.
func (g *Graph) Validate() error {
	if info := g.detectIncompleteProcessing(); info != nil {
		return &CycleError{Info: info}
	}
	return nil
}

// Package tools implements the capabilities agents can invoke during
// analysis: chart generation and human clarification.
package tools

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Plot is one stored chart, referenced from agent text as [PLOT:id].
type Plot struct {
	ID          string    `json:"plot_id"`
	Description string    `json:"description"`
	Agent       string    `json:"agent"`
	CreatedAt   time.Time `json:"created_at"`
	HTML        string    `json:"html"`
	DataSummary string    `json:"data_summary,omitempty"`
}

// PlotStorage collects plots for one execution. Concurrent expert nodes
// share a single storage, so access is locked.
type PlotStorage struct {
	executionID string

	mu      sync.Mutex
	plots   map[string]Plot
	order   []string
	counter int
}

// NewPlotStorage creates an empty storage scoped to one execution.
func NewPlotStorage(executionID string) *PlotStorage {
	return &PlotStorage{
		executionID: executionID,
		plots:       make(map[string]Plot),
	}
}

// GeneratePlotID mints a unique ID for a new plot from agent.
func (s *PlotStorage) GeneratePlotID(agent string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return fmt.Sprintf("%s_%d_%03d", agent, time.Now().UnixMilli(), s.counter)
}

// Store saves a plot. IDs must be unique within the execution; a duplicate
// would silently overwrite an earlier reference, so it is rejected.
func (s *PlotStorage) Store(plot Plot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if plot.ID == "" {
		return fmt.Errorf("plot id is required")
	}
	if _, exists := s.plots[plot.ID]; exists {
		return fmt.Errorf("duplicate plot id %q: each plot needs a unique id", plot.ID)
	}
	if plot.CreatedAt.IsZero() {
		plot.CreatedAt = time.Now()
	}
	s.plots[plot.ID] = plot
	s.order = append(s.order, plot.ID)
	return nil
}

// Get returns the plot with the given ID, if stored.
func (s *PlotStorage) Get(plotID string) (Plot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plot, ok := s.plots[plotID]
	return plot, ok
}

// List returns all plots in storage order.
func (s *PlotStorage) List() []Plot {
	s.mu.Lock()
	defer s.mu.Unlock()
	plots := make([]Plot, 0, len(s.order))
	for _, id := range s.order {
		plots = append(plots, s.plots[id])
	}
	return plots
}

// CountByAgent returns how many plots agent has stored so far.
func (s *PlotStorage) CountByAgent(agent string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, plot := range s.plots {
		if plot.Agent == agent {
			count++
		}
	}
	return count
}

// Agents returns the distinct agents that stored plots, sorted.
func (s *PlotStorage) Agents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	for _, plot := range s.plots {
		seen[plot.Agent] = true
	}
	agents := make([]string, 0, len(seen))
	for agent := range seen {
		agents = append(agents, agent)
	}
	sort.Strings(agents)
	return agents
}

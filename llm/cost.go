package llm

import (
	"sync"
	"time"
)

// CostAccuracy indicates reliability of a cost value.
type CostAccuracy string

const (
	// CostMeasured indicates the provider reported an exact cost.
	CostMeasured CostAccuracy = "measured"

	// CostEstimated indicates cost calculated from published pricing.
	CostEstimated CostAccuracy = "estimated"

	// CostUnavailable indicates insufficient data for cost calculation.
	CostUnavailable CostAccuracy = "unavailable"
)

// Common cost sources.
const (
	// SourceProvider indicates cost reported by the provider API.
	SourceProvider = "provider"

	// SourcePricingTable indicates cost calculated from the local pricing table.
	SourcePricingTable = "pricing_table"
)

// CostInfo contains cost details with accuracy tracking.
type CostInfo struct {
	// Amount is the cost in the specified currency.
	Amount float64 `json:"amount"`

	// Currency is the currency code (always "USD" for now).
	Currency string `json:"currency"`

	// Accuracy indicates how reliable this cost value is.
	Accuracy CostAccuracy `json:"accuracy"`

	// Source indicates where this cost came from.
	Source string `json:"source"`
}

// CostRecord tracks the cost of a single LLM request.
type CostRecord struct {
	// RequestID uniquely identifies the provider request.
	RequestID string `json:"request_id"`

	// ExecutionID is the workflow execution that made the request.
	ExecutionID string `json:"execution_id"`

	// Agent is the agent persona that made the request.
	Agent string `json:"agent"`

	// Provider is the name of the provider that handled the request.
	Provider string `json:"provider"`

	// Model is the model ID used for the request.
	Model string `json:"model"`

	// Timestamp is when the request was made.
	Timestamp time.Time `json:"timestamp"`

	// Duration is how long the request took.
	Duration time.Duration `json:"duration_ns"`

	// Usage contains token consumption information.
	Usage TokenUsage `json:"usage"`

	// Cost contains cost information with accuracy tracking.
	// nil if cost unavailable.
	Cost *CostInfo `json:"cost,omitempty"`
}

// CostAggregate contains aggregated cost and usage statistics.
type CostAggregate struct {
	TotalCost             float64
	TotalRequests         int
	TotalTokens           int
	TotalPromptTokens     int
	TotalCompletionTokens int

	// Accuracy is the overall accuracy of the aggregated cost. "estimated"
	// when records mix accuracy levels.
	Accuracy CostAccuracy
}

// CostTracker collects per-request cost records and aggregates them by agent
// and model. Safe for concurrent use.
type CostTracker struct {
	mu      sync.RWMutex
	records []CostRecord
}

// NewCostTracker creates an empty cost tracker.
func NewCostTracker() *CostTracker {
	return &CostTracker{records: make([]CostRecord, 0)}
}

// Track records a cost for an LLM request.
func (t *CostTracker) Track(record CostRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, record)
}

// Records returns a copy of all cost records.
func (t *CostTracker) Records() []CostRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	records := make([]CostRecord, len(t.records))
	copy(records, t.records)
	return records
}

// Total aggregates every record into a single summary.
func (t *CostTracker) Total() CostAggregate {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return aggregate(t.records)
}

// AggregateByAgent groups cost and usage by agent persona.
func (t *CostTracker) AggregateByAgent() map[string]CostAggregate {
	t.mu.RLock()
	defer t.mu.RUnlock()

	grouped := make(map[string][]CostRecord)
	for _, record := range t.records {
		grouped[record.Agent] = append(grouped[record.Agent], record)
	}
	aggregates := make(map[string]CostAggregate, len(grouped))
	for agent, records := range grouped {
		aggregates[agent] = aggregate(records)
	}
	return aggregates
}

// AggregateByModel groups cost and usage by model ID.
func (t *CostTracker) AggregateByModel() map[string]CostAggregate {
	t.mu.RLock()
	defer t.mu.RUnlock()

	grouped := make(map[string][]CostRecord)
	for _, record := range t.records {
		grouped[record.Model] = append(grouped[record.Model], record)
	}
	aggregates := make(map[string]CostAggregate, len(grouped))
	for model, records := range grouped {
		aggregates[model] = aggregate(records)
	}
	return aggregates
}

func aggregate(records []CostRecord) CostAggregate {
	var agg CostAggregate
	var measured, estimated, unavailable int

	for _, record := range records {
		agg.TotalRequests++
		agg.TotalTokens += record.Usage.TotalTokens
		agg.TotalPromptTokens += record.Usage.PromptTokens
		agg.TotalCompletionTokens += record.Usage.CompletionTokens

		if record.Cost == nil {
			unavailable++
			continue
		}
		agg.TotalCost += record.Cost.Amount
		switch record.Cost.Accuracy {
		case CostMeasured:
			measured++
		case CostEstimated:
			estimated++
		default:
			unavailable++
		}
	}

	total := measured + estimated + unavailable
	switch {
	case total == 0 || unavailable == total:
		agg.Accuracy = CostUnavailable
	case measured == total:
		agg.Accuracy = CostMeasured
	default:
		// Mixed accuracy collapses to estimated.
		agg.Accuracy = CostEstimated
	}
	return agg
}

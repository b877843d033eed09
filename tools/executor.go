package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/compiler"
	"github.com/risor-io/risor/modules/all"
	"github.com/risor-io/risor/object"
	"github.com/risor-io/risor/parser"
)

// scriptTimeout bounds a single chart script evaluation.
const scriptTimeout = 5 * time.Second

// ChartExecutor evaluates model-submitted chart scripts in a Risor sandbox.
// A script declares charts by calling plot(spec) with a map:
//
//	plot({
//	    "id": "weekly_load",
//	    "title": "Weekly Training Load",
//	    "type": "line",
//	    "labels": ["W1", "W2", "W3"],
//	    "series": [{"name": "acute", "values": [420, 510, 480]}],
//	})
//
// The sandbox exposes Risor's builtins plus a read-only "data" map; there is
// no filesystem or network access.
type ChartExecutor struct{}

// NewChartExecutor creates a chart script executor.
func NewChartExecutor() *ChartExecutor {
	return &ChartExecutor{}
}

// Execute runs the script and returns the chart specs it declared. Script
// errors and invalid specs come back as errors whose text is meant to be
// shown to the submitting model for self-correction.
func (e *ChartExecutor) Execute(ctx context.Context, script string, data map[string]any) ([]ChartSpec, error) {
	if script == "" {
		return nil, fmt.Errorf("script is empty: provide Risor code that calls plot(spec) with your chart definition")
	}

	collector := &specCollector{}
	globals := map[string]any{
		"plot": object.NewBuiltin("plot", collector.collect),
		"data": data,
	}
	for name, builtin := range all.Builtins() {
		globals[name] = builtin
	}

	ast, err := parser.Parse(ctx, script)
	if err != nil {
		return nil, fmt.Errorf("script has a syntax error: %v; fix the syntax and submit again", err)
	}
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}
	sort.Strings(globalNames)

	code, err := compiler.Compile(ast, compiler.WithGlobalNames(globalNames))
	if err != nil {
		return nil, fmt.Errorf("script failed to compile: %v", err)
	}

	evalCtx, cancel := context.WithTimeout(ctx, scriptTimeout)
	defer cancel()
	if _, err := risor.EvalCode(evalCtx, code, risor.WithGlobals(globals)); err != nil {
		return nil, fmt.Errorf("script failed: %v; check variable names and that values are numeric", err)
	}

	specs := collector.specs()
	if len(specs) == 0 {
		return nil, fmt.Errorf("script completed without calling plot(spec): every chart script must call plot() with a map describing the chart")
	}
	for i := range specs {
		if err := specs[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid chart spec: %v", err)
		}
	}
	return specs, nil
}

// specCollector gathers plot() calls made during one evaluation.
type specCollector struct {
	mu      sync.Mutex
	results []ChartSpec
	callErr error
}

func (c *specCollector) collect(ctx context.Context, args ...object.Object) object.Object {
	if len(args) != 1 {
		return object.Errorf("plot() expects exactly one map argument")
	}
	raw, ok := toGoValue(args[0]).(map[string]any)
	if !ok {
		return object.Errorf("plot() argument must be a map with id, title, type, labels, series")
	}
	spec, err := parseChartSpec(raw)
	if err != nil {
		return object.Errorf("plot(): %s", err.Error())
	}
	c.mu.Lock()
	c.results = append(c.results, spec)
	c.mu.Unlock()
	return object.Nil
}

func (c *specCollector) specs() []ChartSpec {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results
}

func parseChartSpec(raw map[string]any) (ChartSpec, error) {
	spec := ChartSpec{
		ID:     stringField(raw, "id"),
		Title:  stringField(raw, "title"),
		Type:   stringField(raw, "type"),
		XLabel: stringField(raw, "x_label"),
		YLabel: stringField(raw, "y_label"),
	}
	if spec.Type == "" {
		spec.Type = "line"
	}
	for _, label := range listField(raw, "labels") {
		spec.Labels = append(spec.Labels, fmt.Sprintf("%v", label))
	}
	for _, rawSeries := range listField(raw, "series") {
		seriesMap, ok := rawSeries.(map[string]any)
		if !ok {
			return spec, fmt.Errorf("each entry in 'series' must be a map with 'name' and 'values'")
		}
		series := ChartSeries{
			Name:  stringField(seriesMap, "name"),
			Color: stringField(seriesMap, "color"),
		}
		for _, rawValue := range listField(seriesMap, "values") {
			value, ok := toFloat(rawValue)
			if !ok {
				return spec, fmt.Errorf("series %q contains non-numeric value %v", series.Name, rawValue)
			}
			series.Values = append(series.Values, value)
		}
		spec.Series = append(spec.Series, series)
	}
	return spec, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func listField(m map[string]any, key string) []any {
	l, _ := m[key].([]any)
	return l
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// toGoValue converts a Risor object into plain Go values.
func toGoValue(obj object.Object) any {
	switch o := obj.(type) {
	case *object.String:
		return o.Value()
	case *object.Int:
		return o.Value()
	case *object.Float:
		return o.Value()
	case *object.Bool:
		return o.Value()
	case *object.NilType:
		return nil
	case *object.List:
		var result []any
		for _, item := range o.Value() {
			result = append(result, toGoValue(item))
		}
		return result
	case *object.Map:
		result := make(map[string]any)
		for key, value := range o.Value() {
			result[key] = toGoValue(value)
		}
		return result
	default:
		return obj.Inspect()
	}
}

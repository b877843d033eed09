package llm

import "strings"

// ModelPricing holds the published per-token price for a model, expressed in
// USD per million tokens.
type ModelPricing struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// pricingTable maps model IDs to published pricing. Prices drift; entries
// missing here produce CostUnavailable rather than a wrong number.
var pricingTable = map[string]ModelPricing{
	// Anthropic
	"claude-opus-4-1":    {InputPerMTok: 15.00, OutputPerMTok: 75.00},
	"claude-sonnet-4-0":  {InputPerMTok: 3.00, OutputPerMTok: 15.00},
	"claude-3-5-haiku":   {InputPerMTok: 0.80, OutputPerMTok: 4.00},
	"claude-3-5-sonnet":  {InputPerMTok: 3.00, OutputPerMTok: 15.00},
	"claude-3-opus":      {InputPerMTok: 15.00, OutputPerMTok: 75.00},

	// OpenAI
	"gpt-4o":      {InputPerMTok: 2.50, OutputPerMTok: 10.00},
	"gpt-4o-mini": {InputPerMTok: 0.15, OutputPerMTok: 0.60},
	"o3":          {InputPerMTok: 2.00, OutputPerMTok: 8.00},
	"o4-mini":     {InputPerMTok: 1.10, OutputPerMTok: 4.40},

	// OpenRouter passthrough (provider-prefixed IDs)
	"deepseek/deepseek-chat": {InputPerMTok: 0.27, OutputPerMTok: 1.10},
	"deepseek/deepseek-r1":   {InputPerMTok: 0.55, OutputPerMTok: 2.19},
}

// LookupPricing returns pricing for a model ID. Dated model IDs
// ("claude-3-5-haiku-20241022") fall back to their undated prefix.
func LookupPricing(model string) (ModelPricing, bool) {
	if p, ok := pricingTable[model]; ok {
		return p, true
	}
	for prefix, p := range pricingTable {
		if strings.HasPrefix(model, prefix+"-") {
			return p, true
		}
	}
	return ModelPricing{}, false
}

// CalculateCost converts token usage into a CostInfo using the pricing
// table. Unknown models yield a CostUnavailable entry with a zero amount.
func CalculateCost(model string, usage TokenUsage) *CostInfo {
	pricing, ok := LookupPricing(model)
	if !ok {
		return &CostInfo{
			Currency: "USD",
			Accuracy: CostUnavailable,
			Source:   SourcePricingTable,
		}
	}
	amount := float64(usage.PromptTokens)/1e6*pricing.InputPerMTok +
		float64(usage.CompletionTokens)/1e6*pricing.OutputPerMTok
	return &CostInfo{
		Amount:   amount,
		Currency: "USD",
		Accuracy: CostEstimated,
		Source:   SourcePricingTable,
	}
}

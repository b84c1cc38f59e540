package smartrouter

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Tier is a coarse quality rating for a model. Higher is more capable.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseTier parses a tier name ("low", "medium", "high").
func ParseTier(s string) (Tier, error) {
	switch s {
	case "low":
		return TierLow, nil
	case "medium":
		return TierMedium, nil
	case "high":
		return TierHigh, nil
	default:
		return TierLow, fmt.Errorf("smartrouter: invalid tier %q", s)
	}
}

// UnmarshalYAML parses a tier from its name.
func (t *Tier) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	tier, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = tier
	return nil
}

// MarshalYAML encodes a tier as its name.
func (t Tier) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// ModelProfile describes one routable model and its price table entry.
// Prices are dollars per 1000 tokens.
type ModelProfile struct {
	ID          string  `yaml:"id"`
	Provider    string  `yaml:"provider"`
	InputPer1K  float64 `yaml:"input_per_1k"`
	OutputPer1K float64 `yaml:"output_per_1k"`
	Tier        Tier    `yaml:"tier"`
	MaxContext  int64   `yaml:"max_context"`
}

// Cost returns the dollar cost of a call with the given token counts.
func (m ModelProfile) Cost(inputTokens, outputTokens int64) float64 {
	return float64(inputTokens)/1000*m.InputPer1K + float64(outputTokens)/1000*m.OutputPer1K
}

// BlendedPrice returns an estimated price per 1K tokens for sorting.
// Assumes ~1:2 input:output cost weighting typical for chat.
func (m ModelProfile) BlendedPrice() float64 {
	return (m.InputPer1K + 2*m.OutputPer1K) / 3
}

// Catalog is the static set of routable models. It is read-only after
// construction, so lookups need no synchronization.
type Catalog struct {
	models []ModelProfile
	byID   map[string]ModelProfile
}

// NewCatalog builds a catalog from the given profiles. Model IDs must be
// unique and non-empty.
func NewCatalog(models ...ModelProfile) (*Catalog, error) {
	if len(models) == 0 {
		return nil, ErrNoAvailableModel
	}

	c := &Catalog{
		models: make([]ModelProfile, len(models)),
		byID:   make(map[string]ModelProfile, len(models)),
	}
	copy(c.models, models)

	for i, m := range c.models {
		if m.ID == "" {
			return nil, fmt.Errorf("smartrouter: catalog: models[%d]: id is required", i)
		}
		if m.Provider == "" {
			return nil, fmt.Errorf("smartrouter: catalog: models[%d] (%s): provider is required", i, m.ID)
		}
		if m.InputPer1K < 0 || m.OutputPer1K < 0 {
			return nil, fmt.Errorf("smartrouter: catalog: models[%d] (%s): prices must not be negative", i, m.ID)
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, fmt.Errorf("smartrouter: catalog: duplicate model id %q", m.ID)
		}
		c.byID[m.ID] = m
	}

	return c, nil
}

// Get returns the profile for a model ID.
func (c *Catalog) Get(id string) (ModelProfile, bool) {
	m, ok := c.byID[id]
	return m, ok
}

// Has returns true if the catalog contains the model ID.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Models returns a copy of all profiles in catalog order.
func (c *Catalog) Models() []ModelProfile {
	out := make([]ModelProfile, len(c.models))
	copy(out, c.models)
	return out
}

// Len returns the number of models in the catalog.
func (c *Catalog) Len() int {
	return len(c.models)
}

// DefaultBaselineModel is the reference model whose hypothetical cost
// defines savings unless overridden in the configuration.
const DefaultBaselineModel = "gpt-4"

// DefaultFallbackModel is the escalation target used on provider failure
// unless overridden in the configuration.
const DefaultFallbackModel = "gpt-4"

// DefaultCatalog returns the built-in price table.
func DefaultCatalog() *Catalog {
	models := []ModelProfile{
		{ID: "gpt-3.5-turbo", Provider: "openai", InputPer1K: 0.0005, OutputPer1K: 0.0015, Tier: TierLow, MaxContext: 16385},
		{ID: "gpt-4o-mini", Provider: "openai", InputPer1K: 0.00015, OutputPer1K: 0.0006, Tier: TierLow, MaxContext: 128000},
		{ID: "gpt-4", Provider: "openai", InputPer1K: 0.03, OutputPer1K: 0.06, Tier: TierHigh, MaxContext: 8192},
		{ID: "claude-3-haiku", Provider: "anthropic", InputPer1K: 0.00025, OutputPer1K: 0.00125, Tier: TierLow, MaxContext: 200000},
		{ID: "claude-3-opus", Provider: "anthropic", InputPer1K: 0.015, OutputPer1K: 0.075, Tier: TierHigh, MaxContext: 200000},
		{ID: "mistral-7b", Provider: "mistral", InputPer1K: 0.0002, OutputPer1K: 0.0002, Tier: TierLow, MaxContext: 32768},
		{ID: "gemini-pro", Provider: "google", InputPer1K: 0.00025, OutputPer1K: 0.0005, Tier: TierMedium, MaxContext: 32760},
	}

	byID := make(map[string]ModelProfile, len(models))
	for _, m := range models {
		byID[m.ID] = m
	}
	return &Catalog{models: models, byID: byID}
}

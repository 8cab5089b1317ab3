package domain

import (
	"fmt"
	"strings"
)

// Scenario is a named (drift, volatility) preset for synthetic price paths.
type Scenario struct {
	Name       string  // "neutral" | "bull" | "bear" | "high_vol"
	Drift      float64 // annualized mu
	Volatility float64 // annualized sigma
}

// Scenario name constants
const (
	ScenarioNeutral = "neutral"
	ScenarioBull    = "bull"
	ScenarioBear    = "bear"
	ScenarioHighVol = "high_vol"
)

// Predefined scenario presets.
var (
	ScenarioPresetNeutral = Scenario{Name: ScenarioNeutral, Drift: 0.08, Volatility: 0.20}
	ScenarioPresetBull    = Scenario{Name: ScenarioBull, Drift: 0.20, Volatility: 0.15}
	ScenarioPresetBear    = Scenario{Name: ScenarioBear, Drift: -0.15, Volatility: 0.30}
	ScenarioPresetHighVol = Scenario{Name: ScenarioHighVol, Drift: 0.0, Volatility: 0.50}
)

var scenarioPresets = map[string]Scenario{
	ScenarioNeutral: ScenarioPresetNeutral,
	ScenarioBull:    ScenarioPresetBull,
	ScenarioBear:    ScenarioPresetBear,
	ScenarioHighVol: ScenarioPresetHighVol,
}

// ParseScenario returns the preset for name or ErrUnknownScenario.
// Matching is case-insensitive.
func ParseScenario(name string) (Scenario, error) {
	s, ok := scenarioPresets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Scenario{}, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	return s, nil
}

// ScenarioOrNeutral returns the preset for name, falling back to neutral.
func ScenarioOrNeutral(name string) Scenario {
	s, err := ParseScenario(name)
	if err != nil {
		return ScenarioPresetNeutral
	}
	return s
}

// ScenarioNames lists preset names in a stable order.
func ScenarioNames() []string {
	return []string{ScenarioNeutral, ScenarioBull, ScenarioBear, ScenarioHighVol}
}

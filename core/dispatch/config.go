package dispatch

import "fmt"

// Regime selects the storage formulation.
type Regime string

const (
	// RegimeLossless balances SoC exactly and maximises arbitrage revenue.
	RegimeLossless Regime = "lossless"
	// RegimeEfficiency applies charge/discharge efficiencies and minimises
	// grid import.
	RegimeEfficiency Regime = "efficiency"
)

// Method selects how the efficiency regime is handed to a solver.
type Method string

const (
	// MethodSlackLP replaces max(import,0) with a non-negative slack and
	// solves the resulting linear program.
	MethodSlackLP Method = "slack-lp"
	// MethodNelderMead keeps the non-smooth objective and uses a
	// derivative-free local solver.
	MethodNelderMead Method = "nelder-mead"
)

// Config defines optimizer settings.
type Config struct {
	Regime         Regime  `json:"regime"`
	Method         Method  `json:"method"`
	SimplexTol     float64 `json:"simplex_tol"`
	Penalty        float64 `json:"penalty"`
	FeasibilityTol float64 `json:"feasibility_tol"`
	MaxIterations  int     `json:"max_iterations"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Regime == "" {
		c.Regime = RegimeLossless
	}
	if c.Method == "" {
		c.Method = MethodSlackLP
	}
}

// Validate checks the regime and method names.
func (c Config) Validate() error {
	switch c.Regime {
	case RegimeLossless, RegimeEfficiency:
	default:
		return fmt.Errorf("unknown regime %q", c.Regime)
	}
	switch c.Method {
	case MethodSlackLP, MethodNelderMead:
	default:
		return fmt.Errorf("unknown method %q", c.Method)
	}
	if c.SimplexTol < 0 || c.Penalty < 0 || c.FeasibilityTol < 0 || c.MaxIterations < 0 {
		return fmt.Errorf("solver tolerances and limits must be non-negative")
	}
	return nil
}

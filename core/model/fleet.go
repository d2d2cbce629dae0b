package model

// GenerationUnit is one dispatchable plant. MinKW may be negative for a
// bidirectional import/export slack unit.
type GenerationUnit struct {
	ID    string  `json:"id"`
	MinKW float64 `json:"min"`
	MaxKW float64 `json:"max"`
	Cost  float64 `json:"price"` // cost per unit power
}

// Validate checks the unit's bounds.
func (u GenerationUnit) Validate() error {
	if u.ID == "" {
		return configErr("fleet.unit.id", "must not be empty")
	}
	if !finite(u.MinKW) || !finite(u.MaxKW) || !finite(u.Cost) {
		return configErr("fleet."+u.ID, "bounds and cost must be finite")
	}
	if u.MinKW > u.MaxKW {
		return configErr("fleet."+u.ID, "min %v exceeds max %v", u.MinKW, u.MaxKW)
	}
	return nil
}

// ValidateFleet checks every unit and identifier uniqueness.
func ValidateFleet(units []GenerationUnit) error {
	if len(units) == 0 {
		return configErr("fleet.units", "at least one unit is required")
	}
	seen := make(map[string]struct{}, len(units))
	for _, u := range units {
		if err := u.Validate(); err != nil {
			return err
		}
		if _, ok := seen[u.ID]; ok {
			return configErr("fleet."+u.ID, "duplicate unit identifier")
		}
		seen[u.ID] = struct{}{}
	}
	return nil
}

// Weights scalarizes the load and cost objectives of a fleet dispatch.
// They are not required to sum to one.
type Weights struct {
	Load float64 `json:"load"`
	Cost float64 `json:"cost"`
}

// Validate rejects negative or non-finite weights.
func (w Weights) Validate() error {
	if !finite(w.Load) || w.Load < 0 {
		return configErr("fleet.weights.load", "must be a non-negative number")
	}
	if !finite(w.Cost) || w.Cost < 0 {
		return configErr("fleet.weights.cost", "must be a non-negative number")
	}
	return nil
}

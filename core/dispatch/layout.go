package dispatch

// StorageLayout maps per-slot decision variables onto positions of the flat
// solver vector: charge block, discharge block, then optional SoC and import
// slack blocks.
type StorageLayout struct {
	slots    int
	hasSoC   bool
	hasSlack bool
}

func (l StorageLayout) Charge(t int) int    { return t }
func (l StorageLayout) Discharge(t int) int { return l.slots + t }

func (l StorageLayout) SoC(t int) int {
	if !l.hasSoC {
		panic("dispatch: layout has no state-of-charge variables")
	}
	return 2*l.slots + t
}

func (l StorageLayout) Slack(t int) int {
	if !l.hasSlack {
		panic("dispatch: layout has no slack variables")
	}
	return 3*l.slots + t
}

func (l StorageLayout) NumVars() int {
	n := 2 * l.slots
	if l.hasSoC {
		n += l.slots
	}
	if l.hasSlack {
		n += l.slots
	}
	return n
}

// FleetLayout maps unit indices onto vector positions.
type FleetLayout struct {
	ids []string
}

func (l FleetLayout) Output(i int) int { return i }
func (l FleetLayout) NumVars() int     { return len(l.ids) }

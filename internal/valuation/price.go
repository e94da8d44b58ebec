package valuation

// PriceState tracks how the current suggested price came to be.
type PriceState string

const (
	// PriceStateComputed means the engine produced the current value.
	PriceStateComputed PriceState = "computed"
	// PriceStateEdited means the agent typed over the computed value.
	PriceStateEdited PriceState = "edited"
	// PriceStateReverted means the agent undid their edit back to the computed value.
	PriceStateReverted PriceState = "reverted"
)

// SuggestedPrice is a suggested list price that may be absent. Valid false means no
// price could be derived, which is different from a derived price of zero.
type SuggestedPrice struct {
	Value float64
	Valid bool
}

// PriceSession holds the suggested price of one CMA and arbitrates between engine
// recalculations and the agent's manual edits. A manual edit survives automatic
// recalculation; only an intentional recalculation replaces it.
type PriceSession struct {
	current  SuggestedPrice
	snapshot SuggestedPrice
	state    PriceState
}

// NewPriceSession returns a session with no price, ready to receive the first
// computed value.
func NewPriceSession() *PriceSession {
	return &PriceSession{state: PriceStateComputed}
}

// RestorePriceSession rebuilds a session from persisted fields. Nil pointers mean no
// value; an unknown or empty state restores as computed.
func RestorePriceSession(current *float64, state string, snapshot *float64) *PriceSession {
	s := &PriceSession{state: PriceStateComputed}
	switch PriceState(state) {
	case PriceStateEdited:
		s.state = PriceStateEdited
	case PriceStateReverted:
		s.state = PriceStateReverted
	}
	if current != nil {
		s.current = SuggestedPrice{Value: *current, Valid: true}
	}
	if snapshot != nil {
		s.snapshot = SuggestedPrice{Value: *snapshot, Valid: true}
	}
	return s
}

// ApplyComputed installs a freshly computed price unless the agent has edited the
// current one; an edit always wins over an automatic recalculation. It reports
// whether the value was applied.
func (s *PriceSession) ApplyComputed(p SuggestedPrice) bool {
	if s.state == PriceStateEdited {
		return false
	}
	s.current = p
	s.snapshot = SuggestedPrice{}
	s.state = PriceStateComputed
	return true
}

// ForceComputed installs a freshly computed price unconditionally, discarding any
// edit and its undo history. This is the intentional recalculation path.
func (s *PriceSession) ForceComputed(p SuggestedPrice) {
	s.current = p
	s.snapshot = SuggestedPrice{}
	s.state = PriceStateComputed
}

// Edit replaces the current price with the agent's value. The first edit after a
// computed value snapshots that value so Undo can restore it exactly; consecutive
// edits keep the original snapshot.
func (s *PriceSession) Edit(value float64) {
	if s.state != PriceStateEdited {
		s.snapshot = s.current
	}
	s.current = SuggestedPrice{Value: value, Valid: true}
	s.state = PriceStateEdited
}

// Undo restores the price that was current before the agent's edit, bit for bit. It
// reports whether anything changed: without a pending edit there is nothing to undo.
func (s *PriceSession) Undo() bool {
	if s.state != PriceStateEdited {
		return false
	}
	s.current = s.snapshot
	s.state = PriceStateReverted
	return true
}

// Current returns the price the session is showing right now.
func (s *PriceSession) Current() SuggestedPrice {
	return s.current
}

// Snapshot returns the computed price preserved by the first edit, for persistence.
func (s *PriceSession) Snapshot() SuggestedPrice {
	return s.snapshot
}

// State returns the session's current state.
func (s *PriceSession) State() PriceState {
	return s.state
}

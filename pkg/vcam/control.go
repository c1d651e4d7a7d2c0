package vcam

// ControlDescriptor describes one device control's schema: the
// preferences store only persists the current integer value, but the
// bridge and any future manager UI need the bounds to validate writes
// and render sliders. Kept even though the core broker never interprets
// control values itself.
type ControlDescriptor struct {
	ID      string
	Min     int
	Max     int
	Step    int
	Default int
}

// Clamp folds value into [Min, Max]. When Step is above 1 the offset from
// Min is first truncated to a multiple of Step (toward Min, not to the
// nearest multiple).
func (c ControlDescriptor) Clamp(value int) int {
	if c.Step > 1 {
		offset := value - c.Min
		offset -= offset % c.Step
		value = c.Min + offset
	}
	if value < c.Min {
		return c.Min
	}
	if value > c.Max {
		return c.Max
	}
	return value
}

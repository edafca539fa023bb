package animation

// TransitionState tracks an interpolated clip change.
type TransitionState int

const (
	NotTransitioning TransitionState = iota
	Transitioning
	// Interrupted is a transition that received a pause. It runs to
	// completion and the pause takes effect afterwards.
	Interrupted
)

func (s TransitionState) String() string {
	switch s {
	case Transitioning:
		return "transitioning"
	case Interrupted:
		return "interrupted"
	default:
		return "none"
	}
}

// TransitionDuration maps a summed bone rotation, in radians, to a morph
// duration in seconds. Large moves are compressed and small ones stretched
// so that neither looks rushed nor sluggish.
func TransitionDuration(magnitude float64) float64 {
	d := magnitude / 5.0
	switch {
	case d > 0.65:
		d = 0.6 + (d-0.6)/5
	case d < 0.2:
		d = 0.2 - (0.2-d)/2
	}
	return d
}

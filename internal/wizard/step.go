package wizard

import "fmt"

// Step is the wizard's current screen
type Step int

const (
	StepLocation Step = iota
	StepArtist
	StepTime
	StepSummary
)

var stepNames = [...]string{"location", "artist", "time", "summary"}

func (s Step) String() string {
	if s < StepLocation || s > StepSummary {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// Steps lists every step in wizard order
func Steps() []Step {
	return []Step{StepLocation, StepArtist, StepTime, StepSummary}
}

// ParseStep maps a step name back to its Step
func ParseStep(name string) (Step, error) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), nil
		}
	}
	return StepLocation, fmt.Errorf("unknown step %q", name)
}

// reachability holds the prerequisite of each step
var reachability = map[Step]func(State) bool{
	StepLocation: func(State) bool { return true },
	StepArtist:   func(s State) bool { return s.SelectedLocationID != "" },
	StepTime:     func(s State) bool { return s.SelectedLocationID != "" && s.SelectedArtistID != "" },
	StepSummary:  func(s State) bool { return s.LastBooking != nil },
}

// CanAccessStep reports whether navigation to target is allowed from s
func (s State) CanAccessStep(target Step) bool {
	pred, ok := reachability[target]
	return ok && pred(s)
}

package workout

const (
	mInKm  = 1000 // meters in a kilometer
	minInH = 60   // minutes in an hour

	landStep = 0.65 // stride length, m
	swimStep = 1.38 // stroke length, m
)

// Kind identifies which formula set applies to a workout.
type Kind int

const (
	Swimming Kind = iota + 1
	Running
	SportsWalking
)

// Workout codes as sent by the sensor block.
const (
	CodeSwimming      = "SWM"
	CodeRunning       = "RUN"
	CodeSportsWalking = "WLK"
)

// kindSpec is the per-kind configuration: display label, step length and the
// positional argument layout expected by Read.
type kindSpec struct {
	code  string
	label string
	step  float64
	args  []string
}

var specs = map[Kind]kindSpec{
	Swimming: {
		code:  CodeSwimming,
		label: "Swimming",
		step:  swimStep,
		args:  []string{"action", "duration", "weight", "length_pool", "count_pool"},
	},
	Running: {
		code:  CodeRunning,
		label: "Running",
		step:  landStep,
		args:  []string{"action", "duration", "weight"},
	},
	SportsWalking: {
		code:  CodeSportsWalking,
		label: "SportsWalking",
		step:  landStep,
		args:  []string{"action", "duration", "weight", "height"},
	},
}

var kindsByCode = map[string]Kind{
	CodeSwimming:      Swimming,
	CodeRunning:       Running,
	CodeSportsWalking: SportsWalking,
}

// String returns the display label of the kind.
func (k Kind) String() string {
	if s, ok := specs[k]; ok {
		return s.label
	}
	return "Unknown"
}

// Code returns the input code for the kind.
func (k Kind) Code() string {
	return specs[k].code
}

// Type describes a supported workout for listings (API, MCP).
type Type struct {
	Code  string   `json:"code"`
	Label string   `json:"label"`
	Args  []string `json:"args"`
}

// Types returns all supported workouts in code order SWM, RUN, WLK.
func Types() []Type {
	kinds := []Kind{Swimming, Running, SportsWalking}
	out := make([]Type, 0, len(kinds))
	for _, k := range kinds {
		s := specs[k]
		out = append(out, Type{Code: s.code, Label: s.label, Args: append([]string(nil), s.args...)})
	}
	return out
}

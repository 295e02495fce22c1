package workout

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUnknownCode is returned by Read for a workout code it does not recognize.
	ErrUnknownCode = errors.New("unknown workout code")
	// ErrArgCount is returned when the argument list does not match the code's layout.
	ErrArgCount = errors.New("wrong number of arguments")
	// ErrArgType is returned when a count argument is not a whole number in
	// the exactly representable range.
	ErrArgType = errors.New("argument must be a whole number")
	// ErrInvalidDuration is returned for a duration that is not positive.
	ErrInvalidDuration = errors.New("duration must be positive")
	// ErrInvalidHeight is returned for a walking height that is not positive.
	ErrInvalidHeight = errors.New("height must be positive")
)

// KindOf returns the kind registered for code.
func KindOf(code string) (Kind, error) {
	k, ok := kindsByCode[code]
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknownCode, code)
	}
	return k, nil
}

// Read builds a Training from a workout code and its positional arguments.
//
//	SWM: action, duration, weight, length_pool, count_pool
//	RUN: action, duration, weight
//	WLK: action, duration, weight, height
func Read(code string, data []float64) (*Training, error) {
	kind, err := KindOf(code)
	if err != nil {
		return nil, err
	}
	spec := specs[kind]
	if len(data) != len(spec.args) {
		return nil, fmt.Errorf("%s: %w: got %d, want %d (%v)",
			code, ErrArgCount, len(data), len(spec.args), spec.args)
	}

	action, err := wholeNumber(data[0])
	if err != nil {
		return nil, fmt.Errorf("%s: action: %w", code, err)
	}
	if !(data[1] > 0) {
		return nil, fmt.Errorf("%s: %w: %v", code, ErrInvalidDuration, data[1])
	}

	t := &Training{
		kind:     kind,
		action:   action,
		duration: data[1],
		weight:   data[2],
	}

	switch kind {
	case SportsWalking:
		if !(data[3] > 0) {
			return nil, fmt.Errorf("%s: %w: %v", code, ErrInvalidHeight, data[3])
		}
		t.height = data[3]
	case Swimming:
		count, err := wholeNumber(data[4])
		if err != nil {
			return nil, fmt.Errorf("%s: count_pool: %w", code, err)
		}
		t.lengthPool = data[3]
		t.countPool = count
	}
	return t, nil
}

// maxCount bounds count arguments to integers a float64 holds exactly.
const maxCount = 1 << 53

func wholeNumber(v float64) (int, error) {
	if math.IsNaN(v) || v != math.Trunc(v) || math.Abs(v) > maxCount {
		return 0, fmt.Errorf("%w: %v", ErrArgType, v)
	}
	return int(v), nil
}

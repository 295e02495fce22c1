package workout

import (
	"math"

	"github.com/meltforce/fittracker/internal/models"
)

const (
	runCalorieSpeedMul = 18.0
	runCalorieShift    = 20.0

	walkCalorieWeightMul = 0.035
	walkCalorieSpeedMul  = 0.029

	swimCalorieShift  = 1.1
	swimCalorieWeight = 2.0
)

// Training holds one validated sensor reading. Fields are fixed after Read;
// a Training not built by Read has no kind and summarizes to zero calories.
type Training struct {
	kind     Kind
	action   int
	duration float64
	weight   float64

	height     float64 // SportsWalking, cm
	lengthPool float64 // Swimming, m
	countPool  int     // Swimming
}

// Kind returns the workout kind.
func (t *Training) Kind() Kind { return t.kind }

// Action returns the number of steps or strokes.
func (t *Training) Action() int { return t.action }

// DurationHours returns the session length in hours.
func (t *Training) DurationHours() float64 { return t.duration }

// WeightKg returns the athlete weight in kg.
func (t *Training) WeightKg() float64 { return t.weight }

// Distance returns the distance covered in km.
func (t *Training) Distance() float64 {
	return float64(t.action) * specs[t.kind].step / mInKm
}

// MeanSpeed returns the average speed in km/h. Swimming derives it from the
// pool laps rather than from strokes.
func (t *Training) MeanSpeed() float64 {
	if t.kind == Swimming {
		return t.lengthPool * float64(t.countPool) / mInKm / t.duration
	}
	return t.Distance() / t.duration
}

// SpentCalories returns the energy burned in kcal.
func (t *Training) SpentCalories() float64 {
	switch t.kind {
	case Running:
		return (runCalorieSpeedMul*t.MeanSpeed() - runCalorieShift) *
			t.weight / mInKm * t.duration * minInH
	case SportsWalking:
		speed := t.MeanSpeed()
		return (walkCalorieWeightMul*t.weight +
			floorDiv(speed*speed, t.height)*walkCalorieSpeedMul*t.weight) *
			t.duration * minInH
	case Swimming:
		return (t.MeanSpeed() + swimCalorieShift) * swimCalorieWeight * t.weight
	}
	return 0
}

// Summary computes the training summary.
func (t *Training) Summary() models.Summary {
	return models.Summary{
		Type:     t.kind.String(),
		Duration: t.duration,
		Distance: t.Distance(),
		Speed:    t.MeanSpeed(),
		Calories: t.SpentCalories(),
	}
}

// floorDiv is floored float division: the largest whole number not above a/b,
// computed from the remainder so that a/b rounding up to an integer does not
// overshoot.
func floorDiv(a, b float64) float64 {
	mod := math.Mod(a, b)
	div := (a - mod) / b
	if mod != 0 && (b < 0) != (mod < 0) {
		div--
	}
	if div == 0 {
		return math.Copysign(0, a/b)
	}
	fl := math.Floor(div)
	if div-fl > 0.5 {
		fl++
	}
	return fl
}

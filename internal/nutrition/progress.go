package nutrition

import (
	"errors"
	"math"
)

// Progress returns value as a percentage of target, clamped to [0, 100].
// A non-positive target yields 0.
func Progress(value, target int) float64 {
	if target <= 0 {
		return 0
	}
	pct := float64(value) / float64(target) * 100
	return math.Max(0, math.Min(pct, 100))
}

// ProgressReport is the per-macro progress toward the daily targets.
type ProgressReport struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// ProgressOf computes the clamped percentage for every field.
func ProgressOf(consumed, target NutritionalData) ProgressReport {
	return ProgressReport{
		Calories: Progress(consumed.Calories, target.Calories),
		Protein:  Progress(consumed.Protein, target.Protein),
		Carbs:    Progress(consumed.Carbs, target.Carbs),
		Fat:      Progress(consumed.Fat, target.Fat),
	}
}

// ErrImplausibleBody is returned by BMI for values outside human ranges.
var ErrImplausibleBody = errors.New("height/weight out of plausible range")

// BMI computes body-mass index from height in centimeters and weight in
// kilograms.
func BMI(heightCm, weightKg float64) (float64, error) {
	if heightCm <= 0 || weightKg <= 0 {
		return 0, errors.New("height and weight must be positive")
	}
	if heightCm < 50 || heightCm > 250 || weightKg < 10 || weightKg > 400 {
		return 0, ErrImplausibleBody
	}
	h := heightCm / 100.0
	return weightKg / (h * h), nil
}

// BMICategory names the WHO band for a BMI value.
func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25.0:
		return "Normal weight"
	case bmi < 30.0:
		return "Overweight"
	case bmi < 35.0:
		return "Obesity class I"
	case bmi < 40.0:
		return "Obesity class II"
	default:
		return "Obesity class III"
	}
}

package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgress(t *testing.T) {
	assert.Equal(t, 0.0, Progress(100, 0))
	assert.Equal(t, 50.0, Progress(1000, 2000))
	assert.Equal(t, 100.0, Progress(2500, 2000))
	assert.Equal(t, 0.0, Progress(-10, 2000))
}

func TestProgressOf(t *testing.T) {
	got := ProgressOf(
		NutritionalData{Calories: 500, Protein: 100, Carbs: 0, Fat: 65},
		DefaultTargets,
	)
	assert.Equal(t, ProgressReport{Calories: 25, Protein: 100, Carbs: 0, Fat: 100}, got)
}

func TestBMI(t *testing.T) {
	bmi, err := BMI(180, 90)
	require.NoError(t, err)
	assert.InDelta(t, 27.78, bmi, 0.01)
	assert.Equal(t, "Overweight", BMICategory(bmi))

	_, err = BMI(0, 70)
	assert.Error(t, err)

	_, err = BMI(30, 70)
	assert.ErrorIs(t, err, ErrImplausibleBody)
}

func TestBMICategory(t *testing.T) {
	assert.Equal(t, "Underweight", BMICategory(17))
	assert.Equal(t, "Normal weight", BMICategory(22))
	assert.Equal(t, "Obesity class I", BMICategory(31))
	assert.Equal(t, "Obesity class II", BMICategory(36))
	assert.Equal(t, "Obesity class III", BMICategory(45))
}

package nutrition

import (
	"fmt"
	"math"
)

// NutritionalData is a calorie and macro-gram tuple. It is used both for
// consumed totals and for daily targets.
type NutritionalData struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fat      int `json:"fat"`
}

// Add returns the elementwise sum.
func (n NutritionalData) Add(o NutritionalData) NutritionalData {
	return NutritionalData{
		Calories: n.Calories + o.Calories,
		Protein:  n.Protein + o.Protein,
		Carbs:    n.Carbs + o.Carbs,
		Fat:      n.Fat + o.Fat,
	}
}

// Sub returns the elementwise difference. Results may be negative once a
// target is exceeded.
func (n NutritionalData) Sub(o NutritionalData) NutritionalData {
	return NutritionalData{
		Calories: n.Calories - o.Calories,
		Protein:  n.Protein - o.Protein,
		Carbs:    n.Carbs - o.Carbs,
		Fat:      n.Fat - o.Fat,
	}
}

// IsZero reports whether every field is zero.
func (n NutritionalData) IsZero() bool {
	return n == NutritionalData{}
}

// DefaultTargets applies until a profile has been completed.
var DefaultTargets = NutritionalData{Calories: 2000, Protein: 50, Carbs: 250, Fat: 65}

// Energy per gram of each macronutrient.
const (
	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9
)

var activityMultipliers = map[ActivityLevel]float64{
	Sedentary:        1.2,
	LightlyActive:    1.375,
	ModeratelyActive: 1.55,
	VeryActive:       1.725,
	ExtremelyActive:  1.9,
}

// MacroSplit is the share of calories assigned to each macronutrient.
type MacroSplit struct {
	Protein float64
	Carbs   float64
	Fat     float64
}

var defaultSplit = MacroSplit{Protein: 0.25, Carbs: 0.55, Fat: 0.20}

var macroSplits = map[Goal]MacroSplit{
	LoseWeight:     {Protein: 0.30, Carbs: 0.45, Fat: 0.25},
	GainWeight:     {Protein: 0.30, Carbs: 0.50, Fat: 0.20},
	BuildMuscle:    {Protein: 0.30, Carbs: 0.50, Fat: 0.20},
	MaintainWeight: {Protein: 0.25, Carbs: 0.55, Fat: 0.20},
	ImproveHealth:  {Protein: 0.25, Carbs: 0.50, Fat: 0.25},
}

// BMR is the Mifflin-St Jeor basal metabolic rate in kcal/day. Any gender
// other than male uses the female constant.
func BMR(p PersonalInfo) float64 {
	bmr := 10*p.Weight + 6.25*p.Height - 5*float64(p.Age)
	if p.Gender == GenderMale {
		return bmr + 5
	}
	return bmr - 161
}

// ActivityMultiplier returns the TDEE factor for a level and whether the
// level is known.
func ActivityMultiplier(level ActivityLevel) (float64, bool) {
	m, ok := activityMultipliers[level]
	return m, ok
}

// GoalOffset is the kcal adjustment applied on top of TDEE.
func GoalOffset(goal Goal) float64 {
	switch goal {
	case LoseWeight:
		return -500
	case GainWeight:
		return 300
	case BuildMuscle:
		return 200
	}
	return 0
}

// TargetCalories computes round(BMR * activity multiplier + goal offset).
func TargetCalories(p PersonalInfo) (int, error) {
	m, ok := ActivityMultiplier(p.ActivityLevel)
	if !ok {
		return 0, fmt.Errorf("%w: activityLevel %q", ErrInvalidField, p.ActivityLevel)
	}
	tdee := BMR(p)*m + GoalOffset(p.Goal)
	return roundHalfUp(tdee), nil
}

// MacroRatios returns the macro split for a goal. Unknown goals get the
// default 25/55/20 split.
func MacroRatios(goal Goal) MacroSplit {
	if s, ok := macroSplits[goal]; ok {
		return s
	}
	return defaultSplit
}

// SplitCalories converts a calorie budget into gram targets for a goal.
func SplitCalories(calories int, goal Goal) NutritionalData {
	s := MacroRatios(goal)
	cal := float64(calories)
	return NutritionalData{
		Calories: calories,
		Protein:  roundHalfUp(cal * s.Protein / kcalPerGramProtein),
		Carbs:    roundHalfUp(cal * s.Carbs / kcalPerGramCarbs),
		Fat:      roundHalfUp(cal * s.Fat / kcalPerGramFat),
	}
}

// TargetNutrition derives daily targets from a profile. A profile saved
// without TargetCalories has it computed on the fly; one that cannot be
// computed falls back to DefaultTargets.
func TargetNutrition(p PersonalInfo) NutritionalData {
	calories := p.TargetCalories
	if calories <= 0 {
		c, err := TargetCalories(p)
		if err != nil || c <= 0 {
			return DefaultTargets
		}
		calories = c
	}
	return SplitCalories(calories, p.Goal)
}

// roundHalfUp rounds .5 toward positive infinity.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

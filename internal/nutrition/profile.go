package nutrition

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMissingField is returned when a required profile field is empty.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidField is returned when a profile field has an unknown value.
	ErrInvalidField = errors.New("invalid field")
)

// Gender selects the sex constant of the BMR formula.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Valid reports whether g is one of the known genders.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// ActivityLevel scales BMR into total daily energy expenditure.
type ActivityLevel string

const (
	Sedentary        ActivityLevel = "sedentary"
	LightlyActive    ActivityLevel = "lightly_active"
	ModeratelyActive ActivityLevel = "moderately_active"
	VeryActive       ActivityLevel = "very_active"
	ExtremelyActive  ActivityLevel = "extremely_active"
)

// ActivityLevels lists the levels in ascending order.
var ActivityLevels = []ActivityLevel{Sedentary, LightlyActive, ModeratelyActive, VeryActive, ExtremelyActive}

var activityLabels = map[ActivityLevel]string{
	Sedentary:        "Sedentary (little or no exercise)",
	LightlyActive:    "Lightly active (light exercise 1-3 days/week)",
	ModeratelyActive: "Moderately active (moderate exercise 3-5 days/week)",
	VeryActive:       "Very active (hard exercise 6-7 days/week)",
	ExtremelyActive:  "Extremely active (very hard exercise, physical job)",
}

// Valid reports whether a is a known activity level.
func (a ActivityLevel) Valid() bool {
	_, ok := activityMultipliers[a]
	return ok
}

// Label is the human readable description of the level.
func (a ActivityLevel) Label() string {
	if l, ok := activityLabels[a]; ok {
		return l
	}
	return string(a)
}

// Goal adjusts the calorie target and selects the macro split.
type Goal string

const (
	LoseWeight     Goal = "lose_weight"
	MaintainWeight Goal = "maintain_weight"
	GainWeight     Goal = "gain_weight"
	BuildMuscle    Goal = "build_muscle"
	ImproveHealth  Goal = "improve_health"
)

// Goals lists every supported goal.
var Goals = []Goal{LoseWeight, MaintainWeight, GainWeight, BuildMuscle, ImproveHealth}

var goalLabels = map[Goal]string{
	LoseWeight:     "Lose Weight",
	MaintainWeight: "Maintain Weight",
	GainWeight:     "Gain Weight",
	BuildMuscle:    "Build Muscle",
	ImproveHealth:  "Improve Health",
}

// Valid reports whether g is a known goal.
func (g Goal) Valid() bool {
	_, ok := goalLabels[g]
	return ok
}

// Label is the human readable name of the goal.
func (g Goal) Label() string {
	if l, ok := goalLabels[g]; ok {
		return l
	}
	return string(g)
}

// DietaryRestrictions is the catalog offered during profile setup. Users may
// add free-form entries on top of these.
var DietaryRestrictions = []string{
	"Vegetarian",
	"Vegan",
	"Gluten-Free",
	"Dairy-Free",
	"Keto",
	"Paleo",
	"Mediterranean",
	"Low-Carb",
	"Low-Fat",
}

// PersonalInfo is the user's profile. It is replaced wholesale on save.
// TargetCalories is derived by Complete and is not user input.
type PersonalInfo struct {
	Name                string        `json:"name"`
	Age                 int           `json:"age"`
	Gender              Gender        `json:"gender"`
	Weight              float64       `json:"weight"` // kg
	Height              float64       `json:"height"` // cm
	ActivityLevel       ActivityLevel `json:"activityLevel"`
	Goal                Goal          `json:"goal"`
	DietaryRestrictions []string      `json:"dietaryRestrictions"`
	Allergies           []string      `json:"allergies"`
	TargetCalories      int           `json:"targetCalories"`
}

// Validate checks the required fields and enumerations.
func (p PersonalInfo) Validate() error {
	var missing []string
	if strings.TrimSpace(p.Name) == "" {
		missing = append(missing, "name")
	}
	if p.Age <= 0 {
		missing = append(missing, "age")
	}
	if p.Gender == "" {
		missing = append(missing, "gender")
	}
	if p.Weight <= 0 {
		missing = append(missing, "weight")
	}
	if p.Height <= 0 {
		missing = append(missing, "height")
	}
	if p.ActivityLevel == "" {
		missing = append(missing, "activityLevel")
	}
	if p.Goal == "" {
		missing = append(missing, "goal")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}

	if !p.Gender.Valid() {
		return fmt.Errorf("%w: gender %q", ErrInvalidField, p.Gender)
	}
	if !p.ActivityLevel.Valid() {
		return fmt.Errorf("%w: activityLevel %q", ErrInvalidField, p.ActivityLevel)
	}
	if !p.Goal.Valid() {
		return fmt.Errorf("%w: goal %q", ErrInvalidField, p.Goal)
	}
	return nil
}

// Complete validates p and returns a copy with TargetCalories computed.
// Any TargetCalories already present is ignored.
func (p PersonalInfo) Complete() (PersonalInfo, error) {
	if err := p.Validate(); err != nil {
		return PersonalInfo{}, err
	}
	target, err := TargetCalories(p)
	if err != nil {
		return PersonalInfo{}, err
	}
	p.TargetCalories = target
	p.DietaryRestrictions = cleanList(p.DietaryRestrictions)
	p.Allergies = cleanList(p.Allergies)
	return p, nil
}

// cleanList trims entries and drops blanks and duplicates, keeping order.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// UnmarshalJSON accepts numeric fields either as JSON numbers or as numeric
// strings, which is how older exports stored them.
func (p *PersonalInfo) UnmarshalJSON(data []byte) error {
	type plain PersonalInfo
	var aux struct {
		plain
		Age            flexNumber `json:"age"`
		Weight         flexNumber `json:"weight"`
		Height         flexNumber `json:"height"`
		TargetCalories flexNumber `json:"targetCalories"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = PersonalInfo(aux.plain)
	p.Age = int(aux.Age)
	p.Weight = float64(aux.Weight)
	p.Height = float64(aux.Height)
	p.TargetCalories = int(aux.TargetCalories)
	return nil
}

type flexNumber float64

func (f *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		str = strings.TrimSpace(str)
		if str == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("%w: %q is not a number", ErrInvalidField, str)
		}
		*f = flexNumber(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexNumber(v)
	return nil
}

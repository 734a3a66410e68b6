// Package mealplan owns the day's four meal slots and the user profile, and
// derives totals, targets and remaining budget from them. Every mutation is
// applied in memory first and then persisted in the background.
package mealplan

import (
	"errors"
	"fmt"
	"strings"

	"nutriplan/internal/nutrition"
)

// Slot identifies one of the four fixed daily meals.
type Slot string

const (
	Breakfast Slot = "breakfast"
	Lunch     Slot = "lunch"
	Snacks    Slot = "snacks"
	Dinner    Slot = "dinner"
)

// ErrUnknownSlot is returned for slot names outside the fixed four.
var ErrUnknownSlot = errors.New("unknown meal slot")

// AllSlots returns the slots in display order.
func AllSlots() []Slot {
	return []Slot{Breakfast, Lunch, Snacks, Dinner}
}

// ParseSlot accepts a slot name case-insensitively. "snack" is accepted as
// an alias of snacks.
func ParseSlot(s string) (Slot, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "breakfast":
		return Breakfast, nil
	case "lunch":
		return Lunch, nil
	case "snacks", "snack":
		return Snacks, nil
	case "dinner":
		return Dinner, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSlot, s)
}

// Valid reports whether s is one of the fixed slots.
func (s Slot) Valid() bool {
	switch s {
	case Breakfast, Lunch, Snacks, Dinner:
		return true
	}
	return false
}

// FoodItem is a single food attached to a meal. Items are treated as
// immutable once created.
type FoodItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Calories int    `json:"calories"`
	Protein  int    `json:"protein"`
	Carbs    int    `json:"carbs"`
	Fat      int    `json:"fat"`
	Category string `json:"category"`
}

// Nutrition returns the item's macros as a NutritionalData.
func (f FoodItem) Nutrition() nutrition.NutritionalData {
	return nutrition.NutritionalData{
		Calories: f.Calories,
		Protein:  f.Protein,
		Carbs:    f.Carbs,
		Fat:      f.Fat,
	}
}

// Meal is one slot of the day. HasFood mirrors Food != nil and is kept for
// the persisted record format.
type Meal struct {
	ID      Slot      `json:"id"`
	Title   string    `json:"title"`
	Time    string    `json:"time"`
	Food    *FoodItem `json:"food,omitempty"`
	HasFood bool      `json:"hasFood"`
}

// DefaultMeals returns the four empty slots with their display titles and
// times.
func DefaultMeals() []Meal {
	return []Meal{
		{ID: Breakfast, Title: "Breakfast", Time: "7 AM"},
		{ID: Lunch, Title: "Lunch", Time: "12 PM"},
		{ID: Snacks, Title: "Snacks", Time: "3 PM"},
		{ID: Dinner, Title: "Dinner", Time: "7 PM"},
	}
}

// Totals sums the nutrition of every meal that has food.
func Totals(meals []Meal) nutrition.NutritionalData {
	var total nutrition.NutritionalData
	for _, m := range meals {
		if m.Food != nil {
			total = total.Add(m.Food.Nutrition())
		}
	}
	return total
}

// normalizeMeals reconciles a persisted record with the fixed slot layout.
// Unknown ids are dropped, missing slots are restored empty, HasFood is
// recomputed from Food, and order follows AllSlots.
func normalizeMeals(in []Meal) []Meal {
	out := DefaultMeals()
	index := make(map[Slot]int, len(out))
	for i, m := range out {
		index[m.ID] = i
	}
	for _, m := range in {
		slot, err := ParseSlot(string(m.ID))
		if err != nil {
			continue
		}
		i := index[slot]
		if m.Title != "" {
			out[i].Title = m.Title
		}
		if m.Time != "" {
			out[i].Time = m.Time
		}
		if m.Food != nil {
			food := *m.Food
			out[i].Food = &food
			out[i].HasFood = true
		}
	}
	return out
}

// cloneMeals deep-copies meals so callers cannot alias plan state.
func cloneMeals(in []Meal) []Meal {
	out := make([]Meal, len(in))
	for i, m := range in {
		out[i] = m
		if m.Food != nil {
			food := *m.Food
			out[i].Food = &food
		}
	}
	return out
}

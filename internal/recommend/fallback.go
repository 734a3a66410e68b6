package recommend

import (
	"fmt"

	"nutriplan/internal/mealplan"
)

type staticMeal struct {
	name string
	kcal int
	p    int
	c    int
	f    int
}

var fallbackMeals = map[mealplan.Slot][ItemCount]staticMeal{
	mealplan.Breakfast: {
		{"Oatmeal with Berries and Almonds", 280, 8, 45, 6},
		{"Greek Yogurt with Honey and Granola", 200, 15, 20, 8},
		{"Whole Grain Toast with Avocado and Eggs", 320, 10, 35, 18},
		{"Smoothie Bowl with Banana and Berries", 250, 12, 30, 8},
		{"Scrambled Eggs with Spinach and Toast", 220, 18, 5, 12},
	},
	mealplan.Lunch: {
		{"Grilled Chicken Salad with Mixed Greens", 350, 25, 15, 18},
		{"Quinoa Bowl with Roasted Vegetables", 380, 12, 45, 14},
		{"Turkey Sandwich on Whole Grain Bread", 320, 20, 35, 12},
		{"Vegetable Soup with Grilled Cheese", 200, 8, 25, 8},
		{"Tuna Salad with Crackers", 280, 22, 10, 16},
	},
	mealplan.Dinner: {
		{"Salmon with Roasted Vegetables", 420, 28, 20, 22},
		{"Lean Beef Stir Fry with Brown Rice", 380, 25, 25, 18},
		{"Vegetarian Pasta with Marinara Sauce", 350, 12, 45, 12},
		{"Chicken Breast with Quinoa and Broccoli", 400, 30, 35, 14},
		{"Tofu Curry with Basmati Rice", 320, 15, 30, 16},
	},
	mealplan.Snacks: {
		{"Apple Slices with Almond Butter", 180, 4, 20, 10},
		{"Hummus with Carrot and Celery Sticks", 150, 6, 18, 8},
		{"Greek Yogurt with Mixed Berries", 120, 12, 8, 4},
		{"Mixed Nuts and Dried Cranberries", 200, 6, 8, 18},
		{"Banana with Peanut Butter", 220, 6, 25, 12},
	},
}

// Fallback returns the static recommendations for slot. Unknown slots get the
// breakfast list, still tagged with the requested slot.
func Fallback(slot mealplan.Slot) []mealplan.FoodItem {
	meals, ok := fallbackMeals[slot]
	if !ok {
		meals = fallbackMeals[mealplan.Breakfast]
	}
	items := make([]mealplan.FoodItem, len(meals))
	for i, m := range meals {
		items[i] = mealplan.FoodItem{
			ID:       fmt.Sprintf("fallback_%s_%d", slot, i),
			Name:     m.name,
			Calories: m.kcal,
			Protein:  m.p,
			Carbs:    m.c,
			Fat:      m.f,
			Category: string(slot),
		}
	}
	return items
}

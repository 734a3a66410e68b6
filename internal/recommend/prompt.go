package recommend

import (
	"fmt"
	"strconv"
	"strings"

	"nutriplan/internal/mealplan"
	"nutriplan/internal/nutrition"
)

var slotDescriptions = map[mealplan.Slot]string{
	mealplan.Breakfast: "breakfast (morning meal)",
	mealplan.Lunch:     "lunch (midday meal)",
	mealplan.Dinner:    "dinner (evening meal)",
	mealplan.Snacks:    "snack (light meal between main meals)",
}

// SlotDescription is the phrase the prompt uses for slot.
func SlotDescription(slot mealplan.Slot) string {
	if d, ok := slotDescriptions[slot]; ok {
		return d
	}
	return string(slot)
}

// BuildPrompt renders the recommendation prompt for req. The consumed totals
// cover every filled meal in req.Meals.
func BuildPrompt(req Request) string {
	var info nutrition.PersonalInfo
	if req.Profile != nil {
		info = *req.Profile
	}
	consumed := mealplan.Totals(req.Meals)
	remaining := info.TargetCalories - consumed.Calories
	meal := SlotDescription(req.Slot)

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a professional nutritionist and chef. Generate exactly %d personalized meal recommendations for %s based on the following user profile.\n\n", ItemCount, meal)
	fmt.Fprintf(&sb, "IMPORTANT: Only generate recommendations for %s. Do NOT include recommendations for other meal types like breakfast, lunch, dinner, or snacks unless specifically requested.\n\n", meal)

	sb.WriteString("USER PROFILE:\n")
	fmt.Fprintf(&sb, "- Name: %s\n", info.Name)
	fmt.Fprintf(&sb, "- Age: %d years old\n", info.Age)
	fmt.Fprintf(&sb, "- Gender: %s\n", info.Gender)
	fmt.Fprintf(&sb, "- Weight: %s kg\n", formatMeasure(info.Weight))
	fmt.Fprintf(&sb, "- Height: %s cm\n", formatMeasure(info.Height))
	fmt.Fprintf(&sb, "- Activity Level: %s\n", info.ActivityLevel)
	fmt.Fprintf(&sb, "- Goal: %s\n", info.Goal)
	fmt.Fprintf(&sb, "- Target Calories: %d calories/day\n", info.TargetCalories)
	fmt.Fprintf(&sb, "- Dietary Restrictions: %s\n", joinOrNone(info.DietaryRestrictions))
	fmt.Fprintf(&sb, "- Allergies: %s\n\n", joinOrNone(info.Allergies))

	sb.WriteString("CURRENT NUTRITION TODAY:\n")
	fmt.Fprintf(&sb, "- Calories consumed: %d\n", consumed.Calories)
	fmt.Fprintf(&sb, "- Protein consumed: %dg\n", consumed.Protein)
	fmt.Fprintf(&sb, "- Carbs consumed: %dg\n", consumed.Carbs)
	fmt.Fprintf(&sb, "- Fat consumed: %dg\n", consumed.Fat)
	fmt.Fprintf(&sb, "- Remaining calories for today: %d\n\n", remaining)

	fmt.Fprintf(&sb, "MEAL TYPE: %s\n\n", meal)

	sb.WriteString("REQUIREMENTS:\n")
	fmt.Fprintf(&sb, "1. Generate exactly %d meal options for %s ONLY\n", ItemCount, meal)
	fmt.Fprintf(&sb, "2. Each meal must be appropriate for %s timing and context\n", meal)
	sb.WriteString("3. Consider the user's dietary restrictions and allergies\n")
	sb.WriteString("4. Ensure meals align with their fitness goal\n")
	sb.WriteString("5. Consider remaining daily calories and nutrition needs\n")
	sb.WriteString("6. Make meals realistic and easy to prepare\n")
	sb.WriteString("7. Include nutritional information for each meal\n")
	fmt.Fprintf(&sb, "8. Focus only on %s - do not mix with other meal types\n\n", meal)

	sb.WriteString("RESPONSE FORMAT:\n")
	fmt.Fprintf(&sb, "Return a JSON array with exactly %d objects, each containing:\n", ItemCount)
	sb.WriteString("{\n")
	sb.WriteString("  \"id\": \"unique_id\",\n")
	sb.WriteString("  \"name\": \"Meal Name\",\n")
	sb.WriteString("  \"calories\": number,\n")
	sb.WriteString("  \"protein\": number,\n")
	sb.WriteString("  \"carbs\": number,\n")
	sb.WriteString("  \"fat\": number,\n")
	fmt.Fprintf(&sb, "  \"category\": %q\n", string(req.Slot))
	sb.WriteString("}\n\n")
	sb.WriteString(promptExamples)
	sb.WriteString("Only return the JSON array, no additional text.")
	return sb.String()
}

const promptExamples = `Example for breakfast:
[
  {
    "id": "breakfast_1",
    "name": "Greek Yogurt with Berries and Nuts",
    "calories": 320,
    "protein": 18,
    "carbs": 25,
    "fat": 12,
    "category": "breakfast"
  }
]

Example for lunch:
[
  {
    "id": "lunch_1",
    "name": "Grilled Chicken Salad",
    "calories": 350,
    "protein": 25,
    "carbs": 15,
    "fat": 18,
    "category": "lunch"
  }
]

`

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}

// formatMeasure prints 80 as "80" and 72.5 as "72.5".
func formatMeasure(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

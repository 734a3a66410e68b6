package recommend

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"nutriplan/internal/mealplan"
	"nutriplan/internal/nutrition"
)

// ItemCount is how many recommendations a request yields.
const ItemCount = 5

// rawItem accepts numbers or numeric strings for the macro fields.
type rawItem struct {
	ID       any `json:"id"`
	Name     any `json:"name"`
	Calories any `json:"calories"`
	Protein  any `json:"protein"`
	Carbs    any `json:"carbs"`
	Fat      any `json:"fat"`
	Category any `json:"category"`
}

// nowMillis is replaced in tests.
var nowMillis = func() int64 { return time.Now().UnixMilli() }

// ParseResponse extracts the JSON array from a model reply. Text around the
// array (prose, code fences) is ignored. Items without a name are dropped,
// missing ids are generated, a missing category becomes slot, and at most
// ItemCount items are kept.
//
// A reply with fewer than ItemCount usable items is not an error: the items
// it has are returned as is and are not topped up from the fallback table.
// Only a reply with no usable item fails.
func ParseResponse(text string, slot mealplan.Slot) ([]mealplan.FoodItem, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON array found", ErrMalformedResponse)
	}

	var raw []rawItem
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	ts := nowMillis()
	items := make([]mealplan.FoodItem, 0, ItemCount)
	for i, r := range raw {
		name := strings.TrimSpace(stringOf(r.Name))
		if name == "" {
			continue
		}
		id := strings.TrimSpace(stringOf(r.ID))
		if id == "" {
			id = fmt.Sprintf("ai_meal_%d_%d", ts, i)
		}
		category := strings.TrimSpace(stringOf(r.Category))
		if category == "" {
			category = string(slot)
		}
		items = append(items, mealplan.FoodItem{
			ID:       id,
			Name:     name,
			Calories: nutrition.QuantityFromAny(r.Calories),
			Protein:  nutrition.QuantityFromAny(r.Protein),
			Carbs:    nutrition.QuantityFromAny(r.Carbs),
			Fat:      nutrition.QuantityFromAny(r.Fat),
			Category: category,
		})
		if len(items) == ItemCount {
			break
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no usable items", ErrMalformedResponse)
	}
	return items, nil
}

func stringOf(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}

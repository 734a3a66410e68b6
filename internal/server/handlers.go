package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nutriplan/internal/mealplan"
	"nutriplan/internal/nutrition"
	"nutriplan/internal/recommend"
	"nutriplan/internal/store"
)

// Error codes carried in apiError.Code.
const (
	codeInvalidSlot     = "invalid_slot"
	codeInvalidBody     = "invalid_body"
	codeProfileRequired = "profile_required"
	codeAPIKeyRequired  = "api_key_required"
	codeAPIKeyInvalid   = "api_key_invalid"
	codeStorage         = "storage_error"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":              "ok",
		"version":             s.opts.Version,
		"liveRecommendations": s.rec.HasAPIKey(),
	})
}

// slotParam parses {slot}, writing a 400 when it is not one of the four.
func slotParam(w http.ResponseWriter, r *http.Request) (mealplan.Slot, bool) {
	slot, err := mealplan.ParseSlot(chi.URLParam(r, "slot"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidSlot, err)
		return "", false
	}
	return slot, true
}

// =============================================================================
// MEALS
// =============================================================================

func (s *Server) listMeals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.plan.Meals())
}

func (s *Server) attachFood(w http.ResponseWriter, r *http.Request) {
	slot, ok := slotParam(w, r)
	if !ok {
		return
	}
	var food mealplan.FoodItem
	if err := decodeBody(w, r, &food); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, err)
		return
	}
	if err := s.plan.Attach(slot, food); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, err)
		return
	}
	meal, _ := s.plan.Meal(slot)
	writeJSON(w, http.StatusOK, meal)
}

// customFoodRequest carries the custom-food form as typed text.
type customFoodRequest struct {
	Name     string `json:"name"`
	Calories string `json:"calories"`
	Protein  string `json:"protein"`
	Carbs    string `json:"carbs"`
	Fat      string `json:"fat"`
}

func (s *Server) addCustomFood(w http.ResponseWriter, r *http.Request) {
	slot, ok := slotParam(w, r)
	if !ok {
		return
	}
	var req customFoodRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, err)
		return
	}
	food, err := s.plan.AddCustom(slot, req.Name, req.Calories, req.Protein, req.Carbs, req.Fat)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, err)
		return
	}
	writeJSON(w, http.StatusCreated, food)
}

func (s *Server) detachFood(w http.ResponseWriter, r *http.Request) {
	slot, ok := slotParam(w, r)
	if !ok {
		return
	}
	if err := s.plan.Detach(slot); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidSlot, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clearMeals(w http.ResponseWriter, r *http.Request) {
	s.plan.ClearAll()
	w.WriteHeader(http.StatusNoContent)
}

// nutritionResponse is the dashboard view of the day.
type nutritionResponse struct {
	Consumed  nutrition.NutritionalData `json:"consumed"`
	Targets   nutrition.NutritionalData `json:"targets"`
	Remaining nutrition.NutritionalData `json:"remaining"`
	Progress  nutrition.ProgressReport  `json:"progress"`
	HasGoals  bool                      `json:"hasPersonalizedTargets"`
}

func (s *Server) nutritionSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nutritionResponse{
		Consumed:  s.plan.Totals(),
		Targets:   s.plan.Targets(),
		Remaining: s.plan.Remaining(),
		Progress:  s.plan.Progress(),
		HasGoals:  s.plan.PersonalInfo() != nil,
	})
}

// =============================================================================
// PROFILE
// =============================================================================

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	info := s.plan.PersonalInfo()
	if info == nil {
		writeError(w, http.StatusNotFound, codeProfileRequired, recommend.ErrProfileRequired)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) saveProfile(w http.ResponseWriter, r *http.Request) {
	var info nutrition.PersonalInfo
	if err := decodeBody(w, r, &info); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, err)
		return
	}
	saved, err := s.plan.SavePersonalInfo(r.Context(), info)
	switch {
	case errors.Is(err, nutrition.ErrMissingField), errors.Is(err, nutrition.ErrInvalidField):
		writeError(w, http.StatusBadRequest, codeInvalidBody, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, codeStorage, err)
		return
	}
	if err := s.repo.SetFirstTimeUser(r.Context(), false); err != nil {
		s.log.Warn("Could not clear first-run flag: %v", err)
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) clearProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.plan.ClearPersonalInfo(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, codeStorage, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RECOMMENDATIONS
// =============================================================================

type recommendRequest struct {
	Offline bool `json:"offline"`
}

type recommendResponse struct {
	Slot   mealplan.Slot       `json:"slot"`
	Items  []mealplan.FoodItem `json:"items"`
	Source recommend.Source    `json:"source"`
	Reason string              `json:"reason,omitempty"`
}

func (s *Server) recommend(w http.ResponseWriter, r *http.Request) {
	slot, ok := slotParam(w, r)
	if !ok {
		return
	}
	var body recommendRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &body); err != nil && !errors.Is(err, errEmptyBody) {
			writeError(w, http.StatusBadRequest, codeInvalidBody, err)
			return
		}
	}

	res, err := s.rec.Recommend(r.Context(), recommend.Request{
		Profile:      s.plan.PersonalInfo(),
		Slot:         slot,
		Meals:        s.plan.Meals(),
		AllowOffline: body.Offline,
	})
	switch {
	case errors.Is(err, recommend.ErrProfileRequired):
		writeError(w, http.StatusPreconditionFailed, codeProfileRequired, err)
		return
	case errors.Is(err, recommend.ErrAPIKeyMissing):
		writeError(w, http.StatusPreconditionFailed, codeAPIKeyRequired, err)
		return
	case errors.Is(err, recommend.ErrAPIKeyInvalid):
		writeError(w, http.StatusPreconditionFailed, codeAPIKeyInvalid, recommend.ErrAPIKeyInvalid)
		return
	case errors.Is(err, mealplan.ErrUnknownSlot):
		writeError(w, http.StatusBadRequest, codeInvalidSlot, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "", err)
		return
	}

	resp := recommendResponse{Slot: slot, Items: res.Items, Source: res.Source}
	if res.Reason != nil {
		resp.Reason = res.Reason.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// SETTINGS AND STORAGE
// =============================================================================

type apiKeyRequest struct {
	APIKey string `json:"apiKey"`
}

type apiKeyStatus struct {
	Configured bool                `json:"configured"`
	Source     recommend.KeySource `json:"source,omitempty"`
}

func (s *Server) apiKeyStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, apiKeyStatus{Configured: s.rec.HasAPIKey(), Source: s.keys.Source()})
}

func (s *Server) saveAPIKey(w http.ResponseWriter, r *http.Request) {
	var req apiKeyRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, err)
		return
	}
	switch err := s.keys.Save(r.Context(), req.APIKey); {
	case errors.Is(err, recommend.ErrEmptyAPIKey):
		writeError(w, http.StatusBadRequest, codeInvalidBody, err)
	case errors.Is(err, recommend.ErrKeyStorage):
		writeError(w, http.StatusInternalServerError, codeStorage, err)
	case err != nil:
		writeError(w, http.StatusBadRequest, codeAPIKeyInvalid, err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) clearAPIKey(w http.ResponseWriter, r *http.Request) {
	if err := s.keys.Clear(r.Context()); err != nil {
		if errors.Is(err, recommend.ErrKeyStorage) {
			writeError(w, http.StatusInternalServerError, codeStorage, err)
			return
		}
		s.log.Warn("Configured API key could not be activated: %v", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.repo.Stats(r.Context()))
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	if err := s.plan.Flush(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, codeStorage, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="nutriplan-export.json"`)
	writeJSON(w, http.StatusOK, s.repo.Export(r.Context()))
}

func (s *Server) importData(w http.ResponseWriter, r *http.Request) {
	var data store.ImportData
	if err := decodeBody(w, r, &data); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, err)
		return
	}
	if data.PersonalInfo != nil {
		done, err := data.PersonalInfo.Complete()
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidBody, err)
			return
		}
		data.PersonalInfo = &done
	}
	// Pending meal writes must land before the import overwrites them.
	if err := s.plan.Flush(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, codeStorage, err)
		return
	}
	if err := s.repo.Import(r.Context(), data); err != nil {
		writeError(w, http.StatusInternalServerError, codeStorage, err)
		return
	}
	s.plan.Load(r.Context())
	if data.APIKey != "" {
		if _, err := s.keys.Activate(r.Context()); err != nil {
			s.log.Warn("Imported API key could not be activated: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, s.repo.Stats(r.Context()))
}

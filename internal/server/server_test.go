package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutriplan/internal/mealplan"
	"nutriplan/internal/nutrition"
	"nutriplan/internal/recommend"
	"nutriplan/internal/store"
)

type stubLLM struct {
	reply string
	err   error
}

func (s stubLLM) Complete(context.Context, string) (string, error) { return s.reply, s.err }

const dinnerReply = `[
	{"id":"d1","name":"Lentil Stew","calories":450,"protein":24,"carbs":60,"fat":9},
	{"id":"d2","name":"Tofu Bowl","calories":480,"protein":28,"carbs":52,"fat":16},
	{"id":"d3","name":"Veggie Chili","calories":420,"protein":21,"carbs":55,"fat":10},
	{"id":"d4","name":"Chickpea Curry","calories":500,"protein":19,"carbs":66,"fat":15},
	{"id":"d5","name":"Stuffed Peppers","calories":390,"protein":18,"carbs":44,"fat":13}
]`

type fixture struct {
	srv  *Server
	plan *mealplan.Plan
	repo *store.Repository
	rec  *recommend.Service
	keys *recommend.Keys

	// configKey stands in for a key from the config file or environment.
	configKey string
}

func newFixture(t *testing.T, llm recommend.LLMClient) *fixture {
	t.Helper()
	repo := store.NewRepository(store.NewMemoryStore())
	plan := mealplan.NewPlan(repo)
	t.Cleanup(func() { _ = plan.Close(context.Background()) })

	rec := recommend.NewService(func(_ context.Context, key string) (recommend.LLMClient, error) {
		if strings.HasPrefix(key, "bad") {
			return nil, errors.New("key rejected by client")
		}
		return llm, nil
	})
	f := &fixture{plan: plan, repo: repo, rec: rec}
	f.keys = recommend.NewKeys(rec, repo, func() string { return f.configKey })
	f.srv = New(plan, repo, rec, f.keys, Options{Version: "test"})
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func profileBody() map[string]any {
	return map[string]any{
		"name":                "Sam",
		"age":                 "30",
		"gender":              "male",
		"weight":              80,
		"height":              180,
		"activityLevel":       "moderately_active",
		"goal":                "lose_weight",
		"dietaryRestrictions": []string{"Vegetarian"},
		"allergies":           []string{},
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	rr := f.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode[map[string]any](t, rr)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["liveRecommendations"])
	assert.NotEmpty(t, rr.Header().Get("Content-Type"))
}

func TestMealsLifecycle(t *testing.T) {
	f := newFixture(t, nil)

	rr := f.do(t, http.MethodPut, "/meals/lunch", mealplan.FoodItem{
		ID: "x1", Name: "Salad", Calories: 350, Protein: 25, Carbs: 15, Fat: 18, Category: "lunch",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	meal := decode[mealplan.Meal](t, rr)
	assert.True(t, meal.HasFood)
	assert.Equal(t, "Salad", meal.Food.Name)

	rr = f.do(t, http.MethodPost, "/meals/Snack/custom", map[string]string{
		"name": "Protein bar", "calories": "210", "protein": "20g", "carbs": "", "fat": "7.5",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	custom := decode[mealplan.FoodItem](t, rr)
	assert.True(t, strings.HasPrefix(custom.ID, "custom-"))
	assert.Equal(t, 20, custom.Protein)
	assert.Equal(t, 0, custom.Carbs)
	assert.Equal(t, 7, custom.Fat)

	rr = f.do(t, http.MethodGet, "/nutrition", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	summary := decode[nutritionResponse](t, rr)
	assert.Equal(t, nutrition.NutritionalData{Calories: 560, Protein: 45, Carbs: 15, Fat: 25}, summary.Consumed)
	assert.Equal(t, nutrition.DefaultTargets, summary.Targets)
	assert.Equal(t, 1440, summary.Remaining.Calories)
	assert.False(t, summary.HasGoals)

	rr = f.do(t, http.MethodDelete, "/meals/lunch", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	meals := decode[[]mealplan.Meal](t, f.do(t, http.MethodGet, "/meals", nil))
	require.Len(t, meals, 4)
	assert.Nil(t, meals[1].Food)
	assert.NotNil(t, meals[2].Food)

	rr = f.do(t, http.MethodDelete, "/meals", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.True(t, f.plan.Totals().IsZero())
}

func TestMealsValidation(t *testing.T) {
	f := newFixture(t, nil)

	rr := f.do(t, http.MethodPut, "/meals/brunch", mealplan.FoodItem{Name: "Eggs"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, codeInvalidSlot, decode[apiError](t, rr).Code)

	rr = f.do(t, http.MethodPut, "/meals/lunch", mealplan.FoodItem{Calories: 100})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodPut, "/meals/lunch", `{"name":"Soup","servings":2}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodPost, "/meals/dinner/custom", map[string]string{"name": "Pasta"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decode[apiError](t, rr).Error, "calories")
}

func TestProfileLifecycle(t *testing.T) {
	f := newFixture(t, nil)

	rr := f.do(t, http.MethodGet, "/profile", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	bad := profileBody()
	bad["goal"] = "get_huge"
	rr = f.do(t, http.MethodPut, "/profile", bad)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodPut, "/profile", profileBody())
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	saved := decode[nutrition.PersonalInfo](t, rr)
	assert.Equal(t, 2259, saved.TargetCalories)
	assert.False(t, f.repo.IsFirstTimeUser(context.Background()))

	summary := decode[nutritionResponse](t, f.do(t, http.MethodGet, "/nutrition", nil))
	assert.Equal(t, nutrition.NutritionalData{Calories: 2259, Protein: 169, Carbs: 254, Fat: 63}, summary.Targets)
	assert.True(t, summary.HasGoals)

	rr = f.do(t, http.MethodDelete, "/profile", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	summary = decode[nutritionResponse](t, f.do(t, http.MethodGet, "/nutrition", nil))
	assert.Equal(t, nutrition.DefaultTargets, summary.Targets)
}

func TestRecommendationsBlockingConditions(t *testing.T) {
	f := newFixture(t, stubLLM{reply: dinnerReply})

	rr := f.do(t, http.MethodPost, "/recommendations/dinner", nil)
	assert.Equal(t, http.StatusPreconditionFailed, rr.Code)
	assert.Equal(t, codeProfileRequired, decode[apiError](t, rr).Code)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPut, "/profile", profileBody()).Code)

	rr = f.do(t, http.MethodPost, "/recommendations/dinner", nil)
	assert.Equal(t, http.StatusPreconditionFailed, rr.Code)
	assert.Equal(t, codeAPIKeyRequired, decode[apiError](t, rr).Code)

	rr = f.do(t, http.MethodPost, "/recommendations/dinner", map[string]bool{"offline": true})
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[recommendResponse](t, rr)
	assert.Equal(t, recommend.SourceFallback, resp.Source)
	assert.Equal(t, recommend.Fallback(mealplan.Dinner), resp.Items)
	assert.NotEmpty(t, resp.Reason)

	rr = f.do(t, http.MethodPost, "/recommendations/elevenses", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRecommendationsLiveAndDegraded(t *testing.T) {
	f := newFixture(t, stubLLM{reply: dinnerReply})
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPut, "/profile", profileBody()).Code)
	require.Equal(t, http.StatusNoContent, f.do(t, http.MethodPut, "/settings/api-key", map[string]string{"apiKey": "k"}).Code)

	resp := decode[recommendResponse](t, f.do(t, http.MethodPost, "/recommendations/dinner", nil))
	assert.Equal(t, recommend.SourceLive, resp.Source)
	require.Len(t, resp.Items, 5)
	assert.Equal(t, "dinner", resp.Items[0].Category)
	assert.Empty(t, resp.Reason)

	f.rec.SetClient(stubLLM{err: context.DeadlineExceeded})
	resp = decode[recommendResponse](t, f.do(t, http.MethodPost, "/recommendations/lunch", nil))
	assert.Equal(t, recommend.SourceFallback, resp.Source)
	assert.Len(t, resp.Items, 5)
	assert.Equal(t, recommend.ErrServiceFailure.Error(), resp.Reason)
}

func TestAPIKeySettings(t *testing.T) {
	f := newFixture(t, stubLLM{reply: dinnerReply})

	rr := f.do(t, http.MethodPut, "/settings/api-key", map[string]string{"apiKey": "   "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodPut, "/settings/api-key", map[string]string{"apiKey": " secret "})
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, apiKeyStatus{Configured: true, Source: recommend.KeyStorage},
		decode[apiKeyStatus](t, f.do(t, http.MethodGet, "/settings/api-key", nil)))
	assert.Equal(t, "secret", f.repo.GetAPIKey(context.Background()))

	stats := decode[store.Stats](t, f.do(t, http.MethodGet, "/stats", nil))
	assert.True(t, stats.HasAPIKey)

	rr = f.do(t, http.MethodDelete, "/settings/api-key", nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.False(t, f.rec.HasAPIKey())
	assert.Equal(t, "", f.repo.GetAPIKey(context.Background()))
	assert.Equal(t, apiKeyStatus{}, decode[apiKeyStatus](t, f.do(t, http.MethodGet, "/settings/api-key", nil)))
}

func TestAPIKeyRejectedIsNotStored(t *testing.T) {
	f := newFixture(t, stubLLM{reply: dinnerReply})

	rr := f.do(t, http.MethodPut, "/settings/api-key", map[string]string{"apiKey": "bad-key"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, codeAPIKeyInvalid, decode[apiError](t, rr).Code)
	assert.Equal(t, "", f.repo.GetAPIKey(context.Background()))
	assert.False(t, f.rec.HasAPIKey())

	require.Equal(t, http.StatusNoContent, f.do(t, http.MethodPut, "/settings/api-key", map[string]string{"apiKey": "good"}).Code)
	rr = f.do(t, http.MethodPut, "/settings/api-key", map[string]string{"apiKey": "bad-again"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "good", f.repo.GetAPIKey(context.Background()))
	assert.True(t, f.rec.HasAPIKey())
}

func TestAPIKeyConfiguredKeyWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, stubLLM{reply: dinnerReply})
	f.configKey = "config-key"
	source, err := f.keys.Activate(ctx)
	require.NoError(t, err)
	require.Equal(t, recommend.KeyConfig, source)

	require.Equal(t, http.StatusNoContent, f.do(t, http.MethodPut, "/settings/api-key", map[string]string{"apiKey": "typed"}).Code)
	assert.Equal(t, "typed", f.repo.GetAPIKey(ctx))
	assert.Equal(t, apiKeyStatus{Configured: true, Source: recommend.KeyConfig},
		decode[apiKeyStatus](t, f.do(t, http.MethodGet, "/settings/api-key", nil)))

	rr := f.do(t, http.MethodDelete, "/settings/api-key", nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "", f.repo.GetAPIKey(ctx))
	assert.True(t, f.rec.HasAPIKey())
	assert.Equal(t, apiKeyStatus{Configured: true, Source: recommend.KeyConfig},
		decode[apiKeyStatus](t, f.do(t, http.MethodGet, "/settings/api-key", nil)))

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPut, "/profile", profileBody()).Code)
	resp := decode[recommendResponse](t, f.do(t, http.MethodPost, "/recommendations/dinner", nil))
	assert.Equal(t, recommend.SourceLive, resp.Source)
}

func TestExportImport(t *testing.T) {
	src := newFixture(t, nil)
	require.Equal(t, http.StatusOK, src.do(t, http.MethodPut, "/profile", profileBody()).Code)
	require.Equal(t, http.StatusOK, src.do(t, http.MethodPut, "/meals/breakfast", mealplan.FoodItem{ID: "o", Name: "Oats", Calories: 300}).Code)

	rr := src.do(t, http.MethodGet, "/export", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	exported := decode[store.ExportData](t, rr)
	require.NotNil(t, exported.PersonalInfo)
	require.Len(t, exported.Meals, 4)
	assert.Equal(t, "Oats", exported.Meals[0].Food.Name)
	assert.False(t, exported.HasAPIKey)
	assert.NotContains(t, rr.Body.String(), "apiKey\"")

	// The export body goes back in unchanged.
	dst := newFixture(t, stubLLM{reply: dinnerReply})
	rr = dst.do(t, http.MethodPost, "/import", rr.Body.String())
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	stats := decode[store.Stats](t, rr)
	assert.Equal(t, store.Stats{HasPersonalInfo: true, HasMeals: true, HasAPIKey: false, IsFirstTime: true}, stats)

	assert.Equal(t, 300, dst.plan.Totals().Calories)
	require.NotNil(t, dst.plan.PersonalInfo())
	assert.Equal(t, 2259, dst.plan.PersonalInfo().TargetCalories)
	assert.False(t, dst.rec.HasAPIKey())

	// A backup that carries a key activates it.
	rr = dst.do(t, http.MethodPost, "/import", map[string]any{"apiKey": "imported", "hasApiKey": true})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.True(t, decode[store.Stats](t, rr).HasAPIKey)
	assert.True(t, dst.rec.HasAPIKey())
	assert.Equal(t, recommend.KeyStorage, dst.keys.Source())
}

func TestImportRejectsInvalidProfile(t *testing.T) {
	f := newFixture(t, nil)
	rr := f.do(t, http.MethodPost, "/import", `{"personalInfo":{"name":"Sam"}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, f.repo.HasCompletedSetup(context.Background()))
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/meals", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rr := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestServeShutsDownOnCancel(t *testing.T) {
	f := newFixture(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.srv.Serve(ctx, ln) }()

	client := &http.Client{Timeout: 2 * time.Second}
	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = client.Get("http://" + ln.Addr().String() + "/health")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	client.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

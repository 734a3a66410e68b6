package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutriplan/internal/mealplan"
	"nutriplan/internal/nutrition"
)

func backends(t *testing.T) map[string]func(t *testing.T) KV {
	return map[string]func(t *testing.T) KV{
		"memory": func(t *testing.T) KV { return NewMemoryStore() },
		"sqlite": func(t *testing.T) KV { return openSQLite(t, ":memory:") },
	}
}

func profile() nutrition.PersonalInfo {
	return nutrition.PersonalInfo{
		Name:                "Sam",
		Age:                 30,
		Gender:              nutrition.GenderMale,
		Weight:              80,
		Height:              180,
		ActivityLevel:       nutrition.ModeratelyActive,
		Goal:                nutrition.LoseWeight,
		DietaryRestrictions: []string{"Vegan"},
		Allergies:           []string{},
		TargetCalories:      2259,
	}
}

func mealsWithLunch() []mealplan.Meal {
	meals := mealplan.DefaultMeals()
	meals[1].Food = &mealplan.FoodItem{ID: "x", Name: "Salad", Calories: 350, Protein: 25, Carbs: 15, Fat: 18, Category: "lunch"}
	meals[1].HasFood = true
	return meals
}

func TestRepositoryRecords(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := NewRepository(open(t))

			assert.Nil(t, repo.GetPersonalInfo(ctx))
			assert.Nil(t, repo.GetMeals(ctx))
			assert.Equal(t, "", repo.GetAPIKey(ctx))
			assert.True(t, repo.IsFirstTimeUser(ctx))
			assert.False(t, repo.HasCompletedSetup(ctx))

			require.NoError(t, repo.SavePersonalInfo(ctx, profile()))
			got := repo.GetPersonalInfo(ctx)
			require.NotNil(t, got)
			if diff := cmp.Diff(profile(), *got); diff != "" {
				t.Errorf("personal info mismatch (-want +got):\n%s", diff)
			}
			assert.True(t, repo.HasCompletedSetup(ctx))

			require.NoError(t, repo.SaveMeals(ctx, mealsWithLunch()))
			if diff := cmp.Diff(mealsWithLunch(), repo.GetMeals(ctx)); diff != "" {
				t.Errorf("meals mismatch (-want +got):\n%s", diff)
			}

			require.NoError(t, repo.SaveAPIKey(ctx, "  key-123 \n"))
			assert.Equal(t, "key-123", repo.GetAPIKey(ctx))
			assert.ErrorIs(t, repo.SaveAPIKey(ctx, "   "), ErrEmptyAPIKey)

			require.NoError(t, repo.SetFirstTimeUser(ctx, false))
			assert.False(t, repo.IsFirstTimeUser(ctx))

			require.NoError(t, repo.ClearPersonalInfo(ctx))
			assert.Nil(t, repo.GetPersonalInfo(ctx))
			require.NoError(t, repo.ClearMeals(ctx))
			assert.Nil(t, repo.GetMeals(ctx))
			require.NoError(t, repo.ClearAPIKey(ctx))
			assert.Equal(t, "", repo.GetAPIKey(ctx))
		})
	}
}

func TestRepositoryStoredFormats(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryStore()
	repo := NewRepository(kv)

	require.NoError(t, repo.SaveAPIKey(ctx, "bare"))
	require.NoError(t, repo.SetFirstTimeUser(ctx, false))
	require.NoError(t, repo.SaveMeals(ctx, nil))

	raw, _, _ := kv.Get(ctx, KeyAPIKey)
	assert.Equal(t, "bare", string(raw))
	raw, _, _ = kv.Get(ctx, KeyFirstTimeUser)
	assert.Equal(t, "false", string(raw))
	raw, _, _ = kv.Get(ctx, KeyMeals)
	assert.Equal(t, "[]", string(raw))
	assert.Equal(t, []mealplan.Meal{}, repo.GetMeals(ctx))
}

func TestRepositoryCorruptRecordIsNoData(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryStore()
	require.NoError(t, kv.Set(ctx, KeyPersonalInfo, []byte("{not json")))
	require.NoError(t, kv.Set(ctx, KeyFirstTimeUser, []byte("maybe")))

	repo := NewRepository(kv)
	assert.Nil(t, repo.GetPersonalInfo(ctx))
	assert.True(t, repo.IsFirstTimeUser(ctx))
}

func TestRepositoryClearAll(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(NewMemoryStore())
	require.NoError(t, repo.SavePersonalInfo(ctx, profile()))
	require.NoError(t, repo.SaveMeals(ctx, mealsWithLunch()))
	require.NoError(t, repo.SaveAPIKey(ctx, "k"))
	require.NoError(t, repo.SetFirstTimeUser(ctx, false))

	require.NoError(t, repo.ClearAll(ctx))
	assert.Equal(t, Stats{IsFirstTime: true}, repo.Stats(ctx))
}

func TestRepositoryExportImport(t *testing.T) {
	ctx := context.Background()
	src := NewRepository(NewMemoryStore())
	require.NoError(t, src.SavePersonalInfo(ctx, profile()))
	require.NoError(t, src.SaveMeals(ctx, mealsWithLunch()))
	require.NoError(t, src.SaveAPIKey(ctx, "secret"))

	exported := src.Export(ctx)
	assert.True(t, exported.HasAPIKey)
	require.NotNil(t, exported.PersonalInfo)

	dst := NewRepository(NewMemoryStore())
	require.NoError(t, dst.Import(ctx, ImportData{
		PersonalInfo: exported.PersonalInfo,
		Meals:        exported.Meals,
	}))

	assert.Equal(t, Stats{HasPersonalInfo: true, HasMeals: true, HasAPIKey: false, IsFirstTime: true}, dst.Stats(ctx))
	if diff := cmp.Diff(src.Export(ctx).Meals, dst.Export(ctx).Meals); diff != "" {
		t.Errorf("meals differ after import (-src +dst):\n%s", diff)
	}

	// Partial import leaves other records alone.
	require.NoError(t, dst.Import(ctx, ImportData{APIKey: "new"}))
	assert.Equal(t, "new", dst.GetAPIKey(ctx))
	assert.NotNil(t, dst.GetPersonalInfo(ctx))
}

func TestExportDecodesAsImport(t *testing.T) {
	ctx := context.Background()
	src := NewRepository(NewMemoryStore())
	require.NoError(t, src.SavePersonalInfo(ctx, profile()))
	require.NoError(t, src.SaveMeals(ctx, mealsWithLunch()))
	require.NoError(t, src.SaveAPIKey(ctx, "secret"))

	raw, err := json.Marshal(src.Export(ctx))
	require.NoError(t, err)

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var data ImportData
	require.NoError(t, dec.Decode(&data))
	assert.Empty(t, data.APIKey)

	dst := NewRepository(NewMemoryStore())
	require.NoError(t, dst.Import(ctx, data))
	assert.Equal(t, Stats{HasPersonalInfo: true, HasMeals: true, IsFirstTime: true}, dst.Stats(ctx))
}

func TestRepositoryExportEmpty(t *testing.T) {
	repo := NewRepository(NewMemoryStore())
	assert.Equal(t, ExportData{}, repo.Export(context.Background()))
}

// failingKV fails every operation.
type failingKV struct{ err error }

func (f failingKV) Get(context.Context, string) ([]byte, bool, error) { return nil, false, f.err }
func (f failingKV) Set(context.Context, string, []byte) error          { return f.err }
func (f failingKV) Delete(context.Context, string) error               { return f.err }
func (f failingKV) Close() error                                       { return nil }

func TestRepositoryDegradesOnStorageFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk on fire")
	repo := NewRepository(failingKV{err: boom})

	assert.Nil(t, repo.GetPersonalInfo(ctx))
	assert.Nil(t, repo.GetMeals(ctx))
	assert.Equal(t, "", repo.GetAPIKey(ctx))
	assert.True(t, repo.IsFirstTimeUser(ctx))
	assert.False(t, repo.HasCompletedSetup(ctx))
	assert.Equal(t, Stats{IsFirstTime: true}, repo.Stats(ctx))
	assert.Equal(t, ExportData{}, repo.Export(ctx))

	assert.ErrorIs(t, repo.SaveMeals(ctx, mealsWithLunch()), boom)
	assert.ErrorIs(t, repo.SavePersonalInfo(ctx, profile()), boom)
	assert.ErrorIs(t, repo.ClearAll(ctx), boom)
	assert.ErrorIs(t, repo.Import(ctx, ImportData{APIKey: "k"}), boom)
}

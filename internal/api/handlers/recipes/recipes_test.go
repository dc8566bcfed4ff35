package recipes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meal-planner/internal/core/match"
	"meal-planner/internal/core/variation"
	"meal-planner/internal/infrastructure/store"
	"meal-planner/internal/pkg/common"
)

type scriptedCompleter struct {
	response string
	err      error
}

func (s *scriptedCompleter) Complete(context.Context, string) (string, error) {
	return s.response, s.err
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	common.Logger = zap.NewNop()
	os.Exit(m.Run())
}

func setupRouter(st *store.MemoryStore) *gin.Engine {
	return setupRouterAI(st, &scriptedCompleter{})
}

func setupRouterAI(st *store.MemoryStore, ai variation.Completer) *gin.Engine {
	handler := NewHandler(st, match.NewScorer(nil), variation.NewService(ai))
	r := gin.New()
	r.GET("/recipes", handler.HandleList)
	r.DELETE("/recipes", handler.HandleClearRecipes)
	r.POST("/recipes/recalculate", handler.HandleRecalculate)
	r.GET("/recipes/:id", handler.HandleGet)
	r.DELETE("/recipes/:id", handler.HandleDelete)
	r.POST("/recipes/:id/variations", handler.HandleVariations)
	r.POST("/recipes/:id/ratings", handler.HandleAddRating)
	r.GET("/recipes/:id/ratings", handler.HandleListRatings)
	return r
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedRecipe(t *testing.T, st *store.MemoryStore, title string) string {
	t.Helper()
	id, err := st.SaveGeneratedRecipe(context.Background(), common.RecipeCandidate{
		Title:        title,
		Cuisine:      "Italian",
		Ingredients:  []string{"1 cup pasta"},
		Instructions: []string{"Boil."},
	}, "https://img/x", "prompt")
	require.NoError(t, err)
	return id
}

func TestListAndGetRecipes(t *testing.T) {
	st := store.NewMemoryStore()
	r := setupRouter(st)
	id := seedRecipe(t, st, "Pasta Night")

	w := doJSON(r, http.MethodGet, "/recipes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Recipes []store.RecipeView `json:"recipes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Recipes, 1)
	assert.Equal(t, "Pasta Night", listed.Recipes[0].Title)

	w = doJSON(r, http.MethodGet, "/recipes/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/recipes/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteRecipe(t *testing.T) {
	st := store.NewMemoryStore()
	r := setupRouter(st)
	id := seedRecipe(t, st, "Doomed Dish")

	w := doJSON(r, http.MethodDelete, "/recipes/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(r, http.MethodDelete, "/recipes/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClearRecipes(t *testing.T) {
	st := store.NewMemoryStore()
	r := setupRouter(st)
	id := seedRecipe(t, st, "Dish A")
	seedRecipe(t, st, "Dish B")
	_, err := st.AddRating(context.Background(), id, "m1", 4, "good")
	require.NoError(t, err)

	w := doJSON(r, http.MethodDelete, "/recipes", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	recipes, err := st.ListRecipes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recipes)

	ratings, err := st.ListRatings(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, ratings)
}

func TestVariations(t *testing.T) {
	st := store.NewMemoryStore()
	ai := &scriptedCompleter{response: `[
		{
			"proteinSubstitution": "tofu instead of chicken",
			"modifiedTitle": "Tofu Pasta Night",
			"modifiedIngredients": ["1 cup pasta", "200g tofu"],
			"modifiedInstructions": ["Boil.", "Pan fry the tofu."],
			"notes": "Press the tofu first."
		}
	]`}
	r := setupRouterAI(st, ai)
	id := seedRecipe(t, st, "Pasta Night")

	w := doJSON(r, http.MethodPost, "/recipes/"+id+"/variations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Variations []variation.Variation `json:"variations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Variations, 1)
	assert.Equal(t, "Tofu Pasta Night", resp.Variations[0].ModifiedTitle)

	w = doJSON(r, http.MethodPost, "/recipes/missing/variations", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVariationsUnparseableReply(t *testing.T) {
	st := store.NewMemoryStore()
	r := setupRouterAI(st, &scriptedCompleter{response: "sorry, I cannot help with that"})
	id := seedRecipe(t, st, "Pasta Night")

	w := doJSON(r, http.MethodPost, "/recipes/"+id+"/variations", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to parse AI response")
}

func TestAddRating(t *testing.T) {
	st := store.NewMemoryStore()
	r := setupRouter(st)
	id := seedRecipe(t, st, "Rated Dish")

	w := doJSON(r, http.MethodPost, "/recipes/"+id+"/ratings", gin.H{
		"familyMemberId": "m1",
		"score":          5,
		"comment":        "loved it",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var rating store.RatingView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rating))
	assert.Equal(t, 5, rating.Score)
	assert.Equal(t, "loved it", rating.Comment)

	w = doJSON(r, http.MethodGet, "/recipes/"+id+"/ratings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Ratings []store.RatingView `json:"ratings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed.Ratings, 1)
}

func TestAddRatingValidation(t *testing.T) {
	st := store.NewMemoryStore()
	r := setupRouter(st)
	id := seedRecipe(t, st, "Any Dish")

	cases := []struct {
		name string
		body gin.H
		want int
	}{
		{"ScoreTooHigh", gin.H{"familyMemberId": "m1", "score": 6}, http.StatusBadRequest},
		{"ScoreTooLow", gin.H{"familyMemberId": "m1", "score": -1}, http.StatusBadRequest},
		{"MissingMember", gin.H{"score": 3}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/recipes/"+id+"/ratings", tc.body)
			assert.Equal(t, tc.want, w.Code)
		})
	}

	w := doJSON(r, http.MethodPost, "/recipes/missing/ratings", gin.H{
		"familyMemberId": "m1",
		"score":          3,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecalculate(t *testing.T) {
	st := store.NewMemoryStore()
	r := setupRouter(st)
	seedRecipe(t, st, "Dish A")
	seedRecipe(t, st, "Dish B")

	w := doJSON(r, http.MethodPost, "/recipes/recalculate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Updated int `json:"updated"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Updated)
}

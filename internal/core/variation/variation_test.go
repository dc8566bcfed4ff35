package variation

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"meal-planner/internal/pkg/common"
)

func TestMain(m *testing.M) {
	common.Logger = zap.NewNop()
	os.Exit(m.Run())
}

type fakeCompleter struct {
	response string
	err      error
	prompt   string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

const validVariations = `[
	{
		"proteinSubstitution": "tofu instead of chicken",
		"modifiedTitle": "Tofu Stir Fry",
		"modifiedIngredients": ["400g firm tofu", "2 tbsp soy sauce"],
		"modifiedInstructions": ["Press the tofu.", "Stir fry for 6 minutes."],
		"notes": "Tofu absorbs the sauce well."
	},
	{
		"proteinSubstitution": "shrimp instead of chicken",
		"modifiedTitle": "Shrimp Stir Fry",
		"modifiedIngredients": ["300g shrimp", "2 tbsp soy sauce"],
		"modifiedInstructions": ["Peel the shrimp.", "Stir fry for 3 minutes."],
		"notes": "Shrimp cooks faster, watch the time."
	}
]`

func testInput() Input {
	return Input{
		Title:        "Chicken Stir Fry",
		Description:  "Quick weeknight stir fry",
		Cuisine:      "Chinese",
		Ingredients:  []string{"2 chicken breasts", "2 tbsp soy sauce"},
		Instructions: []string{"Slice the chicken.", "Stir fry for 5 minutes."},
	}
}

func TestBuildPromptIncludesRecipe(t *testing.T) {
	prompt := BuildPrompt(testInput())

	assert.Contains(t, prompt, "Title: Chicken Stir Fry")
	assert.Contains(t, prompt, "Cuisine: Chinese")
	assert.Contains(t, prompt, "1. 2 chicken breasts")
	assert.Contains(t, prompt, "2. Stir fry for 5 minutes.")
	assert.Contains(t, prompt, "3-5 variations")
	assert.Contains(t, prompt, "Return ONLY valid JSON")

	// 相同輸入要產生相同 prompt，快取層才有意義
	assert.Equal(t, prompt, BuildPrompt(testInput()))
}

func TestParseCleanArray(t *testing.T) {
	vars, err := Parse(validVariations)
	require.NoError(t, err)
	require.Len(t, vars, 2)

	assert.Equal(t, "tofu instead of chicken", vars[0].ProteinSubstitution)
	assert.Equal(t, "Tofu Stir Fry", vars[0].ModifiedTitle)
	assert.Len(t, vars[0].ModifiedIngredients, 2)
	assert.Equal(t, "Shrimp cooks faster, watch the time.", vars[1].Notes)
}

func TestParseFencedWithChatter(t *testing.T) {
	raw := "Here are your variations:\n```json\n" + validVariations + "\n```\nEnjoy!"
	vars, err := Parse(raw)
	require.NoError(t, err)
	assert.Len(t, vars, 2)
}

func TestParseSkipsEmptyEntries(t *testing.T) {
	raw := `[
		{"proteinSubstitution": "", "modifiedTitle": "Nameless"},
		{"proteinSubstitution": "pork instead of beef", "modifiedTitle": "Pork Version", "notes": "Works fine."}
	]`
	vars, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, vars, 1)
	assert.Equal(t, "Pork Version", vars[0].ModifiedTitle)
}

func TestParseGarbageIsParseError(t *testing.T) {
	for _, raw := range []string{"not json at all", "[]", `[{"proteinSubstitution": "", "modifiedTitle": ""}]`} {
		_, err := Parse(raw)
		assert.ErrorIs(t, err, common.ErrParseError, "raw: %s", raw)
	}
}

func TestGenerate(t *testing.T) {
	ai := &fakeCompleter{response: validVariations}
	svc := NewService(ai)

	vars, err := svc.Generate(context.Background(), testInput())
	require.NoError(t, err)
	assert.Len(t, vars, 2)
	assert.True(t, strings.Contains(ai.prompt, "Chicken Stir Fry"))
}

func TestGeneratePropagatesCompleterError(t *testing.T) {
	boom := errors.New("upstream down")
	svc := NewService(&fakeCompleter{err: boom})

	_, err := svc.Generate(context.Background(), testInput())
	assert.ErrorIs(t, err, boom)
}

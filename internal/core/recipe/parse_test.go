package recipe

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResultStripsCodeFence(t *testing.T) {
	result, err := ParseResult("```json\n{\"recipes\":[],\"total_recipes\":0}\n```")
	require.NoError(t, err)
	assert.Equal(t, &Result{Recipes: []Recipe{}, TotalRecipes: 0}, result)
}

func TestParseResultFindsObjectInProse(t *testing.T) {
	content := `Sure! Here is the JSON:
{"recipes":[{"name":"Pancakes","serve":4,"ingrediants":{"flour":"1 cup","egg":"1"},"steps":["mix","fry"],"recipe_number":"1"}],"total_recipes":1}
Enjoy!`
	result, err := ParseResult(content)
	require.NoError(t, err)

	require.Len(t, result.Recipes, 1)
	r := result.Recipes[0]
	assert.Equal(t, FlexString("Pancakes"), r.Name)
	assert.Equal(t, FlexString("4"), r.Serve)
	assert.Equal(t, Ingredients{{Name: "flour", Quantity: "1 cup"}, {Name: "egg", Quantity: "1"}}, r.Ingredients)
	assert.Equal(t, []FlexString{"mix", "fry"}, r.Steps)
	assert.Equal(t, FlexInt(1), r.RecipeNumber)
	assert.Equal(t, 1, result.TotalRecipes)
}

func TestParseResultWrapsSingleRecipe(t *testing.T) {
	result, err := ParseResult(`{"name":"Soup","steps":["boil"]}`)
	require.NoError(t, err)
	require.Len(t, result.Recipes, 1)
	assert.Equal(t, FlexString("Soup"), result.Recipes[0].Name)
	assert.Equal(t, 1, result.TotalRecipes)
}

func TestParseResultDefaultsTotal(t *testing.T) {
	result, err := ParseResult(`{"recipes":[{"name":"a"},{"name":"b"}]}`)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalRecipes)
}

func TestParseResultRejectsGarbage(t *testing.T) {
	_, err := ParseResult("I could not find a recipe.")
	assert.ErrorIs(t, err, ErrNoJSON)

	_, err = ParseResult("{not json}")
	assert.ErrorIs(t, err, ErrNoJSON)

	_, err = ParseResult(`["a"]`)
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestFlexStringAcceptsOtherTypes(t *testing.T) {
	var r Recipe
	require.NoError(t, json.Unmarshal([]byte(`{
		"prepTime": 10,
		"difficulty": true,
		"suggestTags": ["#quick", "#vegan"],
		"nutritions": {"calories": 250, "protein": "5g"},
		"costPerServe": null,
		"steps": ["a", {"step": 2}]
	}`), &r))

	assert.Equal(t, FlexString("10"), r.PrepTime)
	assert.Equal(t, FlexString("true"), r.Difficulty)
	assert.Equal(t, FlexString("#quick, #vegan"), r.SuggestTags)
	assert.Equal(t, FlexString("250"), r.Nutritions["calories"])
	assert.Equal(t, FlexString(""), r.CostPerServe)
	assert.Equal(t, []FlexString{"a", `{"step":2}`}, r.Steps)
}

func TestIngredientsFromArray(t *testing.T) {
	var in Ingredients
	require.NoError(t, json.Unmarshal([]byte(`["2 eggs", {"name":"milk","quantity":"1 cup"}, {"name":"salt","amount":"pinch"}]`), &in))
	assert.Equal(t, Ingredients{
		{Name: "2 eggs"},
		{Name: "milk", Quantity: "1 cup"},
		{Name: "salt", Quantity: "pinch"},
	}, in)
}

func TestIngredientsMarshalKeepsOrder(t *testing.T) {
	out, err := json.Marshal(Ingredients{{Name: "zucchini", Quantity: "1"}, {Name: "apple", Quantity: "2"}})
	require.NoError(t, err)
	assert.Equal(t, `{"zucchini":"1","apple":"2"}`, string(out))

	out, err = json.Marshal(Ingredients(nil))
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(out))
}

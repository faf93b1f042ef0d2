package recipe

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"recipe-scraper/internal/pkg/common"
)

// ErrNoJSON 模型回覆中找不到可解析的 JSON
var ErrNoJSON = errors.New("no valid JSON in model response")

// ParseResult 解析模型回覆：先移除 code block，失敗時改取第一個 '{' 到最後一個 '}'
func ParseResult(content string) (*Result, error) {
	cleaned := common.StripCodeFence(strings.TrimSpace(content))

	raw, err := decodeObject(cleaned)
	if err != nil {
		candidate := common.ExtractJSONObject(cleaned)
		if candidate == "" {
			return nil, ErrNoJSON
		}
		if raw, err = decodeObject(candidate); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoJSON, err)
		}
	}

	return fromObject(raw)
}

func decodeObject(s string) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := common.ParseJSON(s, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("not a JSON object")
	}
	return raw, nil
}

func fromObject(raw map[string]json.RawMessage) (*Result, error) {
	result := EmptyResult()

	switch {
	case raw["recipes"] != nil:
		var recipes []Recipe
		if err := json.Unmarshal(raw["recipes"], &recipes); err != nil {
			return nil, fmt.Errorf("invalid recipes: %w", err)
		}
		if recipes != nil {
			result.Recipes = recipes
		}
	case raw["name"] != nil || raw["ingrediants"] != nil || raw["steps"] != nil:
		// 模型直接回傳單一食譜
		body, err := json.Marshal(raw)
		if err != nil {
			return nil, err
		}
		var single Recipe
		if err := json.Unmarshal(body, &single); err != nil {
			return nil, fmt.Errorf("invalid recipe: %w", err)
		}
		result.Recipes = []Recipe{single}
	}

	result.TotalRecipes = len(result.Recipes)
	if rawTotal, ok := raw["total_recipes"]; ok && string(rawTotal) != "null" {
		var total FlexInt
		if err := json.Unmarshal(rawTotal, &total); err == nil {
			result.TotalRecipes = int(total)
		}
	}

	var errMsg, message FlexString
	if v, ok := raw["error"]; ok && json.Unmarshal(v, &errMsg) == nil {
		result.Error = string(errMsg)
	}
	if v, ok := raw["message"]; ok && json.Unmarshal(v, &message) == nil {
		result.Message = string(message)
	}

	return result, nil
}

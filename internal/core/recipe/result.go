package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Result 食譜抽取結果
type Result struct {
	Recipes      []Recipe `json:"recipes"`
	TotalRecipes int      `json:"total_recipes"`
	Error        string   `json:"error,omitempty"`
	Message      string   `json:"message,omitempty"`
}

// EmptyResult 沒有抽取到任何食譜
func EmptyResult() *Result {
	return &Result{Recipes: []Recipe{}}
}

// ErrorResult 帶錯誤訊息的空結果
func ErrorResult(msg string) *Result {
	return &Result{Recipes: []Recipe{}, Error: msg}
}

// Recipe 單一食譜，欄位名稱沿用抽取 prompt 的輸出格式
type Recipe struct {
	Name         FlexString            `json:"name"`
	PrepTime     FlexString            `json:"prepTime"`
	CookTime     FlexString            `json:"cookTime"`
	Serve        FlexString            `json:"serve"`
	Difficulty   FlexString            `json:"difficulty"`
	SuggestTags  FlexString            `json:"suggestTags"`
	Ingredients  Ingredients           `json:"ingrediants"`
	Description  FlexString            `json:"description"`
	Image        FlexString            `json:"image"`
	Steps        []FlexString          `json:"steps"`
	Nutritions   map[string]FlexString `json:"nutritions"`
	CostPerServe FlexString            `json:"costPerServe"`
	RecipeNumber FlexInt               `json:"recipe_number,omitempty"`
}

// FlexString 接受字串、數字、布林、陣列或物件的字串欄位
type FlexString string

// UnmarshalJSON 將非字串值轉為文字
func (f *FlexString) UnmarshalJSON(data []byte) error {
	s, err := flattenJSON(data)
	if err != nil {
		return err
	}
	*f = FlexString(s)
	return nil
}

func flattenJSON(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return "", err
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			s, err := flattenJSON(item)
			if err != nil {
				return "", err
			}
			if s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", "), nil
	case '{':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	// 數字與布林
	return string(data), nil
}

// FlexInt 接受數字或數字字串
type FlexInt int

// UnmarshalJSON 解析數字、數字字串或 null
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s, err := flattenJSON(data)
	if err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %q", s)
	}
	*f = FlexInt(n)
	return nil
}

// Ingredient 食材與份量
type Ingredient struct {
	Name     string
	Quantity string
}

// Ingredients 依模型輸出順序保存的食材
type Ingredients []Ingredient

// UnmarshalJSON 接受 {"name": "qty"} 物件或字串/物件陣列
func (in *Ingredients) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*in = nil
		return nil
	}

	switch data[0] {
	case '{':
		dec := json.NewDecoder(bytes.NewReader(data))
		if _, err := dec.Token(); err != nil {
			return err
		}
		var out Ingredients
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return err
			}
			name, _ := keyTok.(string)
			var qty FlexString
			if err := dec.Decode(&qty); err != nil {
				return err
			}
			out = append(out, Ingredient{Name: name, Quantity: string(qty)})
		}
		*in = out
		return nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make(Ingredients, 0, len(items))
		for _, item := range items {
			var obj struct {
				Name     FlexString `json:"name"`
				Quantity FlexString `json:"quantity"`
				Amount   FlexString `json:"amount"`
			}
			if t := bytes.TrimSpace(item); len(t) > 0 && t[0] == '{' {
				if err := json.Unmarshal(item, &obj); err != nil {
					return err
				}
				qty := obj.Quantity
				if qty == "" {
					qty = obj.Amount
				}
				out = append(out, Ingredient{Name: string(obj.Name), Quantity: string(qty)})
				continue
			}
			s, err := flattenJSON(item)
			if err != nil {
				return err
			}
			out = append(out, Ingredient{Name: s})
		}
		*in = out
		return nil
	}

	s, err := flattenJSON(data)
	if err != nil {
		return err
	}
	*in = Ingredients{{Name: s}}
	return nil
}

// MarshalJSON 輸出為保留順序的物件
func (in Ingredients) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, item := range in {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(item.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(item.Quantity)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

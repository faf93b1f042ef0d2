package recipe

import (
	"fmt"
	"strings"

	"recipe-scraper/internal/core/scraper"
	"recipe-scraper/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	truncatedMarker    = "\n\n[Truncated]"
	noContentAvailable = "No content available"
)

// PromptData prompt 需要的欄位
type PromptData struct {
	Title            string
	Publisher        string
	Platform         string
	IsCarousel       bool
	Caption          string
	PublisherComment string
	Transcript       string
}

// FromDocument 由社群貼文文件取出 prompt 欄位
func FromDocument(doc *scraper.Document) PromptData {
	return PromptData{
		Title:            doc.Title,
		Publisher:        doc.PublisherName,
		Platform:         doc.Platform,
		IsCarousel:       doc.IsCarousel,
		Caption:          doc.Caption,
		PublisherComment: doc.PublisherComment,
		Transcript:       doc.Transcript,
	}
}

// PromptBuilder 組裝食譜抽取 prompt
type PromptBuilder struct {
	MaxTranscriptLength int
}

// NewPromptBuilder 創建 prompt 組裝器
func NewPromptBuilder(maxTranscriptLength int) *PromptBuilder {
	return &PromptBuilder{MaxTranscriptLength: maxTranscriptLength}
}

// Build 產生抽取 prompt，相同輸入永遠得到相同輸出
func (b *PromptBuilder) Build(data PromptData) string {
	transcript, truncated := common.Truncate(data.Transcript, b.MaxTranscriptLength, truncatedMarker)
	if truncated {
		common.LogInfo("Transcript truncated", zap.Int("max_chars", b.MaxTranscriptLength))
	}

	var parts []string
	if data.Caption != "" {
		parts = append(parts, "Caption/Description:\n"+data.Caption)
	}
	if data.PublisherComment != "" {
		parts = append(parts, "\nPublisher's Comment:\n"+data.PublisherComment)
	}
	if transcript != "" {
		parts = append(parts, "\nTranscript:\n"+transcript)
	}
	content := strings.Join(parts, "\n\n")
	if content == "" {
		content = noContentAvailable
	}

	postType := "single post"
	if data.IsCarousel {
		postType = "carousel"
	}

	return fmt.Sprintf(promptTemplate,
		orDefault(data.Title, "Untitled"),
		orDefault(data.Publisher, "Unknown"),
		orDefault(data.Platform, "unknown"),
		postType,
		content,
	)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

const promptTemplate = `Extract ALL recipes from this cooking content.

POST INFORMATION:
Title: %s
Publisher: %s
Platform: %s
Type: %s

CONTENT:
%s

INSTRUCTIONS:
1. If NOT cooking-related, return: {"recipes": [], "total_recipes": 0}
2. Return ONLY valid JSON (no markdown)
3. Expand all cooking instructions into detailed, step-by-step actions:
break each step into small, clear actions
include heat levels (low / medium / high)
include estimated times (2-3 min, until golden)
add texture / aroma cues (soft, crispy, fragrant)
add all implied steps (cutting, mixing, heating pans, etc.)

4. Ingredient list should be complete:
include all visible/spoken ingredients
make reasonable quantity estimates
keep notes short (max 50 chars)
NEVER leave quantity or notes empty
If notes missing, add short functional note (for flavor, for seasoning, for garnish, adds heat)
5. Translate EVERYTHING to English
6. Use sequential numbering: recipe_number: 1, 2, 3

OUTPUT JSON:
{
  "name": "",
  "prepTime": "", 
  "cookTime": "",
  "serve": "4",
  "difficulty": "2",
  "suggestTags": "[#fastfood]",
  "ingrediants": {
    "salt": "1 tea spoon"
  },
  "description": "This is the Recipe for Homemade Panipuri.",
  "image": "http://google.com",
  "steps": [
    "boil potatos",
    "smash and mix with herbs"
  ],
  "nutritions": {},
  "costPerServe": "string"
}
`

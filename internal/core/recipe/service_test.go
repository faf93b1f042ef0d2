package recipe

import (
	"context"
	"errors"
	"strings"
	"testing"

	"recipe-scraper/internal/core/article"
	"recipe-scraper/internal/core/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockExtractor struct{ mock.Mock }

func (m *mockExtractor) ExtractRecipes(ctx context.Context, prompt string) (*Result, error) {
	args := m.Called(prompt)
	result, _ := args.Get(0).(*Result)
	return result, args.Error(1)
}

type mockOCR struct{ mock.Mock }

func (m *mockOCR) ExtractText(ctx context.Context, image []byte) (string, error) {
	args := m.Called(image)
	return args.String(0), args.Error(1)
}

type mockCollector struct{ mock.Mock }

func (m *mockCollector) Collect(ctx context.Context, url string) (*scraper.Document, error) {
	args := m.Called(url)
	doc, _ := args.Get(0).(*scraper.Document)
	return doc, args.Error(1)
}

type mockFetcher struct{ mock.Mock }

func (m *mockFetcher) Fetch(ctx context.Context, url string) (*article.Article, error) {
	args := m.Called(url)
	art, _ := args.Get(0).(*article.Article)
	return art, args.Error(1)
}

func oneRecipe() *Result {
	return &Result{Recipes: []Recipe{{Name: "Pancakes"}}, TotalRecipes: 1}
}

func TestImageServiceNoTextSkipsExtraction(t *testing.T) {
	ocr := &mockOCR{}
	ocr.On("ExtractText", []byte("img")).Return("   \n", nil)
	extractor := &mockExtractor{}

	result := NewImageService(ocr, extractor, NewPromptBuilder(20000), 15000).Process(context.Background(), []byte("img"))

	assert.Equal(t, &Result{Recipes: []Recipe{}, TotalRecipes: 0, Error: "No text found in image"}, result)
	extractor.AssertNotCalled(t, "ExtractRecipes", mock.Anything)
}

func TestImageServiceOCRFailure(t *testing.T) {
	ocr := &mockOCR{}
	ocr.On("ExtractText", mock.Anything).Return("", errors.New("groq down"))
	extractor := &mockExtractor{}

	result := NewImageService(ocr, extractor, NewPromptBuilder(20000), 15000).Process(context.Background(), []byte("img"))
	assert.Equal(t, "No text found in image", result.Error)
	extractor.AssertNotCalled(t, "ExtractRecipes", mock.Anything)
}

func TestImageServiceTruncatesAndExtracts(t *testing.T) {
	ocr := &mockOCR{}
	ocr.On("ExtractText", mock.Anything).Return(strings.Repeat("x", 30), nil)
	extractor := &mockExtractor{}
	extractor.On("ExtractRecipes", mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Title: Image Recipe") &&
			strings.Contains(p, "Platform: image") &&
			strings.Contains(p, strings.Repeat("x", 10)+"\n\n[Text truncated]") &&
			!strings.Contains(p, strings.Repeat("x", 11))
	})).Return(oneRecipe(), nil)

	result := NewImageService(ocr, extractor, NewPromptBuilder(20000), 10).Process(context.Background(), []byte("img"))
	assert.Equal(t, oneRecipe(), result)
	extractor.AssertExpectations(t)
}

func TestImageServiceNoRecipes(t *testing.T) {
	ocr := &mockOCR{}
	ocr.On("ExtractText", mock.Anything).Return("some text", nil)
	extractor := &mockExtractor{}
	extractor.On("ExtractRecipes", mock.Anything).Return(nil, ErrNoJSON)

	result := NewImageService(ocr, extractor, NewPromptBuilder(20000), 15000).Process(context.Background(), []byte("img"))
	assert.Equal(t, &Result{Recipes: []Recipe{}, Message: "No recipes found in image"}, result)
}

func TestArticleServiceEmptyText(t *testing.T) {
	extractor := &mockExtractor{}
	result := NewArticleService(nil, extractor, NewPromptBuilder(20000)).Process(context.Background(), "  \n ")
	assert.Equal(t, "Empty text provided", result.Error)
	extractor.AssertNotCalled(t, "ExtractRecipes", mock.Anything)
}

func TestArticleServicePlainText(t *testing.T) {
	extractor := &mockExtractor{}
	extractor.On("ExtractRecipes", mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Title: Article\nPublisher: Unknown\nPlatform: article") &&
			strings.Contains(p, "Caption/Description:\nMix flour and water")
	})).Return(oneRecipe(), nil)
	fetcher := &mockFetcher{}

	result := NewArticleService(fetcher, extractor, NewPromptBuilder(20000)).Process(context.Background(), "Mix flour and water")
	assert.Equal(t, oneRecipe(), result)
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything)
}

func TestArticleServiceFetchesURL(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("Fetch", "https://blog.example.com/bread").Return(&article.Article{
		Title:    "Bread",
		SiteName: "Example Blog",
		Text:     "Knead the dough",
	}, nil)
	extractor := &mockExtractor{}
	extractor.On("ExtractRecipes", mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Title: Bread\nPublisher: Example Blog") && strings.Contains(p, "Knead the dough")
	})).Return(oneRecipe(), nil)

	result := NewArticleService(fetcher, extractor, NewPromptBuilder(20000)).Process(context.Background(), " https://blog.example.com/bread ")
	assert.Equal(t, oneRecipe(), result)
}

func TestArticleServiceFetchFailure(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("Fetch", mock.Anything).Return(nil, errors.New("status 404"))
	extractor := &mockExtractor{}

	result := NewArticleService(fetcher, extractor, NewPromptBuilder(20000)).Process(context.Background(), "https://blog.example.com/missing")
	assert.Equal(t, "Failed to fetch article: status 404", result.Error)
	extractor.AssertNotCalled(t, "ExtractRecipes", mock.Anything)
}

func TestArticleServiceNoRecipes(t *testing.T) {
	extractor := &mockExtractor{}
	extractor.On("ExtractRecipes", mock.Anything).Return(nil, errors.New("boom"))

	result := NewArticleService(nil, extractor, NewPromptBuilder(20000)).Process(context.Background(), "text")
	assert.Equal(t, EmptyResult(), result)
}

func TestSocialServiceUnsupportedPlatform(t *testing.T) {
	collector := &mockCollector{}
	result := NewSocialService(collector, &mockExtractor{}, NewPromptBuilder(20000)).Process(context.Background(), "https://example.com/post")
	assert.Equal(t, "Platform 'unknown' is not supported", result.Error)
	collector.AssertNotCalled(t, "Collect", mock.Anything)
}

func TestSocialServiceMetadataFailure(t *testing.T) {
	collector := &mockCollector{}
	collector.On("Collect", mock.Anything).Return(nil, scraper.ErrNoMetadata)

	result := NewSocialService(collector, &mockExtractor{}, NewPromptBuilder(20000)).Process(context.Background(), "https://www.instagram.com/p/abc/")
	assert.Equal(t, ErrorResult("Failed to extract metadata"), result)
}

func TestSocialServiceExtractsFromDocument(t *testing.T) {
	collector := &mockCollector{}
	collector.On("Collect", "https://youtu.be/abc").Return(&scraper.Document{
		Title:         "Pasta",
		PublisherName: "Chef",
		Platform:      "youtube",
		Caption:       "Pasta",
		Transcript:    "boil water",
	}, nil)
	extractor := &mockExtractor{}
	extractor.On("ExtractRecipes", mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "\nTranscript:\nboil water")
	})).Return(oneRecipe(), nil)

	result := NewSocialService(collector, extractor, NewPromptBuilder(20000)).Process(context.Background(), "https://youtu.be/abc")
	assert.Equal(t, oneRecipe(), result)
}

func TestSocialServiceEmptyExtraction(t *testing.T) {
	collector := &mockCollector{}
	collector.On("Collect", mock.Anything).Return(&scraper.Document{Caption: "No caption"}, nil)
	extractor := &mockExtractor{}
	extractor.On("ExtractRecipes", mock.Anything).Return(nil, ErrNoJSON)

	result := NewSocialService(collector, extractor, NewPromptBuilder(20000)).Process(context.Background(), "https://www.tiktok.com/@a/video/1")
	assert.Equal(t, &Result{Recipes: []Recipe{}, TotalRecipes: 0}, result)
}

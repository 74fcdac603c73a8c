package ai

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/pkg/logger"
)

type fakeGenerator struct {
	text   string
	err    error
	calls  int
	model  string
	config *genai.GenerateContentConfig
	prompt string
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	f.config = cfg
	f.prompt = contents[0].Parts[0].Text
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: f.text}}},
		}},
	}, nil
}

func TestGeminiClient_Generate(t *testing.T) {
	gen := &fakeGenerator{text: "```json\n{\"saludo_personalizado\":\"Hola\",\"receta\":{\"recetas\":[{\"titulo\":\"Ensalada\",\"ingredientes\":[\"tomate\"]}]}}\n```"}
	c := newGeminiClient(gen, config.AIConfig{Temperature: 0.7, Timeout: time.Second}, logger.NewNoopLogger())

	rec, err := c.Generate(context.Background(), "prompt text")
	require.NoError(t, err)
	assert.Equal(t, "Hola", rec.PersonalizedGreeting)
	assert.Equal(t, []string{"Ensalada"}, rec.Titles())

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, defaultModel, gen.model)
	assert.Equal(t, "prompt text", gen.prompt)
	assert.Equal(t, "application/json", gen.config.ResponseMIMEType)
	require.NotNil(t, gen.config.Temperature)
	assert.InDelta(t, 0.7, *gen.config.Temperature, 1e-6)
}

func TestGeminiClient_NoRetryOnFailure(t *testing.T) {
	gen := &fakeGenerator{err: stderrors.New("quota exceeded")}
	c := newGeminiClient(gen, config.AIConfig{Model: "gemini-1.5-pro"}, logger.NewNoopLogger())

	_, err := c.Generate(context.Background(), "p")
	assert.Error(t, err)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, "gemini-1.5-pro", gen.model)
}

func TestDecodeRecommendation(t *testing.T) {
	rec, err := DecodeRecommendation(`{"saludo_personalizado":"Hola","recomendaciones":[{"nombre_restaurante":"Verde"}]}`)
	require.NoError(t, err)
	assert.Equal(t, "Verde", rec.Restaurants[0].Name)

	_, err = DecodeRecommendation("")
	assert.Error(t, err)
	_, err = DecodeRecommendation("not json")
	assert.Error(t, err)
	_, err = DecodeRecommendation(`{"saludo_personalizado":"Hola"}`)
	assert.Error(t, err)
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), config.AIConfig{}, logger.NewNoopLogger())
	assert.Error(t, err)
}

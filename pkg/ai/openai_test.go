package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeOpenAI(t *testing.T, status int, content string) (*httptest.Server, *map[string]interface{}) {
	t.Helper()
	captured := map[string]interface{}{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&captured)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]interface{}{{"index": 0, "message": map[string]string{"role": "assistant", "content": content}}},
			"usage":   map[string]int{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		})
	}))
	t.Cleanup(server.Close)
	return server, &captured
}

func TestOpenAIGeneratorGeneratePlan(t *testing.T) {
	server, captured := newFakeOpenAI(t, http.StatusOK, `{"name":"Plan de Matemática","course":"Matemática","accuracy":140,"units":[{"name":"Fracciones","duration":2}],"narrative":"- practicar"}`)

	var observed []string
	gen, err := NewOpenAIGenerator(OpenAIConfig{
		APIKey:  "test",
		BaseURL: server.URL,
		Observer: func(op string, _ time.Duration, err error) {
			assert.NoError(t, err)
			observed = append(observed, op)
		},
	})
	require.NoError(t, err)

	draft, err := gen.GeneratePlan(context.Background(), PlanRequest{
		StudentName: "Ana Torres",
		Weaknesses:  []Weakness{{Competency: "Resuelve problemas", Grade: "C"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Plan de Matemática", draft.Name)
	assert.Equal(t, float64(100), draft.Accuracy)
	require.Len(t, draft.Units, 1)
	assert.Equal(t, "Fracciones", draft.Units[0].Name)
	assert.Equal(t, []string{"openai.generate_plan"}, observed)

	format, ok := (*captured)["response_format"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])
}

func TestOpenAIGeneratorWrapsBackendFailures(t *testing.T) {
	server, _ := newFakeOpenAI(t, http.StatusInternalServerError, "")

	gen, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = gen.Reply(context.Background(), "hola")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenAIGeneratorRejectsInvalidJSON(t *testing.T) {
	server, _ := newFakeOpenAI(t, http.StatusOK, "not json")

	gen, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = gen.GeneratePlan(context.Background(), PlanRequest{Prompt: "plan de lectura"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse plan json")
}

func TestNewOpenAIGeneratorRequiresKey(t *testing.T) {
	_, err := NewOpenAIGenerator(OpenAIConfig{})
	assert.Error(t, err)
}

func TestDisabledGenerator(t *testing.T) {
	_, err := Disabled{}.GeneratePlan(context.Background(), PlanRequest{})
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = Disabled{}.Reply(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestBuildPlanPromptIncludesWeaknesses(t *testing.T) {
	prompt := buildPlanPrompt(PlanRequest{
		StudentName: "Luis",
		Weaknesses:  []Weakness{{Competency: "Lee textos", Grade: "B"}},
		Course:      "Comunicación",
	})

	assert.Contains(t, prompt, "Luis")
	assert.Contains(t, prompt, "- Lee textos (grade B)")
	assert.Contains(t, prompt, "Comunicación")
}

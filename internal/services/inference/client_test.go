package inference

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecipe struct {
	Title    string `json:"title" validate:"required"`
	Servings int    `json:"servings" validate:"gt=0"`
}

var testSchema = Schema{
	Name: "test_recipe",
	Body: map[string]any{
		"type":     "object",
		"required": []any{"title", "servings"},
		"properties": map[string]any{
			"title":    map[string]any{"type": "string"},
			"servings": map[string]any{"type": "integer"},
		},
		"additionalProperties": false,
	},
}

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": content}}},
	})
	return string(b)
}

func newTestClient(t *testing.T, doer Doer, mutate ...func(*Config)) *Client[testRecipe] {
	t.Helper()
	cfg := Config{
		APIKey:       "sk-test",
		Model:        "gpt-test",
		SystemPrompt: "You are a chef.",
		Schema:       testSchema,
		HTTPClient:   doer,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := New[testRecipe](cfg)
	require.NoError(t, err)
	return c
}

func TestNew_ConfigErrors(t *testing.T) {
	valid := Config{APIKey: "k", Model: "m", SystemPrompt: "p", Schema: testSchema}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing api key", func(c *Config) { c.APIKey = "" }},
		{"blank api key", func(c *Config) { c.APIKey = "  " }},
		{"missing model", func(c *Config) { c.Model = "" }},
		{"missing system prompt", func(c *Config) { c.SystemPrompt = "" }},
		{"missing schema name", func(c *Config) { c.Schema.Name = "" }},
		{"missing schema body", func(c *Config) { c.Schema.Body = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			c, err := New[testRecipe](cfg)
			assert.Nil(t, c)
			assert.True(t, IsKind(err, KindConfig), "got %v", err)
		})
	}

	t.Run("defaults", func(t *testing.T) {
		c, err := New[testRecipe](valid)
		require.NoError(t, err)
		assert.Equal(t, DefaultBaseURL+"/chat/completions", c.endpoint)
		assert.Equal(t, DefaultTimeout, c.timeout)
		assert.True(t, c.strict)
		assert.NotNil(t, c.http)
	})
}

func TestGenerate_RequestShape(t *testing.T) {
	var captured struct {
		method string
		path   string
		auth   string
		ctype  string
		body   map[string]any
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.auth = r.Header.Get("Authorization")
		captured.ctype = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&captured.body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completion(`{"title":"Soup","servings":2}`)))
	}))
	defer server.Close()

	c := newTestClient(t, server.Client(), func(cfg *Config) {
		cfg.BaseURL = server.URL + "/v1/"
		cfg.Params = ModelParams{Temperature: Float(0.2), MaxTokens: Int(512)}
	})

	_, err := c.Generate(context.Background(), "make soup")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, captured.method)
	assert.Equal(t, "/v1/chat/completions", captured.path)
	assert.Equal(t, "Bearer sk-test", captured.auth)
	assert.Equal(t, "application/json", captured.ctype)

	body := captured.body
	assert.Equal(t, "gpt-test", body["model"])
	assert.Equal(t, false, body["stream"])
	assert.Equal(t, 0.2, body["temperature"])
	assert.Equal(t, float64(512), body["max_tokens"])
	assert.NotContains(t, body, "top_p")

	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, map[string]any{"role": "system", "content": "You are a chef."}, messages[0])
	assert.Equal(t, map[string]any{"role": "user", "content": "make soup"}, messages[1])

	format, ok := body["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_schema", format["type"])
	schema, ok := format["json_schema"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "test_recipe", schema["name"])
	assert.Equal(t, true, schema["strict"])
	assert.Equal(t, "object", schema["schema"].(map[string]any)["type"])
}

func TestGenerate_NonStrictSchema(t *testing.T) {
	c := newTestClient(t, nil, func(cfg *Config) { cfg.Schema.Strict = Bool(false) })
	assert.False(t, c.payload("x").ResponseFormat.JSONSchema.Strict)
}

func TestGenerate_Success(t *testing.T) {
	t.Run("string content", func(t *testing.T) {
		c := newTestClient(t, doerFunc(func(*http.Request) (*http.Response, error) {
			return jsonResponse(200, completion(`{"title":"Soup","servings":2}`)), nil
		}))

		res, err := c.Generate(context.Background(), "soup")
		require.NoError(t, err)
		assert.Equal(t, testRecipe{Title: "Soup", Servings: 2}, res.JSON)
		assert.Equal(t, "chatcmpl-123", res.Raw["id"])
	})

	t.Run("object content", func(t *testing.T) {
		body := `{"choices":[{"message":{"content":{"title":"Stew","servings":4}}}]}`
		c := newTestClient(t, doerFunc(func(*http.Request) (*http.Response, error) {
			return jsonResponse(200, body), nil
		}))

		res, err := c.Generate(context.Background(), "stew")
		require.NoError(t, err)
		assert.Equal(t, testRecipe{Title: "Stew", Servings: 4}, res.JSON)
	})

	t.Run("fenced content", func(t *testing.T) {
		content := "```json\n{\"title\":\"Salad\",\"servings\":1}\n```"
		c := newTestClient(t, doerFunc(func(*http.Request) (*http.Response, error) {
			return jsonResponse(200, completion(content)), nil
		}))

		res, err := c.Generate(context.Background(), "salad")
		require.NoError(t, err)
		assert.Equal(t, "Salad", res.JSON.Title)
	})
}

func TestGenerate_HTTPError(t *testing.T) {
	longBody := strings.Repeat("x", 2000)
	c := newTestClient(t, doerFunc(func(*http.Request) (*http.Response, error) {
		resp := jsonResponse(http.StatusUnauthorized, longBody)
		resp.Status = "401 Unauthorized"
		return resp, nil
	}))

	_, err := c.Generate(context.Background(), "soup")
	require.Error(t, err)

	var ie *Error
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, KindHTTP, ie.Kind)
	assert.Equal(t, 401, ie.StatusCode)
	assert.Equal(t, "Unauthorized", ie.StatusText)
	assert.Len(t, ie.Body, maxBodyChars)
	assert.Contains(t, err.Error(), "HTTP 401")
}

func TestGenerate_InvalidResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", `<html>oops</html>`, "not valid JSON"},
		{"missing choices", `{"id":"x"}`, "missing choices"},
		{"empty choices", `{"choices":[]}`, "missing choices"},
		{"choices wrong type", `{"choices":"nope"}`, "missing choices"},
		{"missing message", `{"choices":[{}]}`, "missing content"},
		{"null content", `{"choices":[{"message":{"content":null}}]}`, "missing content"},
		{"absent content", `{"choices":[{"message":{"role":"assistant"}}]}`, "missing content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, doerFunc(func(*http.Request) (*http.Response, error) {
				return jsonResponse(200, tt.body), nil
			}))

			_, err := c.Generate(context.Background(), "soup")
			assert.True(t, IsKind(err, KindInvalidResponse), "got %v", err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGenerate_InvalidJSONContent(t *testing.T) {
	c := newTestClient(t, doerFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, completion("Here is your recipe: soup")), nil
	}))

	_, err := c.Generate(context.Background(), "soup")

	var ie *Error
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, KindInvalidJSON, ie.Kind)
	assert.Equal(t, "Here is your recipe: soup", ie.Content)
}

func TestGenerate_SchemaMismatch(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing required field", `{"servings":2}`},
		{"rule violation", `{"title":"Soup","servings":0}`},
		{"unknown field", `{"title":"Soup","servings":2,"chef":"me"}`},
		{"key differs in case", `{"Title":"Soup","servings":2}`},
		{"wrong type", `{"title":"Soup","servings":"two"}`},
		{"not an object", `[1,2,3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, doerFunc(func(*http.Request) (*http.Response, error) {
				return jsonResponse(200, completion(tt.content)), nil
			}))

			_, err := c.Generate(context.Background(), "soup")

			var ie *Error
			require.True(t, errors.As(err, &ie), "got %v", err)
			assert.Equal(t, KindSchema, ie.Kind)
			assert.NotEmpty(t, ie.Issues)
			assert.Equal(t, testSchema.Body, ie.Schema)
			assert.NotNil(t, ie.Value)
			assert.Contains(t, err.Error(), "test_recipe")
		})
	}
}

func TestUnknownFields(t *testing.T) {
	type item struct {
		Content string `json:"content"`
	}
	type embedded struct {
		ID string `json:"id"`
	}
	type doc struct {
		embedded
		Name  string `json:"name,omitempty"`
		Items []item `json:"items"`
		Skip  string `json:"-"`
	}

	tests := []struct {
		name   string
		value  any
		issues []string
	}{
		{"exact keys", map[string]any{"id": "1", "name": "x", "items": []any{map[string]any{"content": "a"}}}, nil},
		{"case folded key", map[string]any{"Name": "x"}, []string{`$: unknown field "Name"`}},
		{"nested key", map[string]any{"items": []any{map[string]any{"content": "a"}, map[string]any{"Content": "b"}}}, []string{`items[1]: unknown field "Content"`}},
		{"ignored field", map[string]any{"Skip": "x"}, []string{`$: unknown field "Skip"`}},
		{"scalar", "x", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.issues, unknownFields(tt.value, reflect.TypeFor[doc](), ""))
		})
	}
}

func TestGenerate_Timeout(t *testing.T) {
	blocking := doerFunc(func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	})

	t.Run("deadline", func(t *testing.T) {
		c := newTestClient(t, blocking, func(cfg *Config) { cfg.Timeout = 10 * time.Millisecond })

		_, err := c.Generate(context.Background(), "soup")
		assert.True(t, IsKind(err, KindTimeout), "got %v", err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("caller cancellation", func(t *testing.T) {
		c := newTestClient(t, blocking)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.Generate(ctx, "soup")
		assert.True(t, IsKind(err, KindTimeout), "got %v", err)
	})
}

func TestGenerate_TransportErrorPropagates(t *testing.T) {
	transportErr := errors.New("connection reset by peer")
	c := newTestClient(t, doerFunc(func(*http.Request) (*http.Response, error) {
		return nil, transportErr
	}))

	_, err := c.Generate(context.Background(), "soup")
	assert.Same(t, transportErr, err)

	var ie *Error
	assert.False(t, errors.As(err, &ie))
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
	assert.Equal(t, "plain", stripCodeFence("plain"))
}

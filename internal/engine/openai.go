// Package engine talks to the OpenAI API. It is the only package that knows
// the wire details of the model provider; callers see raw JSON bodies and the
// error taxonomy from internal/analysis.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"clearlang/api/internal/analysis"
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client implements analysis.Engine on top of OpenAI chat completions with
// structured JSON output.
type Client struct {
	api   openai.Client
	model string
}

func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("engine: API key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}
	return &Client{api: openai.NewClient(opts...), model: model}, nil
}

// Wire shapes the model is forced to produce via response-format schemas.
type issuesSchema struct {
	Issues []struct {
		Text       string `json:"text"`
		Suggestion string `json:"suggestion"`
		Reason     string `json:"reason"`
		Severity   string `json:"severity"`
	} `json:"issues"`
}

type classificationSchema struct {
	Type        string  `json:"type"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

const classifyPrompt = `You classify documents by content type. The known types are:
- "language": general prose such as articles, emails, announcements or marketing copy
- "policy": policy, governance, legal or procedural documents
- "recruitment": job postings, role descriptions or other hiring material
- "general": anything that fits none of the above

Respond with JSON containing "type" (one of the values above), "confidence" (a number between 0 and 1) and "explanation" (one short sentence).`

// Analyze runs the rubric prompt over the content and returns the model's raw
// JSON body. Parsing and issue normalization happen in the caller.
func (c *Client) Analyze(ctx context.Context, systemInstructions, userContent string) ([]byte, error) {
	body, err := c.complete(ctx, completion{
		system:     systemInstructions,
		user:       userContent,
		schemaName: "inclusivity_issues",
		schema:     generateSchema[issuesSchema](),
		maxTokens:  4096,
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Classify guesses the document's content type.
func (c *Client) Classify(ctx context.Context, content string) (analysis.Classification, error) {
	body, err := c.complete(ctx, completion{
		system:     classifyPrompt,
		user:       content,
		schemaName: "content_classification",
		schema:     generateSchema[classificationSchema](),
		maxTokens:  256,
	})
	if err != nil {
		return analysis.Classification{}, err
	}
	var parsed classificationSchema
	if err := json.Unmarshal(body, &parsed); err != nil {
		return analysis.Classification{}, &analysis.MalformedResponseError{Reason: fmt.Sprintf("classification body: %v", err)}
	}
	return analysis.Classification{
		DetectedType: parsed.Type,
		Confidence:   parsed.Confidence,
		Explanation:  parsed.Explanation,
	}, nil
}

type completion struct {
	system     string
	user       string
	schemaName string
	schema     any
	maxTokens  int
}

func (c *Client) complete(ctx context.Context, req completion) ([]byte, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.system),
			openai.UserMessage(req.user),
		},
		MaxTokens:   openai.Int(int64(req.maxTokens)),
		Temperature: openai.Float(0),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.schemaName,
					Schema: req.schema,
					Strict: openai.Bool(true),
				},
			},
		},
	}

	start := time.Now()
	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, mapError(err)
	}
	log.Printf("engine: %s completed in %dms (prompt=%d completion=%d)",
		req.schemaName, time.Since(start).Milliseconds(),
		resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return nil, &analysis.MalformedResponseError{Reason: "no choices in completion"}
	}
	return []byte(resp.Choices[0].Message.Content), nil
}

// mapError translates provider failures into the analysis error taxonomy so
// handlers never import the OpenAI SDK.
func mapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			return analysis.ErrRateLimited
		case apiErr.StatusCode == 401 || apiErr.StatusCode == 403:
			return analysis.ErrEngineAuth
		default:
			return &analysis.EngineError{Status: apiErr.StatusCode, Message: apiErr.Message}
		}
	}
	return &analysis.EngineError{Status: 0, Message: err.Error()}
}

func generateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

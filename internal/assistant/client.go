// Package assistant talks to the chat-completion service that proposes
// document edits.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/site-studio/engine/internal/dsl"
	appErr "github.com/site-studio/engine/pkg/errors"
)

// Request is what the model sees for one edit.
type Request struct {
	Mode            string       `json:"mode"`
	Prompt          string       `json:"prompt"`
	SelectedBlockID *string      `json:"selectedBlockId"`
	Document        dsl.Document `json:"document"`
}

// Usage is the token accounting reported by the service.
type Usage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

// Proposal is a parsed model reply.
type Proposal struct {
	ChangeSummary string
	Operations    []dsl.Operation
	Usage         Usage
	Provider      string
	Model         string
}

// Client proposes operations for a prompt. Any failure to reach the service
// or to parse its reply is returned as an error; callers treat it as "no
// result".
type Client interface {
	Propose(ctx context.Context, req Request) (*Proposal, error)
}

// Config configures the HTTP client.
type Config struct {
	URL      string
	APIKey   string
	Model    string
	Provider string
	Timeout  time.Duration
}

// HTTPClient calls an OpenAI-compatible chat-completions endpoint.
type HTTPClient struct {
	cfg     Config
	http    *http.Client
	breaker *appErr.Breaker
}

func NewHTTPClient(cfg Config) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	return &HTTPClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: appErr.NewBreaker(appErr.DefaultBreakerConfig("assistant")),
	}
}

var _ Client = (*HTTPClient)(nil)

// DefaultSummary is used when the model returns no change summary.
const DefaultSummary = "Change applied by assistant."

const systemPrompt = `You are a precise website editor agent.
Reply with JSON only, in this shape:
{
  "changeSummary": "short summary of the change",
  "operations": [
    {
      "op": "add|remove|move|updateProps|updateContent|updateStyle|replaceBlock",
      "targetBlockId": "optional",
      "parentBlockId": "optional|null",
      "index": 0,
      "toParentBlockId": "optional|null",
      "toIndex": 0,
      "payload": {},
      "block": { "id": "string", "type": "Section", "props": {}, "styleTokens": {}, "children": [] },
      "reason": "short justification"
    }
  ]
}
Rules:
- Work block by block; never emit free-form markup.
- Keep the existing design consistent.
- In mode "visual" only change the selected block or its direct children.
- In mode "theme" only use updateStyle or updateProps with design-related payloads.
- Do not write anything outside the JSON.`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type modelReply struct {
	ChangeSummary string `json:"changeSummary"`
	Operations    any    `json:"operations"`
}

func (c *HTTPClient) Propose(ctx context.Context, req Request) (*Proposal, error) {
	if c.cfg.URL == "" || c.cfg.APIKey == "" {
		return nil, appErr.New(appErr.CodeUnavailable, "assistant is not configured")
	}

	user, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInvalid, "encode assistant request")
	}
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Temperature: 0.2,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(user)},
		},
	})
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInvalid, "encode chat request")
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var content string
	var usage Usage
	err = c.breaker.Execute(func() error {
		var callErr error
		content, usage, callErr = c.call(ctx, body)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	extracted, ok := dsl.ExtractJSON(content)
	if !ok {
		return nil, appErr.New(appErr.CodeInvalid, "assistant reply contains no JSON object")
	}
	var reply modelReply
	if err := json.Unmarshal([]byte(extracted), &reply); err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInvalid, "assistant reply is not valid JSON")
	}

	summary := strings.TrimSpace(reply.ChangeSummary)
	if summary == "" {
		summary = DefaultSummary
	}
	return &Proposal{
		ChangeSummary: summary,
		Operations:    dsl.NormalizeOperations(reply.Operations),
		Usage:         usage,
		Provider:      c.cfg.Provider,
		Model:         c.cfg.Model,
	}, nil
}

func (c *HTTPClient) call(ctx context.Context, body []byte) (string, Usage, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", Usage{}, appErr.Wrap(err, appErr.CodeInvalid, "build assistant request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", Usage{}, appErr.Wrap(err, appErr.CodeDeadline, "assistant request timed out")
		}
		return "", Usage{}, appErr.Wrap(err, appErr.CodeUnavailable, "assistant request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", Usage{}, appErr.Wrap(err, appErr.CodeUnavailable, "read assistant response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", Usage{}, appErr.New(appErr.CodeUnavailable, fmt.Sprintf("assistant responded with status %d", resp.StatusCode))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", Usage{}, appErr.Wrap(err, appErr.CodeInvalid, "decode assistant response")
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", Usage{}, appErr.New(appErr.CodeInvalid, "assistant response has no content")
	}
	return parsed.Choices[0].Message.Content, Usage{
		Prompt:     parsed.Usage.PromptTokens,
		Completion: parsed.Usage.CompletionTokens,
		Total:      parsed.Usage.TotalTokens,
	}, nil
}

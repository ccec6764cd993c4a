// Package gpt adapts the OpenAI Responses API as a reasoning engine with
// function calling over the capability set. Calls go over plain HTTP with
// a transport tuned for long first-token latency.
package gpt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jasmere27/verifact/api/internal/tools"
	"github.com/jasmere27/verifact/api/internal/verify"
)

const responsesURL = "https://api.openai.com/v1/responses"

type Engine struct {
	APIKey string
	Model  string
	httpc  *http.Client
}

func New(key, model string) *Engine {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second, // TCP connect
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		// First headers can take a while on reasoning models
		ResponseHeaderTimeout: 120 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
	}
	return &Engine{
		APIKey: strings.TrimSpace(key),
		Model:  strings.TrimSpace(model),
		// Timeout 0: the request context carries the deadline
		httpc: &http.Client{Timeout: 0, Transport: tr},
	}
}

// WithHTTPClient overrides the internal HTTP client (e.g. for tests).
func (e *Engine) WithHTTPClient(c *http.Client) *Engine {
	if c != nil {
		e.httpc = c
	}
	return e
}

func (e *Engine) Name() string     { return "gpt" }
func (e *Engine) GetModel() string { return e.Model }

const maxToolRounds = 8

type toolDecl struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type outputItem struct {
	Type      string `json:"type"`
	Name      string `json:"name,omitempty"`
	CallID    string `json:"call_id,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	Content   []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content,omitempty"`
}

type responseEnvelope struct {
	ID         string       `json:"id"`
	Status     string       `json:"status"`
	Output     []outputItem `json:"output"`
	OutputText string       `json:"output_text"`
	Error      *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (e *Engine) Analyze(ctx context.Context, task verify.Task) (string, error) {
	if e.APIKey == "" {
		return "", errors.New("OPENAI_API_KEY is empty")
	}

	decls := declarations()
	body := map[string]any{
		"model":        e.Model,
		"instructions": task.Instructions,
		"input": []map[string]any{
			{"role": "user", "content": "Input to fact-check:\n\n" + task.Input.CanonicalText},
		},
		"tools": decls,
	}

	env, err := e.post(ctx, body)
	if err != nil {
		return "", err
	}

	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(env)
		if len(calls) == 0 {
			break
		}
		var followup []map[string]any
		for _, c := range calls {
			var args map[string]any
			if err := json.Unmarshal([]byte(c.Arguments), &args); err != nil {
				args = map[string]any{}
			}
			result := task.Tools.Invoke(ctx, c.Name, args)
			followup = append(followup, map[string]any{
				"type":    "function_call_output",
				"call_id": c.CallID,
				"output":  result,
			})
		}
		env, err = e.post(ctx, map[string]any{
			"model":                e.Model,
			"previous_response_id": env.ID,
			"input":                followup,
			"tools":                decls,
		})
		if err != nil {
			return "", err
		}
	}

	out := extractText(env)
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("gpt: empty response from %s", e.Model)
	}
	return out, nil
}

func (e *Engine) post(ctx context.Context, body map[string]any) (*responseEnvelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, responsesURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai %d: %s", resp.StatusCode, truncate(string(raw), 500))
	}

	var env responseEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	if env.Error != nil && env.Error.Message != "" {
		return nil, fmt.Errorf("openai: %s", env.Error.Message)
	}
	return &env, nil
}

func declarations() []toolDecl {
	specs := tools.Specs()
	decls := make([]toolDecl, 0, len(specs))
	for _, sp := range specs {
		props := map[string]any{}
		required := make([]string, 0, len(sp.Params))
		for _, p := range sp.Params {
			props[p.Name] = map[string]any{"type": "string", "description": p.Description}
			required = append(required, p.Name)
		}
		decls = append(decls, toolDecl{
			Type:        "function",
			Name:        sp.Name,
			Description: sp.Description,
			Parameters: map[string]any{
				"type":       "object",
				"properties": props,
				"required":   required,
			},
		})
	}
	return decls
}

func functionCalls(env *responseEnvelope) []outputItem {
	var calls []outputItem
	for _, o := range env.Output {
		if o.Type == "function_call" && o.Name != "" {
			calls = append(calls, o)
		}
	}
	return calls
}

// extractText prefers the convenience `output_text` field and otherwise
// concatenates text segments from message outputs.
func extractText(env *responseEnvelope) string {
	if s := strings.TrimSpace(env.OutputText); s != "" {
		return s
	}
	var b strings.Builder
	for _, o := range env.Output {
		if o.Type != "message" {
			continue
		}
		for _, c := range o.Content {
			if c.Type == "output_text" || c.Type == "text" {
				b.WriteString(c.Text)
			}
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

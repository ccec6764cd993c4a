// Package gemini adapts the Gemini API as a reasoning engine with
// function calling over the capability set.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/jasmere27/verifact/api/internal/tools"
	"github.com/jasmere27/verifact/api/internal/verify"
)

type Engine struct {
	APIKey string
	Model  string
}

func New(apiKey, model string) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

// maxToolRounds bounds the tool-invocation loop so a looping model cannot
// hold a request open forever.
const maxToolRounds = 8

func (e *Engine) Analyze(ctx context.Context, task verify.Task) (string, error) {
	if e.APIKey == "" {
		return "", errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return "", err
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	m.GenerationConfig = genai.GenerationConfig{Temperature: ptrFloat32(0)}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(task.Instructions)},
	}
	m.Tools = []*genai.Tool{{FunctionDeclarations: declarations()}}

	cs := m.StartChat()
	resp, err := cs.SendMessage(ctx, genai.Text("Input to fact-check:\n\n"+task.Input.CanonicalText))
	if err != nil {
		return "", err
	}

	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			break
		}
		replies := make([]genai.Part, 0, len(calls))
		for _, fc := range calls {
			result := task.Tools.Invoke(ctx, fc.Name, fc.Args)
			replies = append(replies, genai.FunctionResponse{
				Name:     fc.Name,
				Response: map[string]any{"result": result},
			})
		}
		resp, err = cs.SendMessage(ctx, replies...)
		if err != nil {
			return "", err
		}
	}

	out := responseText(resp)
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("gemini: empty response from %s", e.Model)
	}
	return out, nil
}

func declarations() []*genai.FunctionDeclaration {
	specs := tools.Specs()
	decls := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, sp := range specs {
		d := &genai.FunctionDeclaration{
			Name:        sp.Name,
			Description: sp.Description,
		}
		if len(sp.Params) > 0 {
			props := make(map[string]*genai.Schema, len(sp.Params))
			required := make([]string, 0, len(sp.Params))
			for _, p := range sp.Params {
				props[p.Name] = &genai.Schema{Type: genai.TypeString, Description: p.Description}
				required = append(required, p.Name)
			}
			d.Parameters = &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
				Required:   required,
			}
		}
		decls = append(decls, d)
	}
	return decls
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	var calls []genai.FunctionCall
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if fc, ok := p.(genai.FunctionCall); ok {
				calls = append(calls, fc)
			}
		}
	}
	return calls
}

func responseText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return b.String()
}

func ptrFloat32(v float32) *float32 { return &v }

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/avishiprsd/llm-automation-agent/internal/domain"
	"github.com/avishiprsd/llm-automation-agent/internal/domain/task"
	"github.com/avishiprsd/llm-automation-agent/internal/port/llm"
)

const extractionPrompt = "Extract the following details from this task description: " +
	"1. Action (e.g., count, format, sort, extract, etc.). " +
	"2. Input file path. " +
	"3. Output file path. " +
	"4. Additional parameters (e.g., day of the week, ticket type, etc.). " +
	"Return the result as a JSON object. " +
	"Task description: "

// IntentExtractor turns free-form task text into a task.Intent using the
// language model.
type IntentExtractor struct {
	interpreter llm.Interpreter
}

// NewIntentExtractor creates an IntentExtractor backed by interpreter.
func NewIntentExtractor(interpreter llm.Interpreter) *IntentExtractor {
	return &IntentExtractor{interpreter: interpreter}
}

// Extract asks the interpreter for a structured reading of text. A reply
// that is not a JSON object yields an error wrapping domain.ErrIntentParse.
// Interpreter failures are returned wrapped as-is.
func (e *IntentExtractor) Extract(ctx context.Context, text string) (task.Intent, error) {
	reply, err := e.interpreter.Interpret(ctx, extractionPrompt+text)
	if err != nil {
		return task.Intent{}, fmt.Errorf("interpret task: %w", err)
	}
	return ParseIntent(reply)
}

// ParseIntent decodes an interpreter reply. One surrounding Markdown code
// fence is removed first. Non-string fields are treated as empty and a
// missing or non-object parameters value becomes an empty map.
func ParseIntent(reply string) (task.Intent, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &raw); err != nil || raw == nil {
		return task.Intent{}, fmt.Errorf("%w: reply is not a JSON object", domain.ErrIntentParse)
	}

	intent := task.Intent{
		Action:     stringField(raw, "action"),
		InputPath:  stringField(raw, "input_path"),
		OutputPath: stringField(raw, "output_path"),
		Parameters: map[string]any{},
	}
	if params, ok := raw["parameters"].(map[string]any); ok {
		intent.Parameters = params
	}
	return intent, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// stripCodeFence removes a single ``` or ```json fence around s.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	body := strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	// Drop the info string (e.g. "json") on the opening line.
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	}
	return strings.TrimSpace(body)
}

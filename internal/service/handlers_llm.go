package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/avishiprsd/llm-automation-agent/internal/domain/task"
	"github.com/avishiprsd/llm-automation-agent/internal/port/llm"
)

// ExtractEmail asks the language model for the sender address in the
// input text.
func (h *Handlers) ExtractEmail(ctx context.Context, req Request) task.Result {
	if h.deps.Interpreter == nil {
		return notConfigured("Language model")
	}
	data, res, ok := readInput(req.Intent.InputPath)
	if !ok {
		return res
	}

	reply, err := h.deps.Interpreter.Interpret(ctx,
		"Extract the sender's email address from this text. Reply with the address only: "+string(data))
	if err != nil {
		slog.WarnContext(ctx, "email extraction failed", "error", err)
		return task.Failed("Language model request failed: %v", err)
	}
	return finish(req.Intent.OutputPath, []byte(strings.TrimSpace(reply)), "Sender email extracted.")
}

// ExtractCreditCard reads a card number from an image. Interpreters that
// accept images get the bytes inline; others only see the path.
func (h *Handlers) ExtractCreditCard(ctx context.Context, req Request) task.Result {
	if h.deps.Interpreter == nil {
		return notConfigured("Language model")
	}
	input := req.Intent.InputPath

	var (
		reply string
		err   error
	)
	if vision, ok := h.deps.Interpreter.(llm.VisionInterpreter); ok {
		data, res, found := readInput(input)
		if !found {
			return res
		}
		reply, err = vision.InterpretImage(ctx,
			"Extract the credit card number from this image. Reply with the digits only.",
			data, imageMIME(input, data))
	} else {
		reply, err = h.deps.Interpreter.Interpret(ctx, "Extract credit card number from this image: "+input)
	}
	if err != nil {
		slog.WarnContext(ctx, "card extraction failed", "error", err)
		return task.Failed("Language model request failed: %v", err)
	}

	number := strings.ReplaceAll(strings.TrimSpace(reply), " ", "")
	return finish(req.Intent.OutputPath, []byte(number), "Credit card number extracted.")
}

func imageMIME(path string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); strings.HasPrefix(t, "image/") {
		return t
	}
	return http.DetectContentType(data)
}

// SimilarPair asks the language model for the most similar pair of lines
// in the input file.
func (h *Handlers) SimilarPair(ctx context.Context, req Request) task.Result {
	if h.deps.Interpreter == nil {
		return notConfigured("Language model")
	}
	data, res, ok := readInput(req.Intent.InputPath)
	if !ok {
		return res
	}

	var lines []string
	for _, l := range strings.Split(string(data), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) < 2 {
		return task.Failed("At least two lines are required in %s.", req.Intent.InputPath)
	}

	reply, err := h.deps.Interpreter.Interpret(ctx,
		"Find the most similar pair in this list. Reply with the two entries on separate lines:\n"+
			strings.Join(lines, "\n"))
	if err != nil {
		slog.WarnContext(ctx, "similarity request failed", "error", err)
		return task.Failed("Language model request failed: %v", err)
	}
	return finish(req.Intent.OutputPath, []byte(strings.TrimSpace(reply)+"\n"), "Most similar comments found.")
}

// TranscribeAudio transcribes an audio file. Interpreters that can
// transcribe receive the file bytes; others only see the path.
func (h *Handlers) TranscribeAudio(ctx context.Context, req Request) task.Result {
	if h.deps.Interpreter == nil {
		return notConfigured("Language model")
	}
	input := req.Intent.InputPath

	var (
		text string
		err  error
	)
	if tr, ok := h.deps.Interpreter.(llm.AudioTranscriber); ok {
		data, res, found := readInput(input)
		if !found {
			return res
		}
		text, err = tr.Transcribe(ctx, filepath.Base(input), data)
	} else {
		text, err = h.deps.Interpreter.Interpret(ctx, "Transcribe this audio file: "+input)
	}
	if err != nil {
		return task.Failure(fmt.Sprintf("Error transcribing audio: %v", err))
	}
	return finish(req.Intent.OutputPath, []byte(strings.TrimSpace(text)), "Audio transcribed.")
}

// MarkdownHTML converts the input Markdown to HTML, through the language
// model by default or locally when parameters.renderer is "local".
func (h *Handlers) MarkdownHTML(ctx context.Context, req Request) task.Result {
	data, res, ok := readInput(req.Intent.InputPath)
	if !ok {
		return res
	}

	var out []byte
	if strings.EqualFold(req.Intent.Param("renderer", "llm"), "local") || h.deps.Interpreter == nil {
		var buf bytes.Buffer
		if err := goldmark.Convert(data, &buf); err != nil {
			return task.Failure(fmt.Sprintf("Error converting Markdown to HTML: %v", err))
		}
		out = buf.Bytes()
	} else {
		reply, err := h.deps.Interpreter.Interpret(ctx,
			"Convert this Markdown to HTML. Reply with the HTML only:\n"+string(data))
		if err != nil {
			return task.Failure(fmt.Sprintf("Error converting Markdown to HTML: %v", err))
		}
		out = []byte(stripCodeFence(reply))
	}
	return finish(req.Intent.OutputPath, out, "Markdown converted to HTML.")
}

// Package llm defines the port interfaces for the language-model capability.
package llm

import "context"

// Interpreter turns a prompt into a text reply. Implementations make a single
// attempt per call.
type Interpreter interface {
	Interpret(ctx context.Context, prompt string) (string, error)
}

// VisionInterpreter is implemented by interpreters that accept inline images.
type VisionInterpreter interface {
	InterpretImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

// AudioTranscriber is implemented by interpreters that can transcribe audio.
type AudioTranscriber interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}

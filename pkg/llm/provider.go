// Package llm defines the text generation backends used by the journey planner.
package llm

import (
	"context"
)

// Message is a chat message in a backend-agnostic format.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Option adjusts a single Generate call.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // overrides the backend default
	JSON        bool   // ask the backend for a JSON object response
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithJSON() Option {
	return func(o *Options) {
		o.JSON = true
	}
}

// Apply resolves options on top of defaults.
func Apply(defaults Options, opts ...Option) Options {
	for _, o := range opts {
		o(&defaults)
	}
	return defaults
}

// Response is what a backend produced for one call.
type Response struct {
	Content  string
	Provider string
	Model    string
}

// Provider is the contract every generation backend implements.
type Provider interface {
	Name() string
	Model() string

	// Generate sends the system instructions and the user prompt and returns
	// the raw model text.
	Generate(ctx context.Context, instructions, prompt string, opts ...Option) (*Response, error)

	// HealthCheck reports whether the backend is reachable and configured.
	HealthCheck(ctx context.Context) bool
}

// ChatMessages builds the two-message conversation used by chat style APIs.
func ChatMessages(instructions, prompt string) []Message {
	msgs := make([]Message, 0, 2)
	if instructions != "" {
		msgs = append(msgs, Message{Role: "system", Content: instructions})
	}
	return append(msgs, Message{Role: "user", Content: prompt})
}

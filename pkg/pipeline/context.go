package pipeline

import (
	"bytes"
	"encoding/json"
	"math"
	"slices"

	"github.com/wildanku/hala-ai/pkg/vectorstore"
)

// Request is the caller's input for one run.
type Request struct {
	Text      string
	UserID    string
	SessionID string
	Language  string
}

// ExecutionContext is the per-request state that stages read and fill in.
// It is created by the orchestrator and never shared between runs.
type ExecutionContext struct {
	rawInput string

	ProcessedInput    string
	UserID            string
	SessionID         string
	RequestedLanguage string
	DetectedLanguage  string

	ScopeScores   map[string]float64
	DetectedScope string
	SafetyFlags   []string

	Verses      []vectorstore.Document
	Hadith      []vectorstore.Document
	Strategies  []vectorstore.Document
	QueryVector []float32

	Output             map[string]any
	Backend            string
	TemplateUsed       bool
	TemplateID         string
	TemplateSimilarity float64

	Timings Timings
}

func NewExecutionContext(req Request) *ExecutionContext {
	lang := req.Language
	if lang == "" {
		lang = "id"
	}
	return &ExecutionContext{
		rawInput:          req.Text,
		ProcessedInput:    req.Text,
		UserID:            req.UserID,
		SessionID:         req.SessionID,
		RequestedLanguage: lang,
		ScopeScores:       make(map[string]float64),
	}
}

// RawInput is the text exactly as received.
func (ec *ExecutionContext) RawInput() string {
	return ec.rawInput
}

// Language is the detected language, or the requested one when detection
// did not settle on anything.
func (ec *ExecutionContext) Language() string {
	if ec.DetectedLanguage != "" {
		return ec.DetectedLanguage
	}
	return ec.RequestedLanguage
}

// AddFlag records a safety flag once.
func (ec *ExecutionContext) AddFlag(flag string) {
	if !slices.Contains(ec.SafetyFlags, flag) {
		ec.SafetyFlags = append(ec.SafetyFlags, flag)
	}
}

// Documents is verses, hadith and strategies in that order.
func (ec *ExecutionContext) Documents() []vectorstore.Document {
	out := make([]vectorstore.Document, 0, len(ec.Verses)+len(ec.Hadith)+len(ec.Strategies))
	out = append(out, ec.Verses...)
	out = append(out, ec.Hadith...)
	return append(out, ec.Strategies...)
}

// StageTiming is the elapsed time of one stage in milliseconds.
type StageTiming struct {
	Stage  string
	Millis float64
}

// Timings keeps stage timings in execution order and encodes as a JSON object
// with keys in that order.
type Timings []StageTiming

func (t *Timings) record(stage string, ms float64) {
	*t = append(*t, StageTiming{Stage: stage, Millis: roundMillis(ms)})
}

func (t Timings) Get(stage string) (float64, bool) {
	for _, st := range t {
		if st.Stage == stage {
			return st.Millis, true
		}
	}
	return 0, false
}

func (t Timings) Stages() []string {
	names := make([]string, len(t))
	for i, st := range t {
		names[i] = st.Stage
	}
	return names
}

func (t Timings) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, st := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(st.Stage)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(st.Millis)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func roundMillis(ms float64) float64 {
	return math.Round(ms*100) / 100
}

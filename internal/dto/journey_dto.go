package dto

import "github.com/wildanku/hala-ai/pkg/pipeline"

type JourneyRequest struct {
	Prompt    string `json:"prompt" validate:"required,max=2000"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Language  string `json:"language" validate:"omitempty,oneof=id en"`
}

func (r JourneyRequest) ToPipeline() pipeline.Request {
	return pipeline.Request{
		Text:      r.Prompt,
		UserID:    r.UserID,
		SessionID: r.SessionID,
		Language:  r.Language,
	}
}

// ValidationResponse is returned by the validate endpoint in both modes.
type ValidationResponse struct {
	IsValid          bool               `json:"is_valid"`
	FastMode         bool               `json:"fast_mode,omitempty"`
	FailedAtLayer    string             `json:"failed_at_layer,omitempty"`
	ErrorCode        pipeline.ErrorCode `json:"error_code,omitempty"`
	Message          *pipeline.Message  `json:"message,omitempty"`
	SuggestedAction  string             `json:"suggested_action,omitempty"`
	DetectedLanguage string             `json:"detected_language,omitempty"`
	DetectedScope    string             `json:"detected_scope,omitempty"`
	SemanticScores   map[string]float64 `json:"semantic_scores,omitempty"`
	SafetyFlags      []string           `json:"safety_flags,omitempty"`
	LayerTimings     pipeline.Timings   `json:"layer_timings"`
}

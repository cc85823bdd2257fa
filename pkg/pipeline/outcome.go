package pipeline

import "time"

type OutcomeKind int

const (
	Passed OutcomeKind = iota
	Rejected
	Errored
)

func (k OutcomeKind) String() string {
	switch k {
	case Passed:
		return "passed"
	case Rejected:
		return "rejected"
	default:
		return "errored"
	}
}

// Outcome is what a stage returns. Rejected means a business rule stopped the
// request. Errored means a collaborator failed; Detail is for logs only.
type Outcome struct {
	Kind            OutcomeKind
	Stage           string
	Code            ErrorCode
	Message         Message
	SuggestedAction string
	Detail          string
	Duration        time.Duration
}

func Pass(stage string) Outcome {
	return Outcome{Kind: Passed, Stage: stage}
}

func Reject(stage string, code ErrorCode, msg Message, action string) Outcome {
	return Outcome{
		Kind:            Rejected,
		Stage:           stage,
		Code:            code,
		Message:         msg,
		SuggestedAction: action,
	}
}

// Fail always carries INTERNAL_ERROR and the generic message.
func Fail(stage string, err error) Outcome {
	detail := "unknown error"
	if err != nil {
		detail = err.Error()
	}
	return Outcome{
		Kind:            Errored,
		Stage:           stage,
		Code:            CodeInternal,
		Message:         internalErrorMessage,
		SuggestedAction: internalErrorAction,
		Detail:          detail,
	}
}

func (o Outcome) Ok() bool {
	return o.Kind == Passed
}

func (o Outcome) withDuration(d time.Duration) Outcome {
	o.Duration = d
	return o
}

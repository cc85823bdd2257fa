package pipeline

import "net/http"

// ErrorCode is the closed set of failure codes a pipeline run can end with.
type ErrorCode string

const (
	CodeValidation          ErrorCode = "VALIDATION_ERROR"
	CodeInjection           ErrorCode = "INJECTION_DETECTED"
	CodeLanguageUnsupported ErrorCode = "LANGUAGE_NOT_SUPPORTED"
	CodeOutOfScope          ErrorCode = "OUT_OF_SCOPE"
	CodeSafetyViolation     ErrorCode = "SAFETY_VIOLATION"
	CodeRAGFailure          ErrorCode = "RAG_FAILURE"
	CodeLLMFailure          ErrorCode = "LLM_FAILURE"
	CodeProviderNotFound    ErrorCode = "PROVIDER_NOT_FOUND"
	CodeInternal            ErrorCode = "INTERNAL_ERROR"
)

var httpStatus = map[ErrorCode]int{
	CodeValidation:          http.StatusBadRequest,
	CodeInjection:           http.StatusBadRequest,
	CodeLanguageUnsupported: http.StatusBadRequest,
	CodeOutOfScope:          http.StatusBadRequest,
	CodeSafetyViolation:     http.StatusUnprocessableEntity,
	CodeRAGFailure:          http.StatusInternalServerError,
	CodeLLMFailure:          http.StatusInternalServerError,
	CodeProviderNotFound:    http.StatusInternalServerError,
	CodeInternal:            http.StatusInternalServerError,
}

// HTTPStatus maps the code to its transport status. Unknown codes are 500.
func (c ErrorCode) HTTPStatus() int {
	if s, ok := httpStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Codes lists every known code.
func Codes() []ErrorCode {
	return []ErrorCode{
		CodeValidation, CodeInjection, CodeLanguageUnsupported, CodeOutOfScope,
		CodeSafetyViolation, CodeRAGFailure, CodeLLMFailure, CodeProviderNotFound, CodeInternal,
	}
}

// Message is a user facing text in Indonesian and English.
type Message struct {
	ID string `json:"id"`
	EN string `json:"en"`
}

// In picks the text for a language, English unless "id".
func (m Message) In(lang string) string {
	if lang == "id" {
		return m.ID
	}
	return m.EN
}

var internalErrorMessage = Message{
	ID: "Terjadi kesalahan internal. Silakan coba lagi nanti.",
	EN: "An internal error occurred. Please try again later.",
}

const internalErrorAction = "Please try again in a few moments."

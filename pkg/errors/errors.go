package errors

import "fmt"

// Error codes
const (
	CodePipelineError = "PIPELINE_ERROR"
	CodeAPIError      = "API_ERROR"
	CodeValidation    = "VALIDATION_ERROR"
	CodeResearch      = "RESEARCH_ERROR"
	CodeGeneration    = "GENERATION_ERROR"
	CodeEvaluation    = "EVALUATION_ERROR"
	CodeService       = "SERVICE_ERROR"
)

type PipelineError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

func NewPipelineError(message, code string, statusCode int, context map[string]any) *PipelineError {
	return &PipelineError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *PipelineError) WithCause(cause error) *PipelineError {
	e.Cause = cause
	return e
}

type APIError struct {
	*PipelineError
}

func NewAPIError(message string, statusCode int, context map[string]any) *APIError {
	return &APIError{
		PipelineError: &PipelineError{
			Message:    message,
			Code:       CodeAPIError,
			StatusCode: statusCode,
			Context:    context,
		},
	}
}

type ValidationError struct {
	*PipelineError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		PipelineError: &PipelineError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type ResearchError struct {
	*PipelineError
	Subject string
}

func NewResearchError(message, subject string, cause error) *ResearchError {
	return &ResearchError{
		PipelineError: &PipelineError{
			Message:    message,
			Code:       CodeResearch,
			StatusCode: 502,
			Context: map[string]any{
				"subject": subject,
			},
			Cause: cause,
		},
		Subject: subject,
	}
}

type GenerationError struct {
	*PipelineError
	Style    string
	Attempts int
}

func NewGenerationError(message, style string, attempts int, cause error) *GenerationError {
	return &GenerationError{
		PipelineError: &PipelineError{
			Message:    message,
			Code:       CodeGeneration,
			StatusCode: 502,
			Context: map[string]any{
				"style":    style,
				"attempts": attempts,
			},
			Cause: cause,
		},
		Style:    style,
		Attempts: attempts,
	}
}

type EvaluationError struct {
	*PipelineError
	Style string
}

func NewEvaluationError(message, style string, cause error) *EvaluationError {
	return &EvaluationError{
		PipelineError: &PipelineError{
			Message:    message,
			Code:       CodeEvaluation,
			StatusCode: 500,
			Context: map[string]any{
				"style": style,
			},
			Cause: cause,
		},
		Style: style,
	}
}

type ServiceError struct {
	*PipelineError
	Service   string
	Operation string
}

func NewServiceError(message, service, operation string, cause error) *ServiceError {
	return &ServiceError{
		PipelineError: &PipelineError{
			Message:    message,
			Code:       CodeService,
			StatusCode: 500,
			Context: map[string]any{
				"service":   service,
				"operation": operation,
			},
			Cause: cause,
		},
		Service:   service,
		Operation: operation,
	}
}

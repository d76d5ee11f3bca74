package stream

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Mode selects how the backend batches images while scoring.
type Mode string

const (
	// ModeBatch scores images in batches (faster).
	ModeBatch Mode = "batch"
	// ModeSingle scores one image at a time (slower).
	ModeSingle Mode = "single"
)

// ParseMode converts a user supplied mode name. An empty name means ModeBatch.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeBatch:
		return ModeBatch, nil
	case ModeSingle:
		return ModeSingle, nil
	default:
		return "", ValidationError{Field: "mode", Message: "must be one of batch, single"}
	}
}

// AnalysisRequest describes one analysis job. It is treated as immutable once issued.
type AnalysisRequest struct {
	// ID correlates log lines for one request. NewAnalysisRequest assigns it.
	ID         string  `json:"-"`
	FolderPath string  `json:"folder_path" validate:"required"`
	Mode       Mode    `json:"processing_mode" validate:"required,oneof=batch single"`
	Prompt     *string `json:"prompt,omitempty"`
}

// NewAnalysisRequest builds an unconditional request.
func NewAnalysisRequest(folderPath string, mode Mode) AnalysisRequest {
	return AnalysisRequest{
		ID:         uuid.New().String(),
		FolderPath: folderPath,
		Mode:       mode,
	}
}

// NewPromptRequest builds a prompt-conditioned request.
func NewPromptRequest(folderPath string, mode Mode, prompt string) AnalysisRequest {
	req := NewAnalysisRequest(folderPath, mode)
	req.Prompt = &prompt
	return req
}

// Prompted reports whether the request is prompt-conditioned.
func (r AnalysisRequest) Prompted() bool {
	return r.Prompt != nil
}

// PromptText returns the prompt, or "" for unconditional requests.
func (r AnalysisRequest) PromptText() string {
	if r.Prompt == nil {
		return ""
	}
	return *r.Prompt
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the request before it is issued.
func (r AnalysisRequest) Validate() error {
	if strings.TrimSpace(r.FolderPath) == "" {
		return ValidationError{Field: "folder_path", Message: "required field is empty"}
	}
	if err := validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return ValidationError{Field: jsonFieldName(fe.StructField()), Message: "failed " + fe.Tag() + " check"}
		}
		return ValidationError{Field: "request", Message: err.Error()}
	}
	if r.Prompt != nil && strings.TrimSpace(*r.Prompt) == "" {
		return ValidationError{Field: "prompt", Message: "required for prompt search"}
	}
	return nil
}

// body returns the JSON request body sent to the backend.
func (r AnalysisRequest) body() ([]byte, error) {
	return json.Marshal(r)
}

func jsonFieldName(structField string) string {
	switch structField {
	case "FolderPath":
		return "folder_path"
	case "Mode":
		return "processing_mode"
	default:
		return strings.ToLower(structField)
	}
}

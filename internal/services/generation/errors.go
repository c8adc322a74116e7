package generation

import (
	"context"
	"errors"
	"net/http"

	apperrors "github.com/socialchef/sous/internal/errors"
	"github.com/socialchef/sous/internal/services/inference"
)

const (
	CodeInvalidUserID          = "INVALID_USER_ID"
	CodeRecipeValidationFailed = "RECIPE_VALIDATION_FAILED"
	CodeRecipeGenerationFailed = "RECIPE_GENERATION_FAILED"
	CodeDatabaseError          = "DATABASE_ERROR"

	CodeInferenceHTTP            = "INFERENCE_HTTP_ERROR"
	CodeInferenceTimeout         = "INFERENCE_TIMEOUT"
	CodeInferenceInvalidResponse = "INFERENCE_INVALID_RESPONSE"
	CodeInferenceInvalidJSON     = "INFERENCE_INVALID_JSON"
	CodeInferenceSchemaMismatch  = "INFERENCE_SCHEMA_MISMATCH"
	CodeInferenceConfig          = "INFERENCE_CONFIG_ERROR"

	CodeCanceled = "REQUEST_CANCELED"
	CodeUnknown  = "UNKNOWN_ERROR"
)

var inferenceCodes = map[inference.Kind]string{
	inference.KindHTTP:            CodeInferenceHTTP,
	inference.KindTimeout:         CodeInferenceTimeout,
	inference.KindInvalidResponse: CodeInferenceInvalidResponse,
	inference.KindInvalidJSON:     CodeInferenceInvalidJSON,
	inference.KindSchema:          CodeInferenceSchemaMismatch,
	inference.KindConfig:          CodeInferenceConfig,
}

// ErrorCode returns the code stored with an error record.
func ErrorCode(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.ErrorCode != "" {
		return appErr.ErrorCode
	}
	var ie *inference.Error
	if errors.As(err, &ie) {
		if code, ok := inferenceCodes[ie.Kind]; ok {
			return code
		}
	}
	if errors.Is(err, context.Canceled) {
		return CodeCanceled
	}
	return CodeUnknown
}

// StatusCode maps a generation error to the HTTP status returned to clients.
// Output the model produced but that fails the recipe contract is a 422; every
// other failure that is not bad input is a 500. ErrorCode tells them apart.
func StatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}
	if inference.IsKind(err, inference.KindSchema) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

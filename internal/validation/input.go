package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "github.com/socialchef/sous/internal/errors"
)

const (
	MinInputLength = 20
	MaxInputLength = 10000
)

const (
	CodeInputRequired = "INPUT_REQUIRED"
	CodeInputTooShort = "INPUT_TOO_SHORT"
	CodeInputTooLong  = "INPUT_TOO_LONG"
)

// GenerationInput checks the free-form text submitted for recipe generation.
// Length is counted in characters after trimming surrounding whitespace.
func GenerationInput(text string) *apperrors.AppError {
	trimmed := strings.TrimSpace(text)
	n := utf8.RuneCountInString(trimmed)

	switch {
	case n == 0:
		return apperrors.NewValidationError(
			"inputText is required",
			CodeInputRequired,
			"Paste the recipe text you want to convert.",
		)
	case n < MinInputLength:
		return apperrors.NewValidationError(
			fmt.Sprintf("inputText must be at least %d characters (got %d)", MinInputLength, n),
			CodeInputTooShort,
			"Add more detail, such as ingredients and steps.",
		)
	case n > MaxInputLength:
		return apperrors.NewValidationError(
			fmt.Sprintf("inputText must be at most %d characters (got %d)", MaxInputLength, n),
			CodeInputTooLong,
			"Shorten the text to a single recipe.",
		)
	}
	return nil
}

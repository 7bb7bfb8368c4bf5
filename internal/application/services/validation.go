package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gravekeeper/core/internal/domain/entities"
	"github.com/gravekeeper/core/internal/ports"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest runs the struct tags of req and maps failures onto domain errors
func validateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		return TranslateValidationError(err)
	}
	return nil
}

// TranslateValidationError converts validator output into the matching entities error.
// Missing fields win over every other failure.
func TranslateValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", entities.ErrValidation, err)
	}

	var missing []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", entities.ErrMissingRequiredFields, strings.Join(missing, ", "))
	}

	fe := verrs[0]
	switch {
	case fe.StructField() == "Age" && (fe.Tag() == "min" || fe.Tag() == "max"):
		return entities.ErrAgeOutOfRange
	case fe.Tag() == "datetime":
		return fmt.Errorf("%w: %s", entities.ErrInvalidDate, fe.Field())
	case fe.StructField() == "Status" && fe.Tag() == "oneof":
		return fmt.Errorf("%w: %v", entities.ErrInvalidStatus, fe.Value())
	case fe.StructField() == "Category" && fe.Tag() == "oneof":
		return fmt.Errorf("%w: %v", entities.ErrInvalidCategory, fe.Value())
	}
	return fmt.Errorf("%w: %s failed on %s", entities.ErrValidation, fe.Field(), fe.Tag())
}

// IsValidationError reports whether err is a client input problem
func IsValidationError(err error) bool {
	for _, target := range []error{
		entities.ErrValidation,
		entities.ErrMissingRequiredFields,
		entities.ErrAgeOutOfRange,
		entities.ErrInvalidDate,
		entities.ErrInvalidStatus,
		entities.ErrInvalidCategory,
		entities.ErrDeadlineBeforeScheduled,
		entities.ErrGraveNotInPlot,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// checkPlacement verifies that the grave exists and lies in the plot.
// A nil inventory skips the check.
func checkPlacement(ctx context.Context, inventory ports.GraveInventory, plotID, graveID string) error {
	if inventory == nil {
		return nil
	}
	grave, err := inventory.GetGrave(ctx, graveID)
	if err != nil {
		return fmt.Errorf("check grave %s: %w", graveID, err)
	}
	if grave.PlotID != plotID {
		return fmt.Errorf("%w: grave %s is in plot %s", entities.ErrGraveNotInPlot, graveID, grave.PlotID)
	}
	return nil
}

func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

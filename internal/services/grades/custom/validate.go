package custom

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/louisbranch/boulderlog/internal/platform/errors"
	"github.com/louisbranch/boulderlog/internal/services/grades/domain/gradesystem"
	"github.com/louisbranch/boulderlog/internal/services/grades/storage"
)

// MaxNameLength bounds a custom system's display name, in runes.
const MaxNameLength = 64

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize trims user input, derives the id when missing, and checks the
// result. Failures are *errors.Error values with a CUSTOM_SYSTEM_* code.
func Normalize(input storage.CustomGradeSystem) (storage.CustomGradeSystem, error) {
	system := storage.CustomGradeSystem{
		ID:      strings.TrimSpace(input.ID),
		Name:    strings.TrimSpace(input.Name),
		Version: input.Version,
	}
	if input.Grades != nil {
		system.Grades = make([]storage.CustomGrade, len(input.Grades))
		for i, grade := range input.Grades {
			system.Grades[i] = storage.CustomGrade{
				Name:  strings.TrimSpace(grade.Name),
				Color: strings.TrimSpace(grade.Color),
			}
		}
	}

	if err := validate.Struct(system); err != nil {
		return storage.CustomGradeSystem{}, validationError(err)
	}

	if system.ID == "" {
		system.ID = SystemID(system.Name)
		if system.ID == "" {
			return storage.CustomGradeSystem{}, apperrors.WithMetadata(apperrors.CodeCustomSystemInvalidID,
				"custom system name has no characters usable in an id",
				map[string]string{"Name": system.Name})
		}
	} else if Slugify(system.ID) != system.ID {
		return storage.CustomGradeSystem{}, apperrors.WithMetadata(apperrors.CodeCustomSystemInvalidID,
			fmt.Sprintf("custom system id %q is not a slug", system.ID),
			map[string]string{"ID": system.ID})
	}
	if gradesystem.IsBuiltinID(system.ID) {
		return storage.CustomGradeSystem{}, apperrors.WithMetadata(apperrors.CodeCustomSystemBuiltinID,
			fmt.Sprintf("custom system id %q collides with a builtin system", system.ID),
			map[string]string{"ID": system.ID})
	}
	return system, nil
}

func validationError(err error) error {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrs) == 0 {
		return apperrors.Wrap(apperrors.CodeUnknown, "validate custom system", err)
	}
	fe := fieldErrs[0]
	inGrades := strings.Contains(fe.StructNamespace(), ".Grades[")

	switch {
	case inGrades:
		return apperrors.New(apperrors.CodeCustomSystemGradeNameEmpty, "grade name is required")
	case fe.StructField() == "Name" && fe.Tag() == "max":
		return apperrors.WithMetadata(apperrors.CodeCustomSystemNameTooLong,
			fmt.Sprintf("custom system name exceeds %d characters", MaxNameLength),
			map[string]string{"Max": fmt.Sprint(MaxNameLength)})
	case fe.StructField() == "Name":
		return apperrors.New(apperrors.CodeCustomSystemNameEmpty, "custom system name is required")
	case fe.StructField() == "Grades" && fe.Tag() == "unique":
		return apperrors.New(apperrors.CodeCustomSystemDuplicateGrade, "grade names must be unique")
	case fe.StructField() == "Grades":
		return apperrors.New(apperrors.CodeCustomSystemNoGrades, "custom system needs at least one grade")
	default:
		return apperrors.Wrap(apperrors.CodeUnknown, "validate custom system", err)
	}
}

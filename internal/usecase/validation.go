package usecase

import (
	"errors"
	"fmt"

	"github.com/St1cky1/task-manager-api/internal/entity"
	"github.com/go-playground/validator/v10"
)

const (
	MaxNameLength        = 20
	MaxDescriptionLength = 100
)

// правила для задачи после нормализации (trim, значения по умолчанию)
type taskRules struct {
	Name        string `validate:"required,max=20"`
	Description string `validate:"max=100"`
	Priority    string `validate:"oneof=low medium high"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateTask возвращает *entity.ValidationError со всеми ошибками полей или nil
func ValidateTask(t *entity.Task) error {
	err := validate.Struct(taskRules{
		Name:        t.Name,
		Description: t.Description,
		Priority:    string(t.Priority),
	})
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]entity.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fieldError(fe))
	}
	return entity.NewValidationError(fields...)
}

func fieldError(fe validator.FieldError) entity.FieldError {
	switch fe.Field() {
	case "Name":
		if fe.Tag() == "required" {
			return entity.FieldError{Field: "name", Message: "must provide name"}
		}
		return entity.FieldError{Field: "name", Message: fmt.Sprintf("name can not be more than %d characters", MaxNameLength)}
	case "Description":
		return entity.FieldError{Field: "description", Message: fmt.Sprintf("description can not be more than %d characters", MaxDescriptionLength)}
	case "Priority":
		return entity.FieldError{Field: "priority", Message: fmt.Sprintf("`%v` is not a valid enum value for path `priority`.", fe.Value())}
	default:
		return entity.FieldError{Field: fe.Field(), Message: fe.Error()}
	}
}

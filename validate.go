package confstruct

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var tagValidator = sync.OnceValue(func() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
})

// validateTags runs go-playground/validator over the populated config and
// maps each violation onto the field's lookup key.
func validateTags(cfg any) []*FieldError {
	err := tagValidator().Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []*FieldError{{Field: "config", Err: fmt.Errorf("%w: %v", ErrValidation, err)}}
	}

	out := make([]*FieldError, 0, len(verrs))
	for _, ve := range verrs {
		out = append(out, &FieldError{
			Field: namespaceToKey(ve.StructNamespace()),
			Err:   fmt.Errorf("%w: value %v fails %q constraint", ErrValidation, ve.Value(), ve.Tag()),
		})
	}
	return out
}

// namespaceToKey turns a validator namespace like "Config.Database.Port"
// into the lookup key DATABASE_PORT.
func namespaceToKey(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:] // drop the root struct name
	}
	for i, p := range parts {
		parts[i] = toScreamingSnake(p)
	}
	return strings.Join(parts, "_")
}

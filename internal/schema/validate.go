package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/legaldoc-extractor/constants"
	"github.com/joseph-ayodele/legaldoc-extractor/internal/common"
)

// Validate strictly coerces data against d and checks the result with the
// generated JSON Schema. On success it returns the coerced record and
// StatusValid. On any failure it fails open: data is returned exactly as
// given, with StatusInvalid and an error wrapping ErrSchemaValidation.
// Validate never panics.
func Validate(data map[string]any, d *Descriptor) (out map[string]any, status constants.ValidationStatus, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, status = data, constants.StatusInvalid
			err = common.SchemaValidationError(fmt.Errorf("panic during validation: %v", r))
		}
	}()

	if d == nil {
		return data, constants.StatusInvalid, common.SchemaValidationError(errors.New("no schema descriptor"))
	}

	coerced, errs := Coerce(data, d)
	if len(errs) > 0 {
		return data, constants.StatusInvalid, common.SchemaValidationError(joinFieldErrors(errs))
	}

	b, err := json.Marshal(coerced)
	if err != nil {
		return data, constants.StatusInvalid, common.SchemaValidationError(fmt.Errorf("marshal record: %w", err))
	}
	if err := ValidateJSONAgainstSchema(BuildJSONSchema(d), b); err != nil {
		return data, constants.StatusInvalid, common.SchemaValidationError(err)
	}
	return coerced, constants.StatusValid, nil
}

func joinFieldErrors(errs []FieldError) error {
	const maxListed = 10
	parts := make([]string, 0, maxListed+1)
	for i, e := range errs {
		if i == maxListed {
			parts = append(parts, fmt.Sprintf("and %d more", len(errs)-maxListed))
			break
		}
		parts = append(parts, e.Error())
	}
	return errors.New(strings.Join(parts, "; "))
}

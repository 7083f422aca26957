package restconv

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

var (
	validate      = validator.New()
	schemaDecoder = schema.NewDecoder()
)

func init() {
	schemaDecoder.IgnoreUnknownKeys(true)
}

// Validator is the per-parameter validation collaborator. It receives the
// raw resolved value and the parameter descriptor, and returns the value
// to bind (possibly coerced) or an error that surfaces as invalid_argument.
type Validator interface {
	Validate(value any, p Param) (any, error)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(value any, p Param) (any, error)

func (f ValidatorFunc) Validate(value any, p Param) (any, error) { return f(value, p) }

// defaultValidator coerces string inputs toward the parameter's default
// type and applies the parameter's validator tag.
type defaultValidator struct{}

func (defaultValidator) Validate(value any, p Param) (any, error) {
	value = coerceValue(value, p)
	if p.Validate != "" {
		if err := validate.Var(value, p.Validate); err != nil {
			if _, ok := err.(validator.ValidationErrors); ok {
				return nil, Errorf(CodeInvalidArgument, "parameter %q: %s", p.Name, validationSummary(err))
			}
			return nil, err
		}
	}
	return value, nil
}

// validationSummary flattens validator errors into one message.
func validationSummary(err error) string {
	valErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(valErrs) == 0 {
		return err.Error()
	}
	return formatValidationError(valErrs[0])
}

// coerceValue converts a captured string toward the type of the
// parameter's default value. Path and query captures are always strings;
// the default is the only type signal a descriptor carries.
func coerceValue(value any, p Param) any {
	s, ok := value.(string)
	if !ok || p.Default == nil {
		return value
	}
	switch p.Default.(type) {
	case int:
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	case int64:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	case float64:
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n
		}
	case bool:
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return value
}

// BindStruct decodes the merged parameter pool into dst, which must be a
// pointer to a struct with schema tags, then validates it with struct
// tags. Handlers that prefer typed request structs over positional args
// use this instead of reading the pool directly.
func (c *Context) BindStruct(dst any) error {
	values := make(map[string][]string, len(c.params))
	for k, v := range c.params {
		switch vv := v.(type) {
		case string:
			values[k] = []string{vv}
		case []string:
			values[k] = vv
		case nil:
			// unresolved required parameter; leave absent
		default:
			values[k] = []string{fmt.Sprint(vv)}
		}
	}
	if err := schemaDecoder.Decode(dst, values); err != nil {
		return Errorf(CodeInvalidArgument, "bind parameters: %v", err)
	}
	if err := validate.Struct(dst); err != nil {
		return err
	}
	return nil
}

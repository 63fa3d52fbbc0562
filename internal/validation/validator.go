package validation

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Validator validates structs using `validate` tags. Supported rules:
// required, min=N, max=N, oneof=a b c and dive (validate each struct
// element of a slice). Nested structs are always walked.
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates a struct
func (v *Validator) Validate(s interface{}) error {
	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return fmt.Errorf("validate expects a non-nil struct")
		}
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return fmt.Errorf("validate expects a struct")
	}

	return v.validateStruct(val, "")
}

func (v *Validator) validateStruct(val reflect.Value, prefix string) error {
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		fieldType := typ.Field(i)
		if !fieldType.IsExported() {
			continue
		}
		field := val.Field(i)
		name := prefix + fieldType.Name
		tag := fieldType.Tag.Get("validate")

		if tag != "" {
			if err := v.validateField(field, tag); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}

		switch field.Kind() {
		case reflect.Struct:
			if err := v.validateStruct(field, name+"."); err != nil {
				return err
			}
		case reflect.Slice:
			if !hasRule(tag, "dive") {
				continue
			}
			for j := 0; j < field.Len(); j++ {
				elem := reflect.Indirect(field.Index(j))
				if elem.Kind() != reflect.Struct {
					continue
				}
				if err := v.validateStruct(elem, fmt.Sprintf("%s[%d].", name, j)); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// validateField validates a single field
func (v *Validator) validateField(field reflect.Value, tag string) error {
	for _, rule := range strings.Split(tag, ",") {
		parts := strings.SplitN(rule, "=", 2)
		ruleName := parts[0]
		arg := ""
		if len(parts) == 2 {
			arg = parts[1]
		}

		switch ruleName {
		case "required":
			if field.IsZero() {
				return fmt.Errorf("field is required")
			}

		case "min", "max":
			limit, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return fmt.Errorf("invalid %s rule %q", ruleName, arg)
			}
			n, ok := measure(field)
			if !ok {
				continue
			}
			if ruleName == "min" && n < limit {
				return fmt.Errorf("minimum is %s", arg)
			}
			if ruleName == "max" && n > limit {
				return fmt.Errorf("maximum is %s", arg)
			}

		case "oneof":
			if field.Kind() != reflect.String || field.String() == "" {
				continue
			}
			allowed := strings.Fields(arg)
			found := false
			for _, a := range allowed {
				if field.String() == a {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("must be one of [%s]", strings.Join(allowed, " "))
			}
		}
	}

	return nil
}

// measure returns the length of strings and slices, or the numeric value.
func measure(field reflect.Value) (float64, bool) {
	switch field.Kind() {
	case reflect.String, reflect.Slice, reflect.Map:
		return float64(field.Len()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(field.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(field.Uint()), true
	case reflect.Float32, reflect.Float64:
		return field.Float(), true
	}
	return 0, false
}

func hasRule(tag, name string) bool {
	for _, rule := range strings.Split(tag, ",") {
		if rule == name {
			return true
		}
	}
	return false
}

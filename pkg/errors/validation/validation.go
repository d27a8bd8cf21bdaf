package validation

import (
	"fmt"
	"strings"
)

// FieldError is one violated rule, addressed by the argument path that broke it.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (f FieldError) String() string {
	if f.Path == "" {
		return f.Message
	}
	return fmt.Sprintf("%s: %s", f.Path, f.Message)
}

// ValidationErrors collects every violation of a request instead of stopping at the first one.
type ValidationErrors struct {
	errors []FieldError
}

func (v *ValidationErrors) Add(format string, args ...interface{}) {
	v.errors = append(v.errors, FieldError{Message: fmt.Sprintf(format, args...)})
}

func (v *ValidationErrors) AddError(path, message string) {
	v.errors = append(v.errors, FieldError{Path: path, Message: message})
}

// Merge appends all violations of other, prefixing their paths when prefix is set.
func (v *ValidationErrors) Merge(prefix string, other *ValidationErrors) {
	if other == nil {
		return
	}
	for _, fe := range other.errors {
		if prefix != "" {
			if fe.Path == "" {
				fe.Path = prefix
			} else {
				fe.Path = prefix + "." + fe.Path
			}
		}
		v.errors = append(v.errors, fe)
	}
}

func (v *ValidationErrors) Error() string {
	if len(v.errors) == 0 {
		return ""
	}
	parts := make([]string, 0, len(v.errors))
	for _, fe := range v.errors {
		parts = append(parts, fe.String())
	}
	return strings.Join(parts, "\n")
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.errors) > 0
}

func (v *ValidationErrors) IsEmpty() bool {
	return len(v.errors) == 0
}

func (v *ValidationErrors) Count() int {
	return len(v.errors)
}

// Clear removes all errors.
func (v *ValidationErrors) Clear() {
	v.errors = nil
}

// GetErrors returns all validation errors as "path: message" strings.
func (v *ValidationErrors) GetErrors() []string {
	out := make([]string, 0, len(v.errors))
	for _, fe := range v.errors {
		out = append(out, fe.String())
	}
	return out
}

// Fields returns a copy of the structured violations.
func (v *ValidationErrors) Fields() []FieldError {
	out := make([]FieldError, len(v.errors))
	copy(out, v.errors)
	return out
}

// ErrOrNil returns v as an error when it holds violations, nil otherwise.
func (v *ValidationErrors) ErrOrNil() error {
	if v == nil || v.IsEmpty() {
		return nil
	}
	return v
}

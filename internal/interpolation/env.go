// Package interpolation resolves ${NAME} placeholders against an environment.
//
// Two flavors are provided. Materialize and Expand are strict: every
// placeholder must resolve or the call fails, and no default syntax is
// recognized. ExpandEnvVars and InterpolateStruct accept the
// ${NAME:default} form and are used for process settings files.
package interpolation

import (
	"errors"
	"fmt"
	"os"
	"regexp"
)

var (
	// Pattern for ${VAR_NAME} and ${VAR_NAME:default} syntax - captures colon explicitly
	envVarWithDefaultPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:)?([^}]*)\}`)

	// Pattern for strict placeholders, anything up to the closing brace is the name
	placeholderPattern = regexp.MustCompile(`\$\{([^}]+)\}`)
)

// ErrUnresolvedReference is matched by every *UnresolvedReferenceError.
var ErrUnresolvedReference = errors.New("unresolved environment reference")

// UnresolvedReferenceError names the placeholder that could not be resolved.
type UnresolvedReferenceError struct {
	Name string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("environment variable %s not found", e.Name)
}

func (e *UnresolvedReferenceError) Is(target error) bool {
	return target == ErrUnresolvedReference
}

// Lookup resolves a single environment name.
type Lookup func(name string) (string, bool)

// OSLookup reads the process environment.
func OSLookup(name string) (string, bool) {
	return os.LookupEnv(name)
}

// MapLookup adapts a plain mapping into a Lookup.
func MapLookup(env map[string]string) Lookup {
	return func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
}

// Expand replaces every ${NAME} in input with its value from lookup. It stops
// at the first name that cannot be resolved and returns an
// *UnresolvedReferenceError for it.
func Expand(input string, lookup Lookup) (string, error) {
	if lookup == nil {
		lookup = OSLookup
	}

	var missing *UnresolvedReferenceError
	result := placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		if missing != nil {
			return match
		}
		name := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := lookup(name)
		if !ok {
			missing = &UnresolvedReferenceError{Name: name}
			return match
		}
		return value
	})
	if missing != nil {
		return "", missing
	}
	return result, nil
}

// HasPlaceholders reports whether s still contains a ${...} token.
func HasPlaceholders(s string) bool {
	return placeholderPattern.MatchString(s)
}

// ExpandEnvVars expands environment variables with default values in the format:
//
// ${VAR_NAME:default_value}
//
// If the environment variable is not set, it uses the default value if provided. If no default is
// provided and the variable is missing, it returns an error.
func ExpandEnvVars(input string) (string, error) {
	return ExpandEnvVarsWith(input, OSLookup)
}

// ExpandEnvVarsWith is ExpandEnvVars against an arbitrary Lookup.
func ExpandEnvVarsWith(input string, lookup Lookup) (string, error) {
	if input == "" {
		return "", nil
	}

	var missingVars []error
	result := envVarWithDefaultPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatches := envVarWithDefaultPattern.FindStringSubmatch(match)
		// submatches will be: [full_match, varName, colon, defaultValue]

		varName := submatches[1]
		colonIsPresent := submatches[2] == ":"
		defaultValue := submatches[3]

		if value, exists := lookup(varName); exists {
			return value
		}

		// ${VAR:} is a deliberate empty default
		if colonIsPresent {
			return defaultValue
		}

		missingVars = append(missingVars, &UnresolvedReferenceError{Name: varName})
		return match
	})

	return result, errors.Join(missingVars...)
}

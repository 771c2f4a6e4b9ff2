package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	domainconfig "github.com/imagereader/imagereader-mcp/domain/config"
)

// envPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
// Bare $VAR is left alone so instructions may contain a literal dollar sign.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::([-?])([^}]*))?\}`)

// envExpander expands environment variables in configuration text.
type envExpander struct {
	// strict fails if a plain ${VAR} is not set.
	strict bool
}

// Expand expands environment variables in the input string.
func (e *envExpander) Expand(input string) (string, error) {
	var missing []string

	result := envPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envPattern.FindStringSubmatch(match)
		name, op, arg := parts[1], parts[2], parts[3]
		value, ok := os.LookupEnv(name)

		switch op {
		case "-":
			if !ok || value == "" {
				return arg
			}
		case "?":
			if !ok || value == "" {
				missing = append(missing, fmt.Sprintf("%s: %s", name, arg))
				return match
			}
		default:
			if !ok && e.strict {
				missing = append(missing, name)
			}
		}
		return value
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", domainconfig.ErrMissingEnvVar, strings.Join(missing, ", "))
	}
	return result, nil
}

// ExpandEnv expands environment variables, leaving missing ones empty.
func ExpandEnv(input string) string {
	result, _ := (&envExpander{}).Expand(input)
	return result
}

// ExpandEnvStrict expands environment variables and returns an error for missing vars.
func ExpandEnvStrict(input string) (string, error) {
	return (&envExpander{strict: true}).Expand(input)
}

package bot

import (
	"regexp"
	"strings"

	"chatbot-gateway/internal/classify"
)

// ConditionKind is the closed set of supported condition types.
type ConditionKind int

const (
	CondUnknown ConditionKind = iota
	CondAlways
	CondEquals
	CondContains
	CondRegex
	CondVariable
)

func ParseConditionKind(s string) ConditionKind {
	switch strings.TrimSpace(s) {
	case "", "always":
		return CondAlways
	case "equals":
		return CondEquals
	case "contains":
		return CondContains
	case "regex":
		return CondRegex
	case "variable":
		return CondVariable
	default:
		return CondUnknown
	}
}

// Condition is one gate evaluated against a classified input and the
// instance's variable map. Evaluation never panics; malformed payloads and
// unknown kinds degrade to false.
type Condition struct {
	Kind  ConditionKind
	Value string
}

func (c Condition) Evaluate(in classify.Input, vars map[string]string) bool {
	switch c.Kind {
	case CondAlways:
		return true

	case CondEquals:
		return strings.EqualFold(strings.TrimSpace(in.Normalized), strings.TrimSpace(c.Value))

	case CondContains:
		needle := strings.ToLower(strings.TrimSpace(c.Value))
		if needle == "" {
			return false
		}
		return strings.Contains(in.Normalized, needle)

	case CondRegex:
		if strings.TrimSpace(c.Value) == "" {
			return false
		}
		re, err := regexp.Compile("(?i)" + c.Value)
		if err != nil {
			return false
		}
		return re.MatchString(in.Normalized)

	case CondVariable:
		name, expected, hasExpected := strings.Cut(c.Value, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return false
		}
		value, exists := vars[name]
		if !hasExpected {
			return exists && value != ""
		}
		return exists && strings.EqualFold(strings.TrimSpace(value), strings.TrimSpace(expected))

	default:
		return false
	}
}

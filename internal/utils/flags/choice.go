package flags

import (
	"fmt"
	"strings"
)

const (
	choicePlaceholderTemplate = "<%s>"
	choiceSeparator           = "|"
	choiceUsageEmptyTemplate  = "`%s`"
	choiceUsageFullTemplate   = "`%s` %s"
)

// FormatChoiceUsage renders the help text of an enumerated flag as
// "`<DEFAULT|other>` description", upper-casing the default choice.
// Blank and repeated choices are dropped.
func FormatChoiceUsage[Choice ~string](defaultChoice Choice, choices []Choice, description string) string {
	placeholder := fmt.Sprintf(choicePlaceholderTemplate, strings.Join(displayChoices(defaultChoice, choices), choiceSeparator))
	if trimmed := strings.TrimSpace(description); len(trimmed) > 0 {
		return fmt.Sprintf(choiceUsageFullTemplate, placeholder, trimmed)
	}
	return fmt.Sprintf(choiceUsageEmptyTemplate, placeholder)
}

func displayChoices[Choice ~string](defaultChoice Choice, choices []Choice) []string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(string(defaultChoice)))
	displayed := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))

	for _, choice := range choices {
		trimmed := strings.TrimSpace(string(choice))
		normalized := strings.ToLower(trimmed)
		if len(normalized) == 0 {
			continue
		}
		if _, duplicate := seen[normalized]; duplicate {
			continue
		}
		seen[normalized] = struct{}{}

		if normalized == normalizedDefault {
			trimmed = strings.ToUpper(trimmed)
		}
		displayed = append(displayed, trimmed)
	}

	return displayed
}

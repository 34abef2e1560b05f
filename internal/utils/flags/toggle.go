package flags

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/pflag"
)

const (
	longFlagPrefix                  = "--"
	argumentTerminator              = "--"
	flagValueSeparator              = "="
	toggleTrueCanonicalValue        = "true"
	toggleFalseCanonicalValue       = "false"
	toggleValueType                 = "bool"
	toggleParseErrorTemplate        = "invalid toggle value %q"
	toggleUsageEmptyTemplate        = "`%s`"
	toggleUsageFullTemplate         = "`%s` %s"
	toggleEnabledPlaceholder        = "<YES|no>"
	toggleDisabledPlaceholder       = "<yes|NO>"
	toggleWordYes                   = "yes"
	toggleWordNo                    = "no"
	toggleWordOn                    = "on"
	toggleWordOff                   = "off"
	toggleAttachedOnlyLiteralOne    = "1"
	toggleAttachedOnlyLiteralZero   = "0"
	toggleAttachedOnlyLiteralTrue   = "t"
	toggleAttachedOnlyLiteralFalse  = "f"
	toggleAttachedOnlyLiteralYes    = "y"
	toggleAttachedOnlyLiteralNo     = "n"
	minimumArgumentsAfterToggleWord = 1
)

// toggleWords may follow a toggle flag as a separate argument.
var toggleWords = map[string]bool{
	toggleTrueCanonicalValue:  true,
	toggleWordYes:             true,
	toggleWordOn:              true,
	toggleFalseCanonicalValue: false,
	toggleWordNo:              false,
	toggleWordOff:             false,
}

// attachedOnlyLiterals are accepted in the --flag=value form only. Standing
// alone they read as a command name.
var attachedOnlyLiterals = map[string]bool{
	toggleAttachedOnlyLiteralOne:   true,
	toggleAttachedOnlyLiteralTrue:  true,
	toggleAttachedOnlyLiteralYes:   true,
	toggleAttachedOnlyLiteralZero:  false,
	toggleAttachedOnlyLiteralFalse: false,
	toggleAttachedOnlyLiteralNo:    false,
}

var (
	toggleRegistryMutex sync.RWMutex
	toggleRegistry      = map[string]struct{}{}
)

// AddToggleFlag registers a long boolean flag that also accepts yes/no style
// values, either attached (--flag=no) or as the following argument.
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	if flagSet == nil || len(name) == 0 {
		return
	}

	flagSet.Var(newToggleValue(defaultValue, target), name, usage)

	flag := flagSet.Lookup(name)
	flag.NoOptDefVal = toggleTrueCanonicalValue
	flag.Usage = formatToggleUsage(usage, defaultValue)

	toggleRegistryMutex.Lock()
	toggleRegistry[name] = struct{}{}
	toggleRegistryMutex.Unlock()
}

// NormalizeToggleArguments joins "--toggle word" into "--toggle=word" so pflag
// reads the word as the flag value. The join only happens when more arguments
// follow the word; a word in last position is the expression and stays
// positional. Arguments after "--" are never rewritten.
func NormalizeToggleArguments(arguments []string) []string {
	if len(arguments) == 0 {
		return nil
	}

	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		current := arguments[index]
		if current == argumentTerminator {
			return append(normalized, arguments[index:]...)
		}

		if isRegisteredToggle(current) && index+1 < len(arguments) {
			nextArgument := arguments[index+1]
			remainingAfterNext := len(arguments) - index - 2
			if _, isWord := toggleWords[strings.ToLower(nextArgument)]; isWord && remainingAfterNext >= minimumArgumentsAfterToggleWord {
				normalized = append(normalized, current+flagValueSeparator+nextArgument)
				index++
				continue
			}
		}

		normalized = append(normalized, current)
	}

	return normalized
}

func isRegisteredToggle(argument string) bool {
	if !strings.HasPrefix(argument, longFlagPrefix) || strings.Contains(argument, flagValueSeparator) {
		return false
	}

	toggleRegistryMutex.RLock()
	defer toggleRegistryMutex.RUnlock()
	_, registered := toggleRegistry[strings.TrimPrefix(argument, longFlagPrefix)]
	return registered
}

func formatToggleUsage(description string, defaultValue bool) string {
	placeholder := toggleDisabledPlaceholder
	if defaultValue {
		placeholder = toggleEnabledPlaceholder
	}
	trimmed := strings.TrimSpace(description)
	if len(trimmed) == 0 {
		return fmt.Sprintf(toggleUsageEmptyTemplate, placeholder)
	}
	return fmt.Sprintf(toggleUsageFullTemplate, placeholder, trimmed)
}

type toggleValue struct {
	enabled bool
	target  *bool
}

func newToggleValue(defaultValue bool, target *bool) *toggleValue {
	if target != nil {
		*target = defaultValue
	}
	return &toggleValue{enabled: defaultValue, target: target}
}

func (value *toggleValue) Set(rawValue string) error {
	parsed, parseError := parseToggle(rawValue)
	if parseError != nil {
		return parseError
	}

	value.enabled = parsed
	if value.target != nil {
		*value.target = parsed
	}
	return nil
}

func (value *toggleValue) String() string {
	if value != nil && value.enabled {
		return toggleTrueCanonicalValue
	}
	return toggleFalseCanonicalValue
}

func (value *toggleValue) Type() string {
	return toggleValueType
}

func parseToggle(rawValue string) (bool, error) {
	normalized := strings.ToLower(strings.TrimSpace(rawValue))
	if len(normalized) == 0 {
		return true, nil
	}
	if enabled, isWord := toggleWords[normalized]; isWord {
		return enabled, nil
	}
	if enabled, isLiteral := attachedOnlyLiterals[normalized]; isLiteral {
		return enabled, nil
	}
	return false, fmt.Errorf(toggleParseErrorTemplate, rawValue)
}

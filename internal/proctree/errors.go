package proctree

import (
	"errors"
	"fmt"
)

const (
	unexpectedEndMessageConstant      = "unexpected end of expression"
	malformedGroupMessageConstant     = "malformed group"
	trailingInputMessageConstant      = "unexpected trailing input"
	parseErrorTemplateConstant        = "%s at offset %d"
	parseErrorTokenTemplateConstant   = "%s at offset %d: found %q, expected %s"
	parseErrorNoTokenTemplateConstant = "%s at offset %d: expected %s"
)

// ErrUnexpectedEnd indicates the input ended where a token was required.
var ErrUnexpectedEnd = errors.New(unexpectedEndMessageConstant)

// ErrMalformedGroup indicates a `[left,right]` group missing its comma or closing bracket.
var ErrMalformedGroup = errors.New(malformedGroupMessageConstant)

// ErrTrailingInput indicates tokens remained after a complete tree under the strict grammar.
var ErrTrailingInput = errors.New(trailingInputMessageConstant)

// ParseError describes where parsing failed. It unwraps to one of the sentinel errors.
type ParseError struct {
	Kind     error
	Position int
	Found    string
	Expected string
}

// Error describes the failure.
func (parseError *ParseError) Error() string {
	switch {
	case len(parseError.Expected) == 0:
		return fmt.Sprintf(parseErrorTemplateConstant, parseError.Kind, parseError.Position)
	case len(parseError.Found) == 0:
		return fmt.Sprintf(parseErrorNoTokenTemplateConstant, parseError.Kind, parseError.Position, parseError.Expected)
	default:
		return fmt.Sprintf(parseErrorTokenTemplateConstant, parseError.Kind, parseError.Position, parseError.Found, parseError.Expected)
	}
}

// Unwrap exposes the sentinel kind.
func (parseError *ParseError) Unwrap() error {
	return parseError.Kind
}

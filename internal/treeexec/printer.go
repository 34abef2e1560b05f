package treeexec

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/temirov/ptree/internal/utils"
)

const (
	leftChildLabelConstant     = "Output from left child:"
	rightChildLabelConstant    = "Output from right child:"
	nodeLabelTemplateConstant  = "Output from node %s:"
	labelSeparatorConstant     = " "
	workingDirectoryTemplate   = "Current directory: %s\n"
	colorPolicyNeverConstant   = "never"
	colorPolicyAlwaysConstant  = "always"
	colorPolicyAutoConstant    = "auto"
	unknownColorPolicyTemplate = "unsupported color policy: %q"
)

// ColorPolicy selects whether capture labels are colored.
type ColorPolicy string

// Supported color policies.
const (
	ColorNever  ColorPolicy = ColorPolicy(colorPolicyNeverConstant)
	ColorAlways ColorPolicy = ColorPolicy(colorPolicyAlwaysConstant)
	ColorAuto   ColorPolicy = ColorPolicy(colorPolicyAutoConstant)
)

// ParseColorPolicy converts user input into a ColorPolicy.
func ParseColorPolicy(value string) (ColorPolicy, error) {
	switch normalized := ColorPolicy(strings.ToLower(strings.TrimSpace(value))); normalized {
	case ColorNever, ColorAlways, ColorAuto:
		return normalized, nil
	default:
		return "", fmt.Errorf(unknownColorPolicyTemplate, value)
	}
}

// NodeLabel returns the label printed in front of a node's own output.
func NodeLabel(commandText string) string {
	return fmt.Sprintf(nodeLabelTemplateConstant, commandText)
}

// labelPrinter relays captured chunks with a label in front of each chunk. Every
// chunk is flushed as soon as it is written, even when the destination buffers.
type labelPrinter struct {
	writer    io.Writer
	colorizer *color.Color
}

func newLabelPrinter(writer io.Writer, policy ColorPolicy) *labelPrinter {
	printer := &labelPrinter{writer: utils.NewFlushingWriter(writer)}

	switch policy {
	case ColorAlways:
		printer.colorizer = color.New(color.FgCyan, color.Bold)
		printer.colorizer.EnableColor()
	case ColorAuto:
		if !color.NoColor {
			printer.colorizer = color.New(color.FgCyan, color.Bold)
		}
	}

	return printer
}

// Print writes the label and the chunk with a single Write call.
func (printer *labelPrinter) Print(label string, chunk []byte) error {
	renderedLabel := label
	if printer.colorizer != nil {
		renderedLabel = printer.colorizer.Sprint(label)
	}

	payload := make([]byte, 0, len(renderedLabel)+len(labelSeparatorConstant)+len(chunk))
	payload = append(payload, renderedLabel...)
	payload = append(payload, labelSeparatorConstant...)
	payload = append(payload, chunk...)

	if _, writeError := printer.writer.Write(payload); writeError != nil {
		return &ResourceError{Operation: operationWriteOutputConstant, Err: writeError}
	}
	return nil
}

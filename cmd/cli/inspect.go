package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/ptree/internal/proctree"
	flagutils "github.com/temirov/ptree/internal/utils/flags"
)

const (
	inspectCommandNameConstant             = "inspect"
	inspectCommandUseConstant              = inspectCommandNameConstant + " [flags] <expression>"
	inspectCommandShortDescriptionConstant = "Print the parsed tree without running any process"
	inspectFormatFlagNameConstant          = "format"
	inspectFormatFlagUsageConstant         = "Render the tree as an indented outline or as a YAML document."
	inspectFormatTextConstant              = "text"
	inspectFormatYAMLConstant              = "yaml"
	inspectUnknownFormatTemplateConstant   = "unsupported inspect format: %q"
	inspectWriteErrorTemplateConstant      = "unable to write tree: %w"
	inspectEncodeErrorTemplateConstant     = "unable to encode tree: %w"
)

func (application *Application) newInspectCommand() *cobra.Command {
	var format string

	inspectCommand := &cobra.Command{
		Use:           inspectCommandUseConstant,
		Short:         inspectCommandShortDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          requireSingleExpression,
		RunE: func(command *cobra.Command, arguments []string) error {
			root, parseError := proctree.Parse(arguments[0], application.configuration.Execution.ParseOptions())
			if parseError != nil {
				return fmt.Errorf(expressionParseErrorTemplateConstant, parseError)
			}
			return writeInspection(command.OutOrStdout(), root, format)
		},
	}

	inspectCommand.Flags().StringVar(&format, inspectFormatFlagNameConstant, inspectFormatTextConstant, flagutils.FormatChoiceUsage(inspectFormatTextConstant, []string{inspectFormatTextConstant, inspectFormatYAMLConstant}, inspectFormatFlagUsageConstant))

	return inspectCommand
}

func writeInspection(output io.Writer, root *proctree.Node, format string) error {
	var document []byte
	switch strings.ToLower(strings.TrimSpace(format)) {
	case inspectFormatTextConstant:
		document = []byte(proctree.Outline(root))
	case inspectFormatYAMLConstant:
		encoded, encodeError := proctree.NewSnapshot(root).MarshalDocument()
		if encodeError != nil {
			return fmt.Errorf(inspectEncodeErrorTemplateConstant, encodeError)
		}
		document = encoded
	default:
		return fmt.Errorf(inspectUnknownFormatTemplateConstant, format)
	}

	if _, writeError := output.Write(document); writeError != nil {
		return fmt.Errorf(inspectWriteErrorTemplateConstant, writeError)
	}
	return nil
}

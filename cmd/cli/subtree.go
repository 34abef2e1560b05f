package cli

import (
	"github.com/spf13/cobra"

	"github.com/temirov/ptree/internal/treeexec"
)

const (
	subtreeCommandNameConstant             = "subtree"
	subtreeCommandUseConstant              = subtreeCommandNameConstant + " [flags] -- <expression>"
	subtreeCommandShortDescriptionConstant = "Run a subtree in capture mode on behalf of a parent ptree process"
)

// newSubtreeCommand builds the hidden command helper processes are started
// with. It always runs in capture mode and writes labeled output to stdout,
// which the parent reads from a pipe.
func (application *Application) newSubtreeCommand() *cobra.Command {
	subtreeCommand := &cobra.Command{
		Use:           subtreeCommandUseConstant,
		Short:         subtreeCommandShortDescriptionConstant,
		Hidden:        true,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          requireSingleExpression,
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runTree(command, arguments[0], treeexec.ModeCapture)
		},
	}

	subtreeCommand.Flags().StringVar(&application.runIdentifierFlagValue, runIdentifierFlagNameConstant, "", runIdentifierFlagUsageConstant)

	return subtreeCommand
}

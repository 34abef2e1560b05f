package cli

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ptree/internal/proctree"
	"github.com/temirov/ptree/internal/treeexec"
	"github.com/temirov/ptree/internal/utils"
)

func TestSubtreeArgumentsCarryExecutionSettings(t *testing.T) {
	application := &Application{
		configuration: ApplicationConfiguration{
			Common: ApplicationCommonConfiguration{LogLevel: utils.LogLevelDebug, LogFormat: utils.LogFormatConsole},
			Execution: ExecutionConfiguration{
				Mode:         treeexec.ModeCapture,
				CommandMode:  proctree.CommandModeArgv,
				Grammar:      proctree.GrammarLenient,
				MaxArguments: 4,
				BufferSize:   16,
				Color:        treeexec.ColorAlways,
			},
		},
	}

	require.Equal(t, []string{
		"subtree",
		"--command-mode", "argv",
		"--grammar", "lenient",
		"--max-arguments", "4",
		"--buffer-size", "16",
		"--color", "always",
		"--log-level", "debug",
		"--log-format", "console",
		"--run-id", "run-1",
		"--",
		"-n[ls,@]",
	}, application.subtreeArguments("run-1", "-n[ls,@]"))
}

func TestSubtreeArgumentsBuilderReadsRunIdentifierFromContext(t *testing.T) {
	application := NewApplication()

	executionContext := application.commandContextAccessor.WithRunIdentifier(context.Background(), "context-run")
	arguments := application.subtreeArgumentsBuilder(executionContext)("ls[pwd,@]")

	require.Equal(t, "ls[pwd,@]", arguments[len(arguments)-1])
	runIdentifierIndex := -1
	for index, argument := range arguments {
		if argument == "--"+runIdentifierFlagNameConstant {
			runIdentifierIndex = index
		}
	}
	require.GreaterOrEqual(t, runIdentifierIndex, 0)
	require.Equal(t, "context-run", arguments[runIdentifierIndex+1])
}

func TestSubtreeCommandReusesRunIdentifier(t *testing.T) {
	application := NewApplication()

	subtreeCommand, _, findError := application.rootCommand.Find([]string{subtreeCommandNameConstant})
	require.NoError(t, findError)
	require.Equal(t, subtreeCommandNameConstant, subtreeCommand.Name())
	require.True(t, subtreeCommand.Hidden)
	require.NoError(t, subtreeCommand.Flags().Set(runIdentifierFlagNameConstant, "inherited-run"))

	require.Equal(t, "inherited-run", application.resolveRunIdentifier())
}

func TestRootCommandGeneratesRunIdentifier(t *testing.T) {
	application := NewApplication()

	require.NoError(t, application.initializeConfiguration(application.rootCommand))
	require.Same(t, os.Stderr, application.diagnostics)
	require.Equal(t, treeexec.ModeDirect, application.configuration.Execution.Mode)

	runIdentifier, available := application.commandContextAccessor.RunIdentifier(application.rootCommand.Context())
	require.True(t, available)
	require.Len(t, runIdentifier, 36)
}

func TestUsageErrorMessage(t *testing.T) {
	usageError := &UsageError{CommandPath: "ptree", Expected: 1, Received: 3}
	require.Equal(t, "usage: ptree: expected exactly 1 expression argument, received 3", usageError.Error())
}

func TestConfigurationValidationNamesField(t *testing.T) {
	configuration := ApplicationConfiguration{
		Common: ApplicationCommonConfiguration{LogLevel: utils.LogLevelWarn, LogFormat: utils.LogFormatStructured},
		Execution: ExecutionConfiguration{
			Mode:         treeexec.ModeDirect,
			CommandMode:  proctree.CommandModeName,
			Grammar:      proctree.GrammarStrict,
			MaxArguments: 0,
			BufferSize:   1,
			Color:        treeexec.ColorNever,
		},
	}

	validationError := configuration.Validate()
	require.ErrorContains(t, validationError, "max_arguments")

	configuration.Execution.MaxArguments = 10
	require.NoError(t, configuration.Validate())
}

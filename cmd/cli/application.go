package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/ptree/internal/execshell"
	"github.com/temirov/ptree/internal/proctree"
	"github.com/temirov/ptree/internal/treeexec"
	"github.com/temirov/ptree/internal/ui"
	"github.com/temirov/ptree/internal/utils"
	flagutils "github.com/temirov/ptree/internal/utils/flags"
)

const (
	applicationNameConstant                   = "ptree"
	applicationUseConstant                    = applicationNameConstant + " [flags] <expression>"
	applicationShortDescriptionConstant       = "Run a binary tree of processes described in bracket notation"
	applicationLongDescriptionConstant        = "ptree parses an expression such as \"ls[pwd,@]\" into a binary tree of commands and runs every node as its own process, either with inherited output (direct mode) or with each subtree's output relayed under an attributing label (capture mode)."
	applicationExampleConstant                = "  ptree 'echo[ls,pwd]'\n  ptree --mode capture --command-mode argv 'echo root[echo left,echo right]'"
	developmentVersionConstant                = "dev"
	configFileFlagNameConstant                = "config"
	configFileFlagUsageConstant               = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                  = "log-level"
	logLevelFlagUsageConstant                 = "Override the configured log level."
	logFormatFlagNameConstant                 = "log-format"
	logFormatFlagUsageConstant                = "Override the configured log format."
	modeFlagNameConstant                      = "mode"
	modeFlagUsageConstant                     = "Run nodes with inherited output or relay subtree output with labels."
	commandModeFlagNameConstant               = "command-mode"
	commandModeFlagUsageConstant              = "Treat each node as a bare executable name or split it into an argument vector."
	grammarFlagNameConstant                   = "grammar"
	grammarFlagUsageConstant                  = "Reject or tolerate groups missing their comma or closing bracket."
	maxArgumentsFlagNameConstant              = "max-arguments"
	maxArgumentsFlagUsageConstant             = "Maximum number of argument vector elements kept per node."
	bufferSizeFlagNameConstant                = "buffer-size"
	bufferSizeFlagUsageConstant               = "Maximum number of bytes relayed per captured chunk."
	showWorkingDirectoryFlagNameConstant      = "show-working-directory"
	showWorkingDirectoryFlagUsageConstant     = "Print the working directory after each node in direct mode."
	colorFlagNameConstant                     = "color"
	colorFlagUsageConstant                    = "Color capture labels."
	runIdentifierFlagNameConstant             = "run-id"
	runIdentifierFlagUsageConstant            = "Identifier correlating diagnostics of one tree run."
	environmentPrefixConstant                 = "PTREE"
	configurationNameConstant                 = "config"
	defaultConfigurationSearchPathConstant    = "."
	configurationInitializedMessageConstant   = "configuration initialized"
	configurationLogLevelFieldConstant        = "log_level"
	configurationLogFormatFieldConstant       = "log_format"
	configurationModeFieldConstant            = "mode"
	configurationFileFieldConstant            = "config_file"
	runIdentifierLogFieldConstant             = "run_id"
	configurationLoadErrorTemplateConstant    = "unable to load configuration: %w"
	flagOverrideErrorTemplateConstant         = "invalid --%s value: %w"
	loggerCreationErrorTemplateConstant       = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant           = "unable to flush logger: %w"
	expressionParseErrorTemplateConstant      = "unable to parse expression: %w"
	executorCreationErrorTemplateConstant     = "unable to prepare executor: %w"
	subtreeLauncherErrorTemplateConstant      = "unable to prepare subtree launcher: %w"
	treeExecutionErrorTemplateConstant        = "process tree failed: %w"
	loggerNotInitializedMessageConstant       = "logger not initialized"
	usageErrorTemplateConstant                = "usage: %s: expected exactly %d expression argument, received %d"
	expectedExpressionArgumentCountConstant   = 1
	inheritedDiagnosticsDescriptorConstant    = 3
	inheritedDiagnosticsNameConstant          = "diagnostics"
	subtreeArgumentsTerminatorConstant        = "--"
	defaultExecutionMaxArgumentsValue         = proctree.DefaultMaxArguments
	defaultExecutionBufferSizeValue           = treeexec.DefaultBufferSize
	defaultExecutionShowWorkingDirectoryValue = false
)

// UsageError reports a command invoked with the wrong number of positional arguments.
type UsageError struct {
	CommandPath string
	Expected    int
	Received    int
}

// Error describes the expected invocation.
func (usageError *UsageError) Error() string {
	return fmt.Sprintf(usageErrorTemplateConstant, usageError.CommandPath, usageError.Expected, usageError.Received)
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand                   *cobra.Command
	configurationLoader           *utils.ConfigurationLoader
	loggerFactory                 *utils.LoggerFactory
	logger                        *zap.Logger
	configuration                 ApplicationConfiguration
	configurationMetadata         utils.LoadedConfiguration
	configurationFilePath         string
	logLevelFlagValue             string
	logFormatFlagValue            string
	modeFlagValue                 string
	commandModeFlagValue          string
	grammarFlagValue              string
	maxArgumentsFlagValue         int
	bufferSizeFlagValue           int
	showWorkingDirectoryFlagValue bool
	colorFlagValue                string
	runIdentifierFlagValue        string
	diagnostics                   *os.File
	commandContextAccessor        utils.CommandContextAccessor
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())
	configurationLoader.SetDecodeHooks(configurationDecodeHooks()...)

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationUseConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Example:       applicationExampleConstant,
		Version:       resolveApplicationVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          requireSingleExpression,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runTree(command, arguments[0], application.configuration.Execution.Mode)
		},
	}

	cobraCommand.SetContext(context.Background())
	persistentFlags := cobraCommand.PersistentFlags()
	persistentFlags.StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	persistentFlags.StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", flagutils.FormatChoiceUsage(utils.LogLevelWarn, []utils.LogLevel{utils.LogLevelDebug, utils.LogLevelInfo, utils.LogLevelWarn, utils.LogLevelError}, logLevelFlagUsageConstant))
	persistentFlags.StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", flagutils.FormatChoiceUsage(utils.LogFormatStructured, []utils.LogFormat{utils.LogFormatStructured, utils.LogFormatConsole}, logFormatFlagUsageConstant))
	persistentFlags.StringVar(&application.modeFlagValue, modeFlagNameConstant, "", flagutils.FormatChoiceUsage(treeexec.ModeDirect, []treeexec.Mode{treeexec.ModeDirect, treeexec.ModeCapture}, modeFlagUsageConstant))
	persistentFlags.StringVar(&application.commandModeFlagValue, commandModeFlagNameConstant, "", flagutils.FormatChoiceUsage(proctree.CommandModeName, []proctree.CommandMode{proctree.CommandModeName, proctree.CommandModeArgv}, commandModeFlagUsageConstant))
	persistentFlags.StringVar(&application.grammarFlagValue, grammarFlagNameConstant, "", flagutils.FormatChoiceUsage(proctree.GrammarStrict, []proctree.GrammarPolicy{proctree.GrammarStrict, proctree.GrammarLenient}, grammarFlagUsageConstant))
	persistentFlags.IntVar(&application.maxArgumentsFlagValue, maxArgumentsFlagNameConstant, defaultExecutionMaxArgumentsValue, maxArgumentsFlagUsageConstant)
	persistentFlags.IntVar(&application.bufferSizeFlagValue, bufferSizeFlagNameConstant, defaultExecutionBufferSizeValue, bufferSizeFlagUsageConstant)
	flagutils.AddToggleFlag(persistentFlags, &application.showWorkingDirectoryFlagValue, showWorkingDirectoryFlagNameConstant, defaultExecutionShowWorkingDirectoryValue, showWorkingDirectoryFlagUsageConstant)
	persistentFlags.StringVar(&application.colorFlagValue, colorFlagNameConstant, "", flagutils.FormatChoiceUsage(treeexec.ColorNever, []treeexec.ColorPolicy{treeexec.ColorNever, treeexec.ColorAlways, treeexec.ColorAuto}, colorFlagUsageConstant))

	cobraCommand.AddCommand(application.newSubtreeCommand())
	cobraCommand.AddCommand(application.newInspectCommand())

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	application.rootCommand.SetArgs(flagutils.NormalizeToggleArguments(os.Args[1:]))
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func requireSingleExpression(command *cobra.Command, arguments []string) error {
	if len(arguments) != expectedExpressionArgumentCountConstant {
		return &UsageError{CommandPath: command.CommandPath(), Expected: expectedExpressionArgumentCountConstant, Received: len(arguments)}
	}
	return nil
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	application.configuration = ApplicationConfiguration{}
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultConfigurationValues(), &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	if overrideError := application.applyFlagOverrides(command); overrideError != nil {
		return overrideError
	}

	if validationError := application.configuration.Validate(); validationError != nil {
		return validationError
	}

	runIdentifier := application.resolveRunIdentifier()

	if loggerError := application.initializeLogger(command, runIdentifier); loggerError != nil {
		return loggerError
	}

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, string(application.configuration.Common.LogLevel)),
		zap.String(configurationLogFormatFieldConstant, string(application.configuration.Common.LogFormat)),
		zap.String(configurationModeFieldConstant, string(application.configuration.Execution.Mode)),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithRunIdentifier(command.Context(), runIdentifier)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

// resolveRunIdentifier keeps the identifier handed down by a parent process
// and generates a fresh one at the root of a run.
func (application *Application) resolveRunIdentifier() string {
	if len(application.runIdentifierFlagValue) > 0 {
		return application.runIdentifierFlagValue
	}
	return uuid.NewString()
}

func (application *Application) applyFlagOverrides(command *cobra.Command) error {
	execution := &application.configuration.Execution
	common := &application.configuration.Common

	stringOverrides := []struct {
		flagName string
		value    string
		apply    func(string) error
	}{
		{flagName: logLevelFlagNameConstant, value: application.logLevelFlagValue, apply: assignParsed(&common.LogLevel, parseLogLevel)},
		{flagName: logFormatFlagNameConstant, value: application.logFormatFlagValue, apply: assignParsed(&common.LogFormat, parseLogFormat)},
		{flagName: modeFlagNameConstant, value: application.modeFlagValue, apply: assignParsed(&execution.Mode, treeexec.ParseMode)},
		{flagName: commandModeFlagNameConstant, value: application.commandModeFlagValue, apply: assignParsed(&execution.CommandMode, proctree.ParseCommandMode)},
		{flagName: grammarFlagNameConstant, value: application.grammarFlagValue, apply: assignParsed(&execution.Grammar, proctree.ParseGrammarPolicy)},
		{flagName: colorFlagNameConstant, value: application.colorFlagValue, apply: assignParsed(&execution.Color, treeexec.ParseColorPolicy)},
	}

	for _, override := range stringOverrides {
		if !application.persistentFlagChanged(command, override.flagName) {
			continue
		}
		if applyError := override.apply(override.value); applyError != nil {
			return fmt.Errorf(flagOverrideErrorTemplateConstant, override.flagName, applyError)
		}
	}

	if application.persistentFlagChanged(command, maxArgumentsFlagNameConstant) {
		execution.MaxArguments = application.maxArgumentsFlagValue
	}
	if application.persistentFlagChanged(command, bufferSizeFlagNameConstant) {
		execution.BufferSize = application.bufferSizeFlagValue
	}
	if application.persistentFlagChanged(command, showWorkingDirectoryFlagNameConstant) {
		execution.ShowWorkingDirectory = application.showWorkingDirectoryFlagValue
	}

	return nil
}

func assignParsed[Enumeration ~string](target *Enumeration, parse func(string) (Enumeration, error)) func(string) error {
	return func(value string) error {
		parsed, parseError := parse(value)
		if parseError != nil {
			return parseError
		}
		*target = parsed
		return nil
	}
}

// initializeLogger logs to stderr in the root process. A subtree helper has its
// stderr captured, so it logs through the descriptor inherited from its parent.
func (application *Application) initializeLogger(command *cobra.Command, runIdentifier string) error {
	logLevel := application.configuration.Common.LogLevel
	logFormat := application.configuration.Common.LogFormat

	var logger *zap.Logger
	var loggerError error
	if command != nil && command.Name() == subtreeCommandNameConstant {
		application.diagnostics = openInheritedDiagnostics()
		if application.diagnostics != nil {
			logger, loggerError = application.loggerFactory.CreateLoggerWithOutput(logLevel, logFormat, application.diagnostics)
		} else {
			logger, loggerError = application.loggerFactory.CreateLoggerWithOutput(logLevel, logFormat, nil)
		}
	} else {
		application.diagnostics = os.Stderr
		logger, loggerError = application.loggerFactory.CreateLogger(logLevel, logFormat)
	}
	if loggerError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerError)
	}

	application.logger = logger.With(zap.String(runIdentifierLogFieldConstant, runIdentifier))
	return nil
}

func openInheritedDiagnostics() *os.File {
	diagnostics := os.NewFile(uintptr(inheritedDiagnosticsDescriptorConstant), inheritedDiagnosticsNameConstant)
	if diagnostics == nil {
		return nil
	}
	if _, statError := diagnostics.Stat(); statError != nil {
		return nil
	}
	return diagnostics
}

func (application *Application) runTree(command *cobra.Command, expression string, mode treeexec.Mode) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	execution := application.configuration.Execution
	root, parseError := proctree.Parse(expression, execution.ParseOptions())
	if parseError != nil {
		return fmt.Errorf(expressionParseErrorTemplateConstant, parseError)
	}

	options := treeexec.Options{
		Mode:                 mode,
		Output:               command.OutOrStdout(),
		ErrorOutput:          command.ErrOrStderr(),
		Input:                os.Stdin,
		BufferSize:           execution.BufferSize,
		ShowWorkingDirectory: execution.ShowWorkingDirectory,
		Color:                execution.Color,
		Diagnostics:          application.diagnostics,
		Logger:               application.logger,
		Observer:             ui.NewNodeEventLogger(application.logger),
	}

	if mode == treeexec.ModeCapture {
		launcher, launcherError := execshell.NewSelfLauncher(application.subtreeArgumentsBuilder(command.Context()))
		if launcherError != nil {
			return fmt.Errorf(subtreeLauncherErrorTemplateConstant, launcherError)
		}
		options.Launcher = launcher
	}

	executor, executorError := treeexec.New(options)
	if executorError != nil {
		return fmt.Errorf(executorCreationErrorTemplateConstant, executorError)
	}

	if executionError := executor.Execute(command.Context(), root); executionError != nil {
		return fmt.Errorf(treeExecutionErrorTemplateConstant, executionError)
	}
	return nil
}

// subtreeArgumentsBuilder binds helper arguments to the run identifier stored
// in executionContext, so every helper of a run logs under the same identifier.
func (application *Application) subtreeArgumentsBuilder(executionContext context.Context) func(string) []string {
	runIdentifier, _ := application.commandContextAccessor.RunIdentifier(executionContext)
	return func(expression string) []string {
		return application.subtreeArguments(runIdentifier, expression)
	}
}

// subtreeArguments hands every setting a helper needs over explicitly, so the
// helper behaves the same regardless of its own configuration sources.
func (application *Application) subtreeArguments(runIdentifier string, expression string) []string {
	execution := application.configuration.Execution
	common := application.configuration.Common
	return []string{
		subtreeCommandNameConstant,
		"--" + commandModeFlagNameConstant, string(execution.CommandMode),
		"--" + grammarFlagNameConstant, string(execution.Grammar),
		"--" + maxArgumentsFlagNameConstant, strconv.Itoa(execution.MaxArguments),
		"--" + bufferSizeFlagNameConstant, strconv.Itoa(execution.BufferSize),
		"--" + colorFlagNameConstant, string(execution.Color),
		"--" + logLevelFlagNameConstant, string(common.LogLevel),
		"--" + logFormatFlagNameConstant, string(common.LogFormat),
		"--" + runIdentifierFlagNameConstant, runIdentifier,
		subtreeArgumentsTerminatorConstant,
		expression,
	}
}

func (application *Application) flushLogger() error {
	return application.syncLoggerInstance(application.logger)
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}

func resolveApplicationVersion() string {
	buildInformation, available := debug.ReadBuildInfo()
	if !available || len(buildInformation.Main.Version) == 0 || buildInformation.Main.Version == "(devel)" {
		return developmentVersionConstant
	}
	return buildInformation.Main.Version
}

package treeexec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/ptree/internal/execshell"
	"github.com/temirov/ptree/internal/proctree"
)

// DefaultBufferSize is the pipe read chunk size used when none is configured.
const DefaultBufferSize = 1024

const (
	modeDirectConstant                 = "direct"
	modeCaptureConstant                = "capture"
	unknownModeTemplateConstant        = "unsupported execution mode: %q"
	outputMissingMessageConstant       = "output writer not configured"
	launcherMissingMessageConstant     = "subtree launcher required for capture mode"
	childCommandReportTemplateConstant = "%v\n"
	subtreeExitedMessageConstant       = "subtree process exited abnormally"
	workingDirectoryFailureMessage     = "unable to determine working directory"
	childCommandFailureMessageConstant = "node command could not be started"
	logFieldBranchConstant             = "branch"
	logFieldExpressionConstant         = "expression"
	logFieldCommandConstant            = "command"
	logFieldModeConstant               = "mode"
	logFieldNodeCountConstant          = "node_count"
	executionStartedMessageConstant    = "executing process tree"
	executionFinishedMessageConstant   = "process tree finished"
	nodeReapFailureMessageConstant     = "unable to reap node process"
	exitCodeUnavailableConstant        = -1
)

// Mode selects the execution strategy.
type Mode string

// Supported execution modes.
const (
	ModeDirect  Mode = Mode(modeDirectConstant)
	ModeCapture Mode = Mode(modeCaptureConstant)
)

// ParseMode converts user input into a Mode.
func ParseMode(value string) (Mode, error) {
	switch normalized := Mode(strings.ToLower(strings.TrimSpace(value))); normalized {
	case ModeDirect, ModeCapture:
		return normalized, nil
	default:
		return "", fmt.Errorf(unknownModeTemplateConstant, value)
	}
}

// ErrOutputNotConfigured indicates the executor has nowhere to write output.
var ErrOutputNotConfigured = errors.New(outputMissingMessageConstant)

// ErrLauncherNotConfigured indicates capture mode without a subtree launcher.
var ErrLauncherNotConfigured = errors.New(launcherMissingMessageConstant)

// Options configure an Executor.
type Options struct {
	Mode Mode
	// Output receives node output in direct mode and labeled chunks in capture mode.
	Output io.Writer
	// ErrorOutput receives node diagnostics in direct mode. Defaults to Output.
	ErrorOutput io.Writer
	// Input is handed to every spawned process; nil means the null device.
	Input *os.File
	// BufferSize bounds a single pipe read.
	BufferSize int
	// ShowWorkingDirectory prints the working directory after each node in direct mode.
	ShowWorkingDirectory bool
	// Color decides whether capture labels are colored; defaults to ColorNever.
	Color ColorPolicy
	// Launcher hosts subtrees in capture mode.
	Launcher execshell.SubtreeLauncher
	// Diagnostics is inherited by subtree processes as descriptor 3.
	Diagnostics *os.File
	Logger   *zap.Logger
	Observer execshell.NodeEventObserver
	// WorkingDirectory reports the directory printed in direct mode.
	WorkingDirectory func() (string, error)
}

// Executor runs process trees.
type Executor struct {
	options  Options
	strategy executionStrategy
	printer  *labelPrinter
}

type executionStrategy interface {
	execute(executionContext context.Context, node *proctree.Node) error
}

// New validates the options and selects the strategy.
func New(options Options) (*Executor, error) {
	if options.Output == nil {
		return nil, ErrOutputNotConfigured
	}
	if options.ErrorOutput == nil {
		options.ErrorOutput = options.Output
	}
	if options.BufferSize <= 0 {
		options.BufferSize = DefaultBufferSize
	}
	if len(options.Mode) == 0 {
		options.Mode = ModeDirect
	}
	if len(options.Color) == 0 {
		options.Color = ColorNever
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	if options.Observer == nil {
		options.Observer = execshell.NoopNodeEventObserver{}
	}
	if options.WorkingDirectory == nil {
		options.WorkingDirectory = os.Getwd
	}

	executor := &Executor{options: options, printer: newLabelPrinter(options.Output, options.Color)}

	switch options.Mode {
	case ModeDirect:
		executor.strategy = &directStrategy{executor: executor}
	case ModeCapture:
		if options.Launcher == nil {
			return nil, ErrLauncherNotConfigured
		}
		executor.strategy = &captureStrategy{executor: executor}
	default:
		return nil, fmt.Errorf(unknownModeTemplateConstant, options.Mode)
	}

	return executor, nil
}

// Execute runs the tree rooted at root and returns once every process it
// spawned has been reaped. Executing the empty tree does nothing.
func (executor *Executor) Execute(executionContext context.Context, root *proctree.Node) error {
	if executionContext == nil {
		executionContext = context.Background()
	}
	if root == nil {
		return nil
	}

	executor.options.Logger.Debug(
		executionStartedMessageConstant,
		zap.String(logFieldModeConstant, string(executor.options.Mode)),
		zap.String(logFieldExpressionConstant, proctree.Render(root)),
		zap.Int(logFieldNodeCountConstant, proctree.Count(root)),
	)

	executionError := executor.strategy.execute(executionContext, root)

	executor.options.Logger.Debug(executionFinishedMessageConstant, zap.String(logFieldModeConstant, string(executor.options.Mode)))
	return executionError
}

// startNode starts a node process with the given output streams. A
// ChildCommandError is reported on errorOutput and swallowed; only resource
// failures are returned. The returned process is nil when nothing was started.
func (executor *Executor) startNode(executionContext context.Context, command proctree.Command, output io.Writer, errorOutput io.Writer) (*exec.Cmd, error) {
	process, prepareError := execshell.NodeCommand(executionContext, command)
	if prepareError == nil {
		process.Stdin = executor.input()
		process.Stdout = output
		process.Stderr = errorOutput
		prepareError = process.Start()
	}
	if prepareError == nil {
		executor.options.Observer.NodeStarted(command, process.Process.Pid)
		return process, nil
	}

	classified := classifyStartError(command, prepareError)
	var childCommandError *ChildCommandError
	if !errors.As(classified, &childCommandError) {
		return nil, classified
	}

	executor.options.Observer.NodeStartFailed(command, childCommandError)
	executor.options.Logger.Info(childCommandFailureMessageConstant, zap.String(logFieldCommandConstant, command.String()), zap.Error(childCommandError))
	fmt.Fprintf(errorOutput, childCommandReportTemplateConstant, childCommandError)
	return nil, nil
}

// waitNode reaps a node process and reports its exit code to the observer.
func (executor *Executor) waitNode(command proctree.Command, process *exec.Cmd) {
	waitError := process.Wait()
	exitCode := 0
	if waitError != nil {
		exitCode = exitCodeUnavailableConstant
		var exitError *exec.ExitError
		if errors.As(waitError, &exitError) {
			exitCode = exitError.ExitCode()
		} else {
			executor.options.Logger.Warn(nodeReapFailureMessageConstant, zap.String(logFieldCommandConstant, command.String()), zap.Error(waitError))
		}
	}
	executor.options.Observer.NodeCompleted(command, exitCode)
}

func (executor *Executor) input() io.Reader {
	if executor.options.Input == nil {
		return nil
	}
	return executor.options.Input
}

// directStrategy runs each node with inherited output and then its children, sequentially.
type directStrategy struct {
	executor *Executor
}

func (strategy *directStrategy) execute(executionContext context.Context, node *proctree.Node) error {
	if node == nil {
		return nil
	}

	executor := strategy.executor
	process, startError := executor.startNode(executionContext, node.Command, executor.options.Output, executor.options.ErrorOutput)
	if startError != nil {
		return startError
	}
	if process != nil {
		executor.waitNode(node.Command, process)
	}

	if executor.options.ShowWorkingDirectory {
		strategy.reportWorkingDirectory()
	}

	if leftError := strategy.execute(executionContext, node.Left); leftError != nil {
		return leftError
	}
	return strategy.execute(executionContext, node.Right)
}

func (strategy *directStrategy) reportWorkingDirectory() {
	options := strategy.executor.options
	workingDirectory, workingDirectoryError := options.WorkingDirectory()
	if workingDirectoryError != nil {
		fmt.Fprintf(options.ErrorOutput, childCommandReportTemplateConstant, fmt.Errorf("%s: %w", workingDirectoryFailureMessage, workingDirectoryError))
		return
	}
	fmt.Fprintf(options.Output, workingDirectoryTemplate, workingDirectory)
}

// captureStrategy hosts both branches of a node in helper processes, relays
// their output left first, reaps them, and then runs the node itself.
type captureStrategy struct {
	executor *Executor
}

func (strategy *captureStrategy) execute(executionContext context.Context, node *proctree.Node) error {
	if node == nil {
		return nil
	}

	executor := strategy.executor
	options := executor.options

	leftHandle, leftError := spawnSubtree(executionContext, options.Launcher, options.Diagnostics, executor.input(), node.Left, leftChildLabelConstant)
	if leftError != nil {
		return leftError
	}

	rightHandle, rightError := spawnSubtree(executionContext, options.Launcher, options.Diagnostics, executor.input(), node.Right, rightChildLabelConstant)
	if rightError != nil {
		leftHandle.abandon()
		return rightError
	}

	relayError := leftHandle.drain(executor.printer, options.BufferSize)
	if relayError == nil {
		relayError = rightHandle.drain(executor.printer, options.BufferSize)
	}

	strategy.reap(leftHandle)
	strategy.reap(rightHandle)

	if relayError != nil {
		return relayError
	}

	return strategy.runNode(executionContext, node.Command)
}

// reap waits for a branch helper; an abnormal exit stays confined to the branch.
func (strategy *captureStrategy) reap(handle *subtreeHandle) {
	if waitError := handle.wait(); waitError != nil {
		strategy.executor.options.Logger.Warn(
			subtreeExitedMessageConstant,
			zap.String(logFieldBranchConstant, handle.label),
			zap.String(logFieldExpressionConstant, proctree.Render(handle.subtree)),
			zap.Error(waitError),
		)
	}
}

// runNode runs the node command with its own pipe and relays its output. When
// the executable cannot be started the diagnostic travels through the same
// pipe, so it is relayed under the node label.
func (strategy *captureStrategy) runNode(executionContext context.Context, command proctree.Command) error {
	executor := strategy.executor
	label := NodeLabel(command.String())

	reader, writer, pipeError := os.Pipe()
	if pipeError != nil {
		return &ResourceError{Operation: operationCreatePipeConstant, Err: pipeError}
	}

	process, startError := executor.startNode(executionContext, command, writer, writer)
	closeFiles(writer)
	if startError != nil {
		closeFiles(reader)
		return startError
	}

	relayError := relay(reader, executor.printer, label, executor.options.BufferSize)
	closeFiles(reader)
	if process != nil {
		executor.waitNode(command, process)
	}
	return relayError
}

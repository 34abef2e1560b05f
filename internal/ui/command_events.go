package ui

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/ptree/internal/proctree"
)

const (
	nodeStartedMessageTemplateConstant        = "Running %s"
	nodeCompletedMessageTemplateConstant      = "Completed %s"
	nodeFailedExitCodeMessageTemplateConstant = "%s failed with exit code %d"
	nodeStartFailureMessageTemplateConstant   = "%s could not be started: %s"
	processIdentifierSuffixTemplateConstant   = " (pid %d)"
	unknownFailureMessageConstant             = "unknown error"
	emptyCommandLabelConstant                 = "<empty>"
	logFieldCommandConstant                   = "command"
	logFieldProcessIdentifierConstant         = "pid"
	logFieldExitCodeConstant                  = "exit_code"
	nodeStartedWithoutIdentifierValueConstant = 0
	nodeCompletedSuccessfullyExitCodeConstant = 0
)

// NodeEventFormatter builds human-readable messages for node lifecycle events.
type NodeEventFormatter struct{}

// BuildStartedMessage formats the message describing a node process that is running.
func (formatter NodeEventFormatter) BuildStartedMessage(command proctree.Command, processIdentifier int) string {
	message := fmt.Sprintf(nodeStartedMessageTemplateConstant, formatter.formatCommandLabel(command))
	if processIdentifier <= nodeStartedWithoutIdentifierValueConstant {
		return message
	}
	return message + fmt.Sprintf(processIdentifierSuffixTemplateConstant, processIdentifier)
}

// BuildSuccessMessage formats the message describing a node process that exited with zero.
func (formatter NodeEventFormatter) BuildSuccessMessage(command proctree.Command) string {
	return fmt.Sprintf(nodeCompletedMessageTemplateConstant, formatter.formatCommandLabel(command))
}

// BuildFailureMessage formats the message describing a node process that exited with a non-zero code.
func (formatter NodeEventFormatter) BuildFailureMessage(command proctree.Command, exitCode int) string {
	return fmt.Sprintf(nodeFailedExitCodeMessageTemplateConstant, formatter.formatCommandLabel(command), exitCode)
}

// BuildStartFailureMessage formats the message describing an executable that could not be started.
func (formatter NodeEventFormatter) BuildStartFailureMessage(command proctree.Command, failure error) string {
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	return fmt.Sprintf(nodeStartFailureMessageTemplateConstant, formatter.formatCommandLabel(command), failureMessage)
}

func (formatter NodeEventFormatter) formatCommandLabel(command proctree.Command) string {
	label := command.String()
	if len(label) == 0 {
		return emptyCommandLabelConstant
	}
	return label
}

// NodeEventLogger reports node lifecycle events through a zap logger.
type NodeEventLogger struct {
	logger    *zap.Logger
	formatter NodeEventFormatter
}

// NewNodeEventLogger constructs an event logger backed by the provided zap logger.
func NewNodeEventLogger(logger *zap.Logger) *NodeEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NodeEventLogger{logger: logger, formatter: NodeEventFormatter{}}
}

// NodeStarted implements execshell.NodeEventObserver.
func (eventLogger *NodeEventLogger) NodeStarted(command proctree.Command, processIdentifier int) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Debug(
		eventLogger.formatter.BuildStartedMessage(command, processIdentifier),
		zap.String(logFieldCommandConstant, command.String()),
		zap.Int(logFieldProcessIdentifierConstant, processIdentifier),
	)
}

// NodeCompleted implements execshell.NodeEventObserver.
func (eventLogger *NodeEventLogger) NodeCompleted(command proctree.Command, exitCode int) {
	if eventLogger == nil {
		return
	}
	fields := []zap.Field{zap.String(logFieldCommandConstant, command.String()), zap.Int(logFieldExitCodeConstant, exitCode)}
	if exitCode == nodeCompletedSuccessfullyExitCodeConstant {
		eventLogger.logger.Debug(eventLogger.formatter.BuildSuccessMessage(command), fields...)
		return
	}
	eventLogger.logger.Debug(eventLogger.formatter.BuildFailureMessage(command, exitCode), fields...)
}

// NodeStartFailed implements execshell.NodeEventObserver.
func (eventLogger *NodeEventLogger) NodeStartFailed(command proctree.Command, failure error) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Debug(
		eventLogger.formatter.BuildStartFailureMessage(command, failure),
		zap.String(logFieldCommandConstant, command.String()),
	)
}

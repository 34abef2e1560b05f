package treeexec

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/temirov/ptree/internal/proctree"
)

const (
	resourceErrorTemplateConstant     = "%s failed: %v"
	childCommandErrorTemplateConstant = "%s: %v"
	operationCreatePipeConstant       = "create pipe"
	operationPrepareSubtreeConstant   = "prepare subtree process"
	operationSpawnSubtreeConstant     = "spawn subtree process"
	operationSpawnNodeConstant        = "spawn node process"
	operationReadPipeConstant         = "read pipe"
	operationWriteOutputConstant      = "write output"
)

// ResourceError reports a pipe or process creation failure. It aborts the traversal.
type ResourceError struct {
	Operation string
	Err       error
}

// Error describes the failure.
func (resourceError *ResourceError) Error() string {
	return fmt.Sprintf(resourceErrorTemplateConstant, resourceError.Operation, resourceError.Err)
}

// Unwrap exposes the underlying cause.
func (resourceError *ResourceError) Unwrap() error {
	return resourceError.Err
}

// ChildCommandError reports that a node executable could not be located or started.
// It is confined to the node and reported on the node's error stream.
type ChildCommandError struct {
	Command proctree.Command
	Err     error
}

// Error describes the failure.
func (childCommandError *ChildCommandError) Error() string {
	return fmt.Sprintf(childCommandErrorTemplateConstant, childCommandError.Command.Name, childCommandError.Err)
}

// Unwrap exposes the underlying cause.
func (childCommandError *ChildCommandError) Unwrap() error {
	return childCommandError.Err
}

var resourceExhaustionErrors = []error{syscall.EAGAIN, syscall.ENOMEM, syscall.EMFILE, syscall.ENFILE}

// classifyStartError separates resource exhaustion from executables that cannot run.
func classifyStartError(command proctree.Command, startError error) error {
	for _, exhaustionError := range resourceExhaustionErrors {
		if errors.Is(startError, exhaustionError) {
			return &ResourceError{Operation: operationSpawnNodeConstant, Err: startError}
		}
	}
	return &ChildCommandError{Command: command, Err: startError}
}

package execshell

import (
	"context"
	"errors"
	"os"
	"os/exec"

	"github.com/temirov/ptree/internal/proctree"
)

const (
	executablePathMissingMessageConstant   = "subtree executable path not configured"
	argumentsBuilderMissingMessageConstant = "subtree arguments builder not configured"
	emptyCommandMessageConstant            = "node command is empty"
)

// ErrExecutablePathNotConfigured indicates a SelfLauncher without an executable.
var ErrExecutablePathNotConfigured = errors.New(executablePathMissingMessageConstant)

// ErrArgumentsBuilderNotConfigured indicates a SelfLauncher without an arguments builder.
var ErrArgumentsBuilderNotConfigured = errors.New(argumentsBuilderMissingMessageConstant)

// ErrEmptyCommand indicates a node whose command has no executable name.
var ErrEmptyCommand = errors.New(emptyCommandMessageConstant)

// SubtreeLauncher prepares the process that executes a subtree on its own.
type SubtreeLauncher interface {
	Command(executionContext context.Context, subtree *proctree.Node) (*exec.Cmd, error)
}

// SubtreeArgumentsBuilder yields the arguments that make a process execute the rendered subtree expression.
type SubtreeArgumentsBuilder func(expression string) []string

// SelfLauncher hosts subtrees by re-executing a binary that understands the subtree arguments.
type SelfLauncher struct {
	ExecutablePath       string
	ArgumentsBuilder     SubtreeArgumentsBuilder
	EnvironmentVariables []string
}

// NewSelfLauncher builds a launcher that re-executes the currently running binary.
func NewSelfLauncher(argumentsBuilder SubtreeArgumentsBuilder) (*SelfLauncher, error) {
	executablePath, executableError := os.Executable()
	if executableError != nil {
		return nil, executableError
	}
	return &SelfLauncher{ExecutablePath: executablePath, ArgumentsBuilder: argumentsBuilder}, nil
}

// Command renders the subtree and prepares the helper process for it.
func (launcher *SelfLauncher) Command(executionContext context.Context, subtree *proctree.Node) (*exec.Cmd, error) {
	if len(launcher.ExecutablePath) == 0 {
		return nil, ErrExecutablePathNotConfigured
	}
	if launcher.ArgumentsBuilder == nil {
		return nil, ErrArgumentsBuilderNotConfigured
	}

	arguments := launcher.ArgumentsBuilder(proctree.Render(subtree))
	executable := exec.CommandContext(executionContext, launcher.ExecutablePath, arguments...)
	if len(launcher.EnvironmentVariables) > 0 {
		executable.Env = append(append([]string{}, os.Environ()...), launcher.EnvironmentVariables...)
	}
	return executable, nil
}

// NodeCommand prepares the process for a node command. The executable is
// resolved against PATH; in name mode it runs without arguments.
func NodeCommand(executionContext context.Context, command proctree.Command) (*exec.Cmd, error) {
	if len(command.Name) == 0 {
		return nil, ErrEmptyCommand
	}
	return exec.CommandContext(executionContext, command.Name, command.Arguments...), nil
}

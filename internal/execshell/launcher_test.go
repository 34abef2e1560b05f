package execshell_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ptree/internal/execshell"
	"github.com/temirov/ptree/internal/proctree"
)

const (
	testExecutablePathConstant      = "/usr/local/bin/ptree"
	testSubtreeCommandConstant      = "subtree"
	testEnvironmentVariableConstant = "PTREE_RUN_ID=test-run"
)

func TestSelfLauncherValidation(testInstance *testing.T) {
	subtree := &proctree.Node{Command: proctree.Command{Name: "ls"}}

	testCases := []struct {
		name        string
		launcher    execshell.SelfLauncher
		expectError error
	}{
		{
			name:        "missing_executable",
			launcher:    execshell.SelfLauncher{ArgumentsBuilder: func(string) []string { return nil }},
			expectError: execshell.ErrExecutablePathNotConfigured,
		},
		{
			name:        "missing_arguments_builder",
			launcher:    execshell.SelfLauncher{ExecutablePath: testExecutablePathConstant},
			expectError: execshell.ErrArgumentsBuilderNotConfigured,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, commandError := testCase.launcher.Command(context.Background(), subtree)
			require.ErrorIs(testInstance, commandError, testCase.expectError)
		})
	}
}

func TestSelfLauncherRendersSubtree(testInstance *testing.T) {
	subtree, parseError := proctree.Parse("echo a[@,ls -l]", proctree.ParseOptions{CommandMode: proctree.CommandModeArgv})
	require.NoError(testInstance, parseError)

	var receivedExpression string
	launcher := execshell.SelfLauncher{
		ExecutablePath: testExecutablePathConstant,
		ArgumentsBuilder: func(expression string) []string {
			receivedExpression = expression
			return []string{testSubtreeCommandConstant, expression}
		},
	}

	command, commandError := launcher.Command(context.Background(), subtree)
	require.NoError(testInstance, commandError)
	require.Equal(testInstance, "echo a[@,ls -l]", receivedExpression)
	require.Equal(testInstance, testExecutablePathConstant, command.Path)
	require.Equal(testInstance, []string{testExecutablePathConstant, testSubtreeCommandConstant, "echo a[@,ls -l]"}, command.Args)
	require.Nil(testInstance, command.Env)
}

func TestSelfLauncherAppendsEnvironment(testInstance *testing.T) {
	launcher := execshell.SelfLauncher{
		ExecutablePath:       testExecutablePathConstant,
		ArgumentsBuilder:     func(expression string) []string { return []string{expression} },
		EnvironmentVariables: []string{testEnvironmentVariableConstant},
	}

	command, commandError := launcher.Command(context.Background(), &proctree.Node{Command: proctree.Command{Name: "true"}})
	require.NoError(testInstance, commandError)
	require.Len(testInstance, command.Env, len(os.Environ())+1)
	require.Equal(testInstance, testEnvironmentVariableConstant, command.Env[len(command.Env)-1])
}

func TestNewSelfLauncherUsesRunningExecutable(testInstance *testing.T) {
	launcher, launcherError := execshell.NewSelfLauncher(func(string) []string { return nil })
	require.NoError(testInstance, launcherError)

	executablePath, executableError := os.Executable()
	require.NoError(testInstance, executableError)
	require.Equal(testInstance, executablePath, launcher.ExecutablePath)
}

func TestNodeCommand(testInstance *testing.T) {
	_, emptyError := execshell.NodeCommand(context.Background(), proctree.Command{})
	require.ErrorIs(testInstance, emptyError, execshell.ErrEmptyCommand)

	command, commandError := execshell.NodeCommand(context.Background(), proctree.Command{Name: "echo", Arguments: []string{"one", "two"}})
	require.NoError(testInstance, commandError)
	require.Equal(testInstance, []string{"echo", "one", "two"}, command.Args)
}

func TestNoopNodeEventObserverAcceptsEvents(testInstance *testing.T) {
	var observer execshell.NodeEventObserver = execshell.NoopNodeEventObserver{}
	require.NotPanics(testInstance, func() {
		observer.NodeStarted(proctree.Command{Name: "true"}, 1)
		observer.NodeCompleted(proctree.Command{Name: "true"}, 0)
		observer.NodeStartFailed(proctree.Command{Name: "true"}, nil)
	})
}

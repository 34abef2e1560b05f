package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	integrationBinaryNameConstant       = "ptree"
	integrationBuildTimeout             = 2 * time.Minute
	integrationCommandTimeout           = 10 * time.Second
	integrationRunIdentifierKeyConstant = "run_id"
	integrationMessageKeyConstant       = "msg"
	integrationCaptureExpectedOutput    = "Output from left child: Output from node echo left: left\n" +
		"Output from right child: Output from node echo right: right\n" +
		"Output from node echo root: root\n"
)

func buildIntegrationBinary(testInstance *testing.T) string {
	testInstance.Helper()
	if testing.Short() {
		testInstance.Skip("integration test builds the ptree binary")
	}
	if _, lookupError := exec.LookPath("go"); lookupError != nil {
		testInstance.Skipf("go toolchain not available: %v", lookupError)
	}
	if _, lookupError := exec.LookPath("echo"); lookupError != nil {
		testInstance.Skipf("echo not available: %v", lookupError)
	}

	binaryPath := filepath.Join(testInstance.TempDir(), integrationBinaryNameConstant)
	buildContext, cancel := context.WithTimeout(context.Background(), integrationBuildTimeout)
	defer cancel()

	buildCommand := exec.CommandContext(buildContext, "go", "build", "-o", binaryPath, ".")
	buildOutput, buildError := buildCommand.CombinedOutput()
	require.NoError(testInstance, buildError, string(buildOutput))
	return binaryPath
}

func runIntegrationBinary(testInstance *testing.T, binaryPath string, arguments ...string) (string, string, int) {
	testInstance.Helper()

	executionContext, cancel := context.WithTimeout(context.Background(), integrationCommandTimeout)
	defer cancel()

	command := exec.CommandContext(executionContext, binaryPath, arguments...)
	command.Dir = testInstance.TempDir()
	var standardOutput bytes.Buffer
	var standardError bytes.Buffer
	command.Stdout = &standardOutput
	command.Stderr = &standardError

	exitCode := 0
	if runError := command.Run(); runError != nil {
		var exitError *exec.ExitError
		require.True(testInstance, errors.As(runError, &exitError), runError)
		exitCode = exitError.ExitCode()
	}
	return standardOutput.String(), standardError.String(), exitCode
}

func decodeLogEntries(testInstance *testing.T, rawOutput string) []map[string]any {
	testInstance.Helper()

	var entries []map[string]any
	scanner := bufio.NewScanner(strings.NewReader(rawOutput))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "{") {
			continue
		}
		entry := map[string]any{}
		require.NoError(testInstance, json.Unmarshal([]byte(line), &entry), line)
		entries = append(entries, entry)
	}
	require.NoError(testInstance, scanner.Err())
	return entries
}

func TestIntegrationCaptureRun(testInstance *testing.T) {
	binaryPath := buildIntegrationBinary(testInstance)

	standardOutput, standardError, exitCode := runIntegrationBinary(
		testInstance,
		binaryPath,
		"--mode", "capture",
		"--command-mode", "argv",
		"--log-level", "debug",
		"echo root[echo left,echo right]",
	)
	require.Equal(testInstance, 0, exitCode, standardError)
	require.Equal(testInstance, integrationCaptureExpectedOutput, standardOutput)

	entries := decodeLogEntries(testInstance, standardError)
	require.NotEmpty(testInstance, entries)

	runIdentifiers := map[any]struct{}{}
	messages := make([]string, 0, len(entries))
	for _, entry := range entries {
		runIdentifiers[entry[integrationRunIdentifierKeyConstant]] = struct{}{}
		message, _ := entry[integrationMessageKeyConstant].(string)
		messages = append(messages, message)
	}
	require.Len(testInstance, runIdentifiers, 1)

	joinedMessages := strings.Join(messages, "\n")
	require.Contains(testInstance, joinedMessages, "Running echo left")
	require.Contains(testInstance, joinedMessages, "Running echo right")
	require.Contains(testInstance, joinedMessages, "Completed echo root")
}

func TestIntegrationDirectRun(testInstance *testing.T) {
	binaryPath := buildIntegrationBinary(testInstance)

	standardOutput, standardError, exitCode := runIntegrationBinary(testInstance, binaryPath, "--command-mode", "argv", "echo a[echo b,echo c]")
	require.Equal(testInstance, 0, exitCode, standardError)
	require.Equal(testInstance, "a\nb\nc\n", standardOutput)
	require.Empty(testInstance, standardError)
}

func TestIntegrationFailures(testInstance *testing.T) {
	binaryPath := buildIntegrationBinary(testInstance)

	testCases := []struct {
		name          string
		arguments     []string
		expectedError string
	}{
		{name: "malformed_expression", arguments: []string{"ls[pwd"}, expectedError: "unable to parse expression"},
		{name: "missing_expression", arguments: nil, expectedError: "usage: ptree"},
		{name: "invalid_configuration", arguments: []string{"--max-arguments", "0", "ls"}, expectedError: "max_arguments"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			standardOutput, standardError, exitCode := runIntegrationBinary(testInstance, binaryPath, testCase.arguments...)
			require.Equal(testInstance, 1, exitCode)
			require.Empty(testInstance, standardOutput)
			require.Contains(testInstance, standardError, testCase.expectedError)
		})
	}
}

func TestIntegrationMissingExecutableIsConfined(testInstance *testing.T) {
	binaryPath := buildIntegrationBinary(testInstance)

	standardOutput, standardError, exitCode := runIntegrationBinary(
		testInstance,
		binaryPath,
		"--mode", "capture",
		"--command-mode", "argv",
		"echo root[ptree-missing-executable,echo right]",
	)
	require.Equal(testInstance, 0, exitCode, standardError)
	require.True(testInstance, strings.HasPrefix(standardOutput, "Output from left child: Output from node ptree-missing-executable: "))
	require.Contains(testInstance, standardOutput, "Output from right child: Output from node echo right: right\n")
	require.True(testInstance, strings.HasSuffix(standardOutput, "Output from node echo root: root\n"))
}

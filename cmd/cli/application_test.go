package cli_test

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/ptree/cmd/cli"
	"github.com/temirov/ptree/internal/proctree"
)

const (
	testApplicationNameConstant       = "ptree"
	testConfigurationFileNameConstant = "config.yaml"
	testArgvConfigurationConstant     = "execution:\n  command_mode: argv\n"
	testCommandModeEnvironmentKey     = "PTREE_EXECUTION_COMMAND_MODE"
	testGoldenFixtureDirectory        = "golden"
)

// runApplication executes a fresh application with arguments and returns what
// it wrote to stdout, including output of the node processes it started.
func runApplication(testInstance *testing.T, arguments ...string) (string, error) {
	testInstance.Helper()

	reader, writer, pipeError := os.Pipe()
	require.NoError(testInstance, pipeError)

	originalStdout := os.Stdout
	originalArguments := os.Args
	os.Stdout = writer
	os.Args = append([]string{testApplicationNameConstant}, arguments...)
	defer func() {
		os.Stdout = originalStdout
		os.Args = originalArguments
	}()

	executionError := cli.NewApplication().Execute()

	require.NoError(testInstance, writer.Close())
	capturedOutput, readError := io.ReadAll(reader)
	require.NoError(testInstance, readError)
	require.NoError(testInstance, reader.Close())

	return string(capturedOutput), executionError
}

func requireProcessTools(testInstance *testing.T) {
	testInstance.Helper()
	for _, tool := range []string{"echo", "true"} {
		if _, lookupError := exec.LookPath(tool); lookupError != nil {
			testInstance.Skipf("%s not available: %v", tool, lookupError)
		}
	}
}

func newGolden(testInstance *testing.T) *goldie.Goldie {
	return goldie.New(
		testInstance,
		goldie.WithFixtureDir(filepath.Join("testdata", testGoldenFixtureDirectory)),
		goldie.WithDiffEngine(goldie.ColoredDiff),
	)
}

func TestApplicationRunsDirectTree(testInstance *testing.T) {
	requireProcessTools(testInstance)

	output, executionError := runApplication(testInstance, "--command-mode", "argv", "echo a[echo b[echo c,@],echo d]")
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, "a\nb\nc\nd\n", output)
}

func TestApplicationRunsCaptureTree(testInstance *testing.T) {
	requireProcessTools(testInstance)
	testInstance.Setenv(helperProcessEnvironmentKeyConstant, "1")

	output, executionError := runApplication(testInstance, "--mode", "capture", "--command-mode", "argv", "echo root[echo left,echo right]")
	require.NoError(testInstance, executionError)
	newGolden(testInstance).Assert(testInstance, "capture_run", []byte(output))
}

func TestApplicationReportsWorkingDirectory(testInstance *testing.T) {
	requireProcessTools(testInstance)

	workingDirectory := testInstance.TempDir()
	originalDirectory, originalDirectoryError := os.Getwd()
	require.NoError(testInstance, originalDirectoryError)
	require.NoError(testInstance, os.Chdir(workingDirectory))
	testInstance.Setenv("PWD", workingDirectory)
	testInstance.Cleanup(func() {
		require.NoError(testInstance, os.Chdir(originalDirectory))
	})
	resolvedDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)

	output, executionError := runApplication(testInstance, "--show-working-directory", "yes", "true")
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, "Current directory: "+resolvedDirectory+"\n", output)
}

func TestApplicationConfigurationSources(testInstance *testing.T) {
	requireProcessTools(testInstance)

	testCases := []struct {
		name      string
		configure func(testInstance *testing.T) []string
	}{
		{
			name: "configuration_file",
			configure: func(testInstance *testing.T) []string {
				configurationPath := filepath.Join(testInstance.TempDir(), testConfigurationFileNameConstant)
				require.NoError(testInstance, os.WriteFile(configurationPath, []byte(testArgvConfigurationConstant), 0o600))
				return []string{"--config", configurationPath}
			},
		},
		{
			name: "environment",
			configure: func(testInstance *testing.T) []string {
				testInstance.Setenv(testCommandModeEnvironmentKey, "argv")
				return nil
			},
		},
		{
			name: "flag",
			configure: func(testInstance *testing.T) []string {
				return []string{"--command-mode", "ARGV"}
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			arguments := append(testCase.configure(testInstance), "echo configured")
			output, executionError := runApplication(testInstance, arguments...)
			require.NoError(testInstance, executionError)
			require.Equal(testInstance, "configured\n", output)
		})
	}
}

func TestApplicationRejectsInvalidInvocations(testInstance *testing.T) {
	testCases := []struct {
		name          string
		arguments     []string
		expectedError error
		assertion     func(testInstance *testing.T, executionError error)
	}{
		{
			name:      "missing_expression",
			arguments: nil,
			assertion: func(testInstance *testing.T, executionError error) {
				var usageError *cli.UsageError
				require.ErrorAs(testInstance, executionError, &usageError)
				require.Equal(testInstance, 0, usageError.Received)
			},
		},
		{
			name:      "extra_expression",
			arguments: []string{"ls", "pwd"},
			assertion: func(testInstance *testing.T, executionError error) {
				var usageError *cli.UsageError
				require.ErrorAs(testInstance, executionError, &usageError)
				require.Equal(testInstance, 2, usageError.Received)
			},
		},
		{
			name:          "malformed_expression",
			arguments:     []string{"ls[pwd"},
			expectedError: proctree.ErrMalformedGroup,
		},
		{
			name:          "trailing_input",
			arguments:     []string{"ls]"},
			expectedError: proctree.ErrTrailingInput,
		},
		{
			name:      "invalid_mode",
			arguments: []string{"--mode", "sideways", "ls"},
			assertion: func(testInstance *testing.T, executionError error) {
				require.ErrorContains(testInstance, executionError, "--mode")
			},
		},
		{
			name:      "invalid_buffer_size",
			arguments: []string{"--buffer-size", "0", "ls"},
			assertion: func(testInstance *testing.T, executionError error) {
				require.ErrorContains(testInstance, executionError, "buffer_size")
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			output, executionError := runApplication(testInstance, testCase.arguments...)
			require.Error(testInstance, executionError)
			require.Empty(testInstance, output)
			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, executionError, testCase.expectedError)
			}
			if testCase.assertion != nil {
				testCase.assertion(testInstance, executionError)
			}
		})
	}
}

func TestInspectCommand(testInstance *testing.T) {
	outlineOutput, outlineError := runApplication(testInstance, "inspect", "ls -l[pwd,@]")
	require.NoError(testInstance, outlineError)
	newGolden(testInstance).Assert(testInstance, "inspect_outline", []byte(outlineOutput))

	yamlOutput, yamlError := runApplication(testInstance, "--command-mode", "argv", "inspect", "--format", "yaml", "ls -l[pwd,@]")
	require.NoError(testInstance, yamlError)

	var snapshot proctree.Snapshot
	require.NoError(testInstance, yaml.Unmarshal([]byte(yamlOutput), &snapshot))
	require.Equal(testInstance, 2, snapshot.NodeCount)
	require.Equal(testInstance, 2, snapshot.Depth)
	require.Equal(testInstance, "ls", snapshot.Root.Command)
	require.Equal(testInstance, []string{"-l"}, snapshot.Root.Arguments)

	_, formatError := runApplication(testInstance, "inspect", "--format", "xml", "ls")
	require.ErrorContains(testInstance, formatError, "xml")
}

func TestEmbeddedDefaultConfigurationIsValid(testInstance *testing.T) {
	configurationData, configurationType := cli.EmbeddedDefaultConfiguration()
	require.Equal(testInstance, "yaml", configurationType)
	require.Contains(testInstance, string(configurationData), "mode: direct")
	require.Contains(testInstance, string(configurationData), "buffer_size: 1024")
}

package cli

import (
	_ "embed"

	"github.com/temirov/ptree/internal/proctree"
	"github.com/temirov/ptree/internal/treeexec"
	"github.com/temirov/ptree/internal/utils"
)

const (
	configurationTypeConstant               = "yaml"
	commonLogLevelConfigKeyConstant         = "common.log_level"
	commonLogFormatConfigKeyConstant        = "common.log_format"
	executionModeConfigKeyConstant          = "execution.mode"
	executionCommandModeConfigKeyConstant   = "execution.command_mode"
	executionGrammarConfigKeyConstant       = "execution.grammar"
	executionMaxArgumentsConfigKeyConstant  = "execution.max_arguments"
	executionBufferSizeConfigKeyConstant    = "execution.buffer_size"
	executionShowDirectoryConfigKeyConstant = "execution.show_working_directory"
	executionColorConfigKeyConstant         = "execution.color"
)

//go:embed default_config.yaml
var embeddedDefaultConfigurationContent []byte

// EmbeddedDefaultConfiguration returns a copy of default_config.yaml with its
// format. The loader merges it below any user configuration file.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return append([]byte(nil), embeddedDefaultConfigurationContent...), configurationTypeConstant
}

// defaultConfigurationValues mirrors default_config.yaml key for key. Viper
// only binds environment variables for keys it knows, so every key is
// registered here even when the embedded document already sets it.
func defaultConfigurationValues() map[string]any {
	return map[string]any{
		commonLogLevelConfigKeyConstant:         string(utils.LogLevelWarn),
		commonLogFormatConfigKeyConstant:        string(utils.LogFormatStructured),
		executionModeConfigKeyConstant:          string(treeexec.ModeDirect),
		executionCommandModeConfigKeyConstant:   string(proctree.CommandModeName),
		executionGrammarConfigKeyConstant:       string(proctree.GrammarStrict),
		executionMaxArgumentsConfigKeyConstant:  defaultExecutionMaxArgumentsValue,
		executionBufferSizeConfigKeyConstant:    defaultExecutionBufferSizeValue,
		executionShowDirectoryConfigKeyConstant: defaultExecutionShowWorkingDirectoryValue,
		executionColorConfigKeyConstant:         string(treeexec.ColorNever),
	}
}

package cli

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	mapstructure "github.com/go-viper/mapstructure/v2"

	"github.com/temirov/ptree/internal/proctree"
	"github.com/temirov/ptree/internal/treeexec"
	"github.com/temirov/ptree/internal/utils"
)

const (
	mapstructureTagNameConstant             = "mapstructure"
	tagOptionSeparatorConstant              = ","
	ignoredTagNameConstant                  = "-"
	configurationValidationTemplateConstant = "invalid configuration: %w"
	unsupportedLogLevelTemplateConstant     = "unsupported log level: %q"
	unsupportedLogFormatTemplateConstant    = "unsupported log format: %q"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common    ApplicationCommonConfiguration `mapstructure:"common"`
	Execution ExecutionConfiguration         `mapstructure:"execution"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  utils.LogLevel  `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat utils.LogFormat `mapstructure:"log_format" validate:"oneof=structured console"`
}

// ExecutionConfiguration controls how expressions are parsed and executed.
type ExecutionConfiguration struct {
	Mode                 treeexec.Mode          `mapstructure:"mode" validate:"oneof=direct capture"`
	CommandMode          proctree.CommandMode   `mapstructure:"command_mode" validate:"oneof=name argv"`
	Grammar              proctree.GrammarPolicy `mapstructure:"grammar" validate:"oneof=strict lenient"`
	MaxArguments         int                    `mapstructure:"max_arguments" validate:"min=1"`
	BufferSize           int                    `mapstructure:"buffer_size" validate:"min=1"`
	ShowWorkingDirectory bool                   `mapstructure:"show_working_directory"`
	Color                treeexec.ColorPolicy   `mapstructure:"color" validate:"oneof=never always auto"`
}

// ParseOptions converts the configuration into parser options.
func (configuration ExecutionConfiguration) ParseOptions() proctree.ParseOptions {
	return proctree.ParseOptions{
		CommandMode:  configuration.CommandMode,
		Grammar:      configuration.Grammar,
		MaxArguments: configuration.MaxArguments,
	}
}

// Validate reports the first semantic problem of the configuration.
func (configuration ApplicationConfiguration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get(mapstructureTagNameConstant), tagOptionSeparatorConstant, 2)[0]
		if name == ignoredTagNameConstant {
			return ""
		}
		return name
	})

	if validationError := validate.Struct(configuration); validationError != nil {
		return fmt.Errorf(configurationValidationTemplateConstant, validationError)
	}
	return nil
}

func configurationDecodeHooks() []mapstructure.DecodeHookFunc {
	return []mapstructure.DecodeHookFunc{
		utils.EnumerationDecodeHook(parseLogLevel),
		utils.EnumerationDecodeHook(parseLogFormat),
		utils.EnumerationDecodeHook(treeexec.ParseMode),
		utils.EnumerationDecodeHook(proctree.ParseCommandMode),
		utils.EnumerationDecodeHook(proctree.ParseGrammarPolicy),
		utils.EnumerationDecodeHook(treeexec.ParseColorPolicy),
	}
}

func parseLogLevel(value string) (utils.LogLevel, error) {
	switch normalized := utils.LogLevel(strings.ToLower(strings.TrimSpace(value))); normalized {
	case utils.LogLevelDebug, utils.LogLevelInfo, utils.LogLevelWarn, utils.LogLevelError:
		return normalized, nil
	default:
		return "", fmt.Errorf(unsupportedLogLevelTemplateConstant, value)
	}
}

func parseLogFormat(value string) (utils.LogFormat, error) {
	switch normalized := utils.LogFormat(strings.ToLower(strings.TrimSpace(value))); normalized {
	case utils.LogFormatStructured, utils.LogFormatConsole:
		return normalized, nil
	default:
		return "", fmt.Errorf(unsupportedLogFormatTemplateConstant, value)
	}
}

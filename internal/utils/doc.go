// Package utils exposes reusable helpers consumed by the CLI.
//
// It houses the ConfigurationLoader that layers embedded defaults, files and
// environment variables through Viper, the LoggerFactory building zap loggers
// for stderr or an inherited descriptor, a context accessor for run metadata
// and a writer that flushes after every chunk.
package utils

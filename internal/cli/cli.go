package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/metabake/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("metabake", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
metabake - a meta build file generator.

Usage:
  metabake [options] [INPUT_PATH]

Arguments:
  INPUT_PATH
    Path to the top .mbk file, or a directory containing one.

Options:
`)
		flagSet.PrintDefaults()
	}

	inputFlag := flagSet.String("input", "", "Path to the top input file or directory.")
	iFlag := flagSet.String("i", "", "Path to the top input file or directory (shorthand).")
	outputFlag := flagSet.String("output", ".", "Directory to write generated files into.")
	toolsetsFlag := flagSet.String("toolsets", "", "Comma-separated toolsets to generate for. Default: the project's toolsets list.")
	dumpFlag := flagSet.Bool("dump", false, "Dump the finalized model as YAML instead of generating.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	logFileFlag := flagSet.String("log-file", "", "Write logs to this file, with rotation, instead of the console.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *inputFlag != "" {
		path = *inputFlag
	} else if *iFlag != "" {
		path = *iFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	var toolsets []string
	if *toolsetsFlag != "" {
		for _, name := range strings.Split(*toolsetsFlag, ",") {
			if name = strings.TrimSpace(name); name != "" {
				toolsets = append(toolsets, name)
			}
		}
	}

	config, err := app.NewConfig(app.Config{
		InputPath: path,
		OutputDir: *outputFlag,
		Toolsets:  toolsets,
		Dump:      *dumpFlag,
		LogFormat: logFormat,
		LogLevel:  logLevel,
		LogFile:   *logFileFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return config, false, nil
}

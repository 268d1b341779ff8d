package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/packetlens/dfilter/bytecode"
	"github.com/packetlens/dfilter/dis"
	"github.com/packetlens/dfilter/errors"
)

func fatal(msg interface{}) {
	status := 1
	var s string
	switch msg := msg.(type) {
	case string:
		s = msg
	case error:
		s = formatError(msg)
		status = exitStatus(msg)
	default:
		s = fmt.Sprintf("%v", msg)
	}
	fmt.Fprintf(os.Stderr, "%s\n", red(s))
	os.Exit(status)
}

// formatError heads coded errors with their code, category and description,
// e.g. "E2003 (compile): wrong argument count".
func formatError(err error) string {
	code, ok := errors.CodeOf(err)
	if !ok {
		return err.Error()
	}
	return fmt.Sprintf("%s (%s): %s\n%s", code, code.Category(), code.Description(), err.Error())
}

// exitStatus is 2 for trees the compiler refused and 1 for everything else.
func exitStatus(err error) int {
	if errors.IsFatal(err) {
		return 2
	}
	return 1
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

var outputFormatsCompletion = []string{"json", "text"}

func getOutput(prog *bytecode.Program, format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "text":
		var buf bytes.Buffer
		if err := dis.Print(&buf, prog); err != nil {
			return "", err
		}
		return buf.String(), nil
	case "json":
		output, err := getOutputJSON(prog)
		if err != nil {
			return "", err
		}
		return string(output) + "\n", nil
	default:
		return "", fmt.Errorf("unknown output format: %s", format)
	}
}

func getOutputJSON(prog *bytecode.Program) ([]byte, error) {
	if color.NoColor {
		return json.MarshalIndent(prog, "", "  ")
	}
	return prettyjson.Marshal(prog)
}

func newLogger(w io.Writer) zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    color.NoColor,
		TimeFormat: time.TimeOnly,
	}
	return zerolog.New(out).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}

// Reads global flags from Viper and adjusts the environment accordingly.
func processGlobalFlags() {
	if viper.GetBool("no-color") || !isTerminal(os.Stdout) {
		color.NoColor = true
	}
}

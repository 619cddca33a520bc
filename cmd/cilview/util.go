package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ciltools/ciltools/metadata"
	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

var red = color.New(color.FgRed).SprintFunc()

func fatal(msg interface{}) {
	var s string
	switch msg := msg.(type) {
	case string:
		s = msg
	case error:
		s = msg.Error()
	default:
		s = fmt.Sprintf("%v", msg)
	}
	fmt.Fprintf(os.Stderr, "%s\n", red(s))
	os.Exit(1)
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func useColor(v *viper.Viper, w io.Writer) bool {
	return !v.GetBool("no-color") && isTerminal(w)
}

func newLogger(v *viper.Viper, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(v.GetString("log-level")))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level: %w", err)
	}
	out := zerolog.ConsoleWriter{Out: w, NoColor: !useColor(v, w)}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

var outputFormatsCompletion = []string{"json", "text"}

func getOutputJSON(v *viper.Viper, w io.Writer, value any) ([]byte, error) {
	if !useColor(v, w) {
		return json.MarshalIndent(value, "", "  ")
	}
	return prettyjson.Marshal(value)
}

// qualifiedName returns Type::Name for a method with a declaring type.
func qualifiedName(m *metadata.Method) string {
	if m.DeclaringType == nil {
		return m.Name
	}
	return m.DeclaringType.FullName() + "::" + m.Name
}

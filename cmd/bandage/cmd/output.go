package cmd

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v2"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// Formatter renders the result of a command
type Formatter interface {
	Format(io.Writer, interface{}) error
}

// FormatterFunc is a function that renders the result of a command
type FormatterFunc func(io.Writer, interface{}) error

// Format implements Formatter
func (f FormatterFunc) Format(w io.Writer, data interface{}) error {
	return f(w, data)
}

var defaultFormatters = map[string]Formatter{
	outputJSON: FormatterFunc(func(w io.Writer, data interface{}) error {
		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}),
	outputYAML: FormatterFunc(func(w io.Writer, data interface{}) error {
		b, err := yaml.Marshal(data)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	}),
}

// render renders data with the formatter selected by the --output flag
func render(w io.Writer, text Formatter, data interface{}) error {
	format := bandageFlags.root.output
	if format == "" || format == outputText {
		return text.Format(w, data)
	}
	formatter, ok := defaultFormatters[format]
	if !ok {
		return fmt.Errorf("unsupported output format %q", format)
	}
	return formatter.Format(w, data)
}

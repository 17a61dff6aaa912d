package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
)

// Out and ErrOut are where command output and errors are written.
var (
	Out    io.Writer = os.Stdout
	ErrOut io.Writer = os.Stderr
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
	headerColor  = color.New(color.FgWhite, color.Bold)
)

func Success(format string, a ...interface{}) {
	successColor.Fprintf(Out, "✓ "+format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	errorColor.Fprintf(ErrOut, "✗ "+format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	infoColor.Fprintf(Out, format+"\n", a...)
}

func Warn(format string, a ...interface{}) {
	warnColor.Fprintf(ErrOut, "⚠ "+format+"\n", a...)
}

// Plain writes an uncoloured line, for output meant to be piped.
func Plain(format string, a ...interface{}) {
	fmt.Fprintf(Out, format+"\n", a...)
}

func JSON(v interface{}) error {
	enc := json.NewEncoder(Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type Table struct {
	headers []string
	rows    [][]string
}

func NewTable(headers []string) *Table {
	return &Table{
		headers: headers,
		rows:    [][]string{},
	}
}

// AddRow appends a row. Rows shorter than the header are padded.
func (t *Table) AddRow(row []string) {
	if len(row) < len(t.headers) {
		padded := make([]string, len(t.headers))
		copy(padded, row)
		row = padded
	}
	t.rows = append(t.rows, row[:len(t.headers)])
}

func (t *Table) Render() {
	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = len(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	for i, header := range t.headers {
		headerColor.Fprintf(Out, "%-*s  ", widths[i], header)
	}
	fmt.Fprintln(Out)

	for i := range t.headers {
		fmt.Fprint(Out, strings.Repeat("-", widths[i])+"  ")
	}
	fmt.Fprintln(Out)

	for _, row := range t.rows {
		for i, cell := range row {
			fmt.Fprintf(Out, "%-*s  ", widths[i], cell)
		}
		fmt.Fprintln(Out)
	}
}

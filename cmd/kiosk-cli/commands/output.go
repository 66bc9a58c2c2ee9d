package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func printJson(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// optional renders an absent value as "-".
func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return number(*v)
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

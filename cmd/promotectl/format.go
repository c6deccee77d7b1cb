package main

import (
	"io"
	"strings"
	"text/tabwriter"
)

func newTabwriter(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
}

func makeExample(examples ...string) string {
	var buf strings.Builder
	for i, example := range examples {
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString("  " + example)
	}
	return buf.String()
}

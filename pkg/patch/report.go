package patch

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/fluxcd/promote/pkg/changeset"
	"github.com/fluxcd/promote/pkg/errors"
)

// Diagnostic is a record that was skipped, and why.
type Diagnostic struct {
	Record changeset.Record
	Err    error
}

// Report says what happened to each record given to Apply.
type Report struct {
	Environment string
	Applied     int
	Diagnostics []Diagnostic
}

func (r *Report) add(rec changeset.Record, err error) {
	if err == nil {
		r.Applied++
		return
	}
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Record: rec, Err: err})
}

// Skipped is the number of records that were not applied.
func (r *Report) Skipped() int {
	return len(r.Diagnostics)
}

func (r *Report) count(typ errors.Type) int {
	var n int
	for _, d := range r.Diagnostics {
		if errors.TypeOf(d.Err) == typ {
			n++
		}
	}
	return n
}

func (r *Report) Duplicates() int {
	return r.count(errors.Duplicate)
}

func (r *Report) NotFound() int {
	return r.count(errors.NotFound)
}

func (r *Report) Invalid() int {
	return r.count(errors.Validation)
}

// Clean is true when every record was applied.
func (r *Report) Clean() bool {
	return len(r.Diagnostics) == 0
}

const tableHeading = "ROW\tSERVICE\tCHANGE\tKEY\tSTATUS\tREASON"

var (
	duplicateColor = color.New(color.FgYellow)
	notFoundColor  = color.New(color.FgRed)
	invalidColor   = color.New(color.FgMagenta)
	appliedColor   = color.New(color.FgGreen)
)

// Print writes a table of the skipped records, followed by a one-line
// summary, for someone to reconcile by hand.
func (r *Report) Print(out io.Writer) {
	if len(r.Diagnostics) > 0 {
		tw := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
		fmt.Fprintln(tw, tableHeading)
		for _, d := range r.Diagnostics {
			row := "-"
			if d.Record.Row > 0 {
				row = fmt.Sprint(d.Record.Row)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				row, d.Record.Entity, d.Record.Action, d.Record.Path, status(d.Err), d.Err)
		}
		tw.Flush()
	}
	env := ""
	if r.Environment != "" {
		env = r.Environment + ": "
	}
	fmt.Fprintf(out, "%s%s %d, skipped %d (%d duplicate, %d not found, %d invalid)\n",
		env, appliedColor.Sprint("applied"), r.Applied, r.Skipped(), r.Duplicates(), r.NotFound(), r.Invalid())
}

func status(err error) string {
	switch errors.TypeOf(err) {
	case errors.Duplicate:
		return duplicateColor.Sprint("duplicate")
	case errors.NotFound:
		return notFoundColor.Sprint("not found")
	case errors.Validation:
		return invalidColor.Sprint("invalid")
	}
	return notFoundColor.Sprint("failed")
}

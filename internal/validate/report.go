package validate

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const rule = "======================================================================"

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// Report writes the per-entity column report followed by the summary and
// returns whether every entity passed.
func Report(w io.Writer, results []Result) bool {
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, headingStyle.Render("DATABASE MODEL VALIDATION"))
	fmt.Fprintln(w, rule)

	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		writeResult(w, r)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, headingStyle.Render("VALIDATION SUMMARY"))
	fmt.Fprintln(w, rule)

	ok := AllPassed(results)
	if ok {
		fmt.Fprintln(w, passStyle.Render("ALL VALIDATIONS PASSED"))
	} else {
		fmt.Fprintln(w, failStyle.Render("SOME VALIDATIONS FAILED"))
		for _, r := range results {
			if !r.Passed() {
				fmt.Fprintf(w, "  - %s\n", r.Entity)
			}
		}
	}
	return ok
}

func writeResult(w io.Writer, r Result) {
	fmt.Fprintf(w, "Validating %s...\n", r.Entity)
	if r.Err != nil {
		fmt.Fprintln(w, failStyle.Render("FAILED: "+r.Err.Error()))
		return
	}
	if len(r.Missing) > 0 {
		fmt.Fprintln(w, failStyle.Render("FAILED: Missing columns: "+strings.Join(r.Missing, ", ")))
	} else {
		fmt.Fprintln(w, passStyle.Render("SUCCESS: All required columns are present"))
	}

	if len(r.Targeted) > 0 {
		present := names(r.Columns)
		var absent []string
		for _, c := range r.Targeted {
			if !present[c] {
				absent = append(absent, c)
			}
		}
		if len(absent) == 0 {
			fmt.Fprintf(w, "SUCCESS: %s present\n", quoteJoin(r.Targeted))
		} else {
			fmt.Fprintln(w, failStyle.Render(fmt.Sprintf("FAILED: %s missing", quoteJoin(absent))))
		}
	}

	fmt.Fprintf(w, "\nAll columns in %s:\n", r.Entity)
	for _, c := range r.Columns {
		fmt.Fprintf(w, "  - %s: %s\n", c.Name, c.Type)
	}
}

func quoteJoin(cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = "'" + c + "'"
	}
	return strings.Join(q, ", ")
}

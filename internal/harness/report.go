package harness

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"
)

// FormatReport renders the cross-backend comparison as a plain-text table,
// followed by per-backend failure detail.
func FormatReport(results []Result) string {
	var b strings.Builder

	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tSCENARIOS\tINSERT\tLOOKUP\tSEARCH")
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\t-\n", res.Backend)
			continue
		}

		scenarios := fmt.Sprintf("%d/%d pass", res.Passed, res.Passed+res.Failed)
		insert, lookup, search := "-", "-", "-"
		if res.Bench != nil {
			insert = fmt.Sprintf("%v (%.0f/s)", res.Bench.InsertTime.Round(time.Millisecond), res.Bench.InsertPerSec)
			lookup = fmt.Sprintf("%v (%.0f/s)", res.Bench.LookupTime.Round(time.Millisecond), res.Bench.LookupPerSec)
			search = fmt.Sprintf("%v", res.Bench.SearchTime.Round(time.Millisecond))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", res.Backend, scenarios, insert, lookup, search)
	}
	_ = w.Flush()

	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(&b, "\n%s: fatal: %v\n", res.Backend, res.Err)
		}
		for _, f := range res.Failures {
			fmt.Fprintf(&b, "\n%s: %s\n", res.Backend, f)
		}
	}
	return b.String()
}

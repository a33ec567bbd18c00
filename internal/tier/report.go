package tier

import (
	"fmt"
	"io"
	"strings"
)

// WriteReport prints the operator-facing tier report: active features,
// unmet requirements, and the latency envelope to expect.
func WriteReport(w io.Writer, res *Result) {
	fmt.Fprintf(w, "mnemo capability tier: %s (tier %d)\n", res.Name, res.Tier)
	fmt.Fprintf(w, "  detected: %s\n", res.DetectedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "  accuracy: %s\n", res.Accuracy)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Active features:")
	for _, f := range res.Features {
		fmt.Fprintf(w, "  + %s\n", f)
	}

	if len(res.Unmet) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Unmet requirements:")
		for _, r := range res.Unmet {
			fmt.Fprintf(w, "  - %s\n", r)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Expected latency:")
	switch res.Tier {
	case TierFull:
		fmt.Fprintln(w, "  first hook of a session: up to a few seconds (store + model warmup)")
		fmt.Fprintln(w, "  later hooks: tens of milliseconds (warm state reused)")
	default:
		fmt.Fprintln(w, "  all hooks: tens of milliseconds (no model to load)")
	}

	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintln(w, "Re-run `mnemo install` after changing the environment to re-detect.")
}

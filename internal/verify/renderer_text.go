package verify

import (
	"fmt"
	"io"
)

// RenderTextOptions controls the text rendering of a report.
type RenderTextOptions struct {
	// Mode selects how much to print: "full" lists every finding,
	// "problems" lists only findings that need attention, "summary"
	// prints the per-severity tally and the verdict.
	Mode string
}

// RenderText writes a human-readable rendition of the report.
func RenderText(w io.Writer, r *Report, opts RenderTextOptions) error {
	mode := opts.Mode
	if mode == "" {
		mode = "problems"
	}

	counts := map[Severity]int{}
	for _, f := range r.Findings {
		counts[f.Severity]++
	}

	switch mode {
	case "full", "problems":
		for _, f := range r.Findings {
			if mode == "problems" && f.Severity < SeverityVerify {
				continue
			}
			if err := renderFinding(w, f); err != nil {
				return err
			}
		}
	case "summary":
	default:
		return fmt.Errorf("invalid mode %q (expected full|problems|summary)", mode)
	}

	fmt.Fprintf(w, "%d findings: %d info, %d verify, %d bad\n",
		len(r.Findings), counts[SeverityInfo], counts[SeverityVerify], counts[SeverityBad])

	if r.Success {
		fmt.Fprintln(w, "result: PASS")
	} else {
		fmt.Fprintln(w, "result: FAIL")
	}
	return nil
}

func renderFinding(w io.Writer, f Finding) error {
	if f.Message == "" {
		_, err := fmt.Fprintf(w, "%s\n", f.Severity)
		return err
	}

	_, err := fmt.Fprintf(w, "%-6s %s\n", f.Severity, f.Message)
	if err != nil {
		return err
	}
	if f.Remedy != RemedyNone {
		if _, err := fmt.Fprintf(w, "       remedy: %s, waivable by: %s\n", f.Remedy, f.Waiver); err != nil {
			return err
		}
	}
	return nil
}

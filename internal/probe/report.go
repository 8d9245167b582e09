package probe

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

const sampleWidth = 100

// WriteHubReport prints a per-model table, a summary and next steps.
func WriteHubReport(w io.Writer, r HubReport) error {
	if r.AuthErr != nil {
		_, err := fmt.Fprintf(w, "Hub authentication failed: %v\n\nCheck HUGGING_FACE_TOKEN (or HF_TOKEN) and re-run.\n", r.AuthErr)
		return err
	}
	fmt.Fprintf(w, "Authenticated as: %s\n\n", r.User)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tOUTCOME\tSTATUS\tGATED\tELAPSED")
	for _, m := range r.Models {
		status := "-"
		if m.Status != 0 {
			status = fmt.Sprint(m.Status)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", m.Model, m.Outcome, status, m.Gated, m.Elapsed.Round(time.Millisecond))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	ok := r.Accessible()
	fmt.Fprintf(w, "\nModels accessible: %d\nModels blocked: %d\n", len(ok), len(r.Models)-len(ok))
	for _, m := range r.Models {
		if m.Sample != "" {
			fmt.Fprintf(w, "  %s: %s\n", m.Model, truncate(m.Sample, sampleWidth))
		}
	}

	fmt.Fprintln(w, "\nNext steps:")
	if len(ok) == 0 {
		fmt.Fprintln(w, "1. Accept the model licenses at:")
		for _, m := range r.Models {
			if m.Outcome == OutcomeLicenseRequired || m.Outcome == OutcomeForbidden {
				fmt.Fprintf(w, "   - https://huggingface.co/%s\n", m.Model)
			}
		}
		_, err := fmt.Fprintln(w, "2. Re-run this probe")
		return err
	}
	for _, id := range ok {
		kind := "Gemma, general"
		if strings.Contains(id, "medgemma") {
			kind = "MedGemma, specialized"
		}
		fmt.Fprintf(w, "  recommended: %s (%s)\n", id, kind)
	}
	_, err := fmt.Fprintf(w, "1. Set MEDGEMMA_MODEL_ID=%s and MEDGEMMA_BACKEND=hf-inference in .env.local\n2. Start medgemmad and run: medgemmactl analyze \"%s\"\n", ok[0], ProbeQuestion)
	return err
}

// WriteLocalReport prints every answer and a one-line summary.
func WriteLocalReport(w io.Writer, r LocalReport) error {
	for i, a := range r.Answers {
		fmt.Fprintf(w, "Question %d: %s\n", i+1, a.Question)
		switch {
		case a.Response.Success && a.Response.Result != nil:
			fmt.Fprintf(w, "  Response: %s\n", *a.Response.Result)
		default:
			fmt.Fprintf(w, "  Error: %s\n", a.Response.Error)
		}
		fmt.Fprintf(w, "  Processing time: %.2fs\n\n", a.Response.ProcessingTime)
	}
	_, err := fmt.Fprintf(w, "%d/%d answered in %s\n", len(r.Answers)-r.Failures(), len(r.Answers), r.Elapsed.Round(time.Millisecond))
	return err
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

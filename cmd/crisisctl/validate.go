package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/couchcryptid/crisis-triage-service/internal/domain"
	"github.com/couchcryptid/crisis-triage-service/internal/pipeline"
	"github.com/spf13/cobra"
)

var errValidationFailed = errors.New("validation failed")

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every feed record normalizes and every crisis can be ranked",
	Long: `Builds one snapshot from the data directory and reports, per feed, any
record that could not be read or normalized. It then checks snapshot-wide
properties: crises are ordered by urgency, IDs are unique and every crisis
gets a ranked recommendation list. Exits non-zero when any phase fails.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func runValidate(cmd *cobra.Command, _ []string) error {
	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}

	report, err := p.Report(cmd.Context())
	if err != nil {
		return err
	}

	var phases []*phase
	for _, feed := range report.Feeds {
		phases = append(phases, validateFeed(feed))
	}
	phases = append(phases,
		validateOrdering(report.Crises),
		validateUniqueIDs(report.Crises),
		validateRecommendations(cmd, p, report),
	)

	out := cmd.OutOrStdout()
	if asJSON {
		if err := printJSON(out, report.Feeds); err != nil {
			return err
		}
	} else {
		printPhases(out, phases, report)
	}

	for _, ph := range phases {
		if !ph.passed() {
			return errValidationFailed
		}
	}
	return nil
}

func validateFeed(feed pipeline.FeedReport) *phase {
	ph := &phase{name: "Feed " + feed.Feed}
	if feed.Error != "" {
		ph.errorf("unreadable: %s", feed.Error)
	}
	for _, s := range feed.Skipped {
		if s.ID != "" {
			ph.errorf("record %d (id %q): %s", s.Index, s.ID, s.Reason)
		} else {
			ph.errorf("record %d: %s", s.Index, s.Reason)
		}
	}
	return ph
}

func validateOrdering(crises []domain.NormalizedCrisis) *phase {
	ph := &phase{name: "Urgency ordering"}
	for i := 1; i < len(crises); i++ {
		if crises[i].UrgencyScore > crises[i-1].UrgencyScore {
			ph.errorf("%s (urgency %d) listed after %s (urgency %d)",
				crises[i].ID, crises[i].UrgencyScore, crises[i-1].ID, crises[i-1].UrgencyScore)
		}
	}
	return ph
}

func validateUniqueIDs(crises []domain.NormalizedCrisis) *phase {
	ph := &phase{name: "Unique crisis IDs"}
	seen := make(map[string]int, len(crises))
	for i, c := range crises {
		if first, ok := seen[c.ID]; ok {
			ph.errorf("id %q at positions %d and %d", c.ID, first, i)
			continue
		}
		seen[c.ID] = i
	}
	return ph
}

func validateRecommendations(cmd *cobra.Command, p *pipeline.Pipeline, report pipeline.Report) *phase {
	ph := &phase{name: "Recommendations"}
	want := min(domain.TopK, len(report.Resources))

	for _, c := range report.Crises {
		recs, err := p.Recommend(cmd.Context(), c.ID)
		if err != nil {
			ph.errorf("%s: %v", c.ID, err)
			continue
		}
		if len(recs) != want {
			ph.errorf("%s: got %d recommendations, want %d", c.ID, len(recs), want)
		}
		for i := 1; i < len(recs); i++ {
			if recs[i].Score > recs[i-1].Score {
				ph.errorf("%s: %s (%.2f) ranked below %s (%.2f)",
					c.ID, recs[i].ResourceID, recs[i].Score, recs[i-1].ResourceID, recs[i-1].Score)
			}
		}
	}
	return ph
}

func printPhases(w io.Writer, phases []*phase, report pipeline.Report) {
	fmt.Fprintln(w, headerStyle.Render("=== Crisis Feed Validation ==="))
	fmt.Fprintln(w)

	allPassed := true
	for _, ph := range phases {
		status := successStyle.Render("PASS")
		if !ph.passed() {
			status = failStyle.Render(fmt.Sprintf("FAIL (%d errors)", len(ph.errors)))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-32s %s\n", ph.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("Snapshot: %d crises, %d resource pools, %d feeds",
		len(report.Crises), len(report.Resources), len(report.Feeds))))

	for _, ph := range phases {
		if ph.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", ph.name)
		for i, e := range ph.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	fmt.Fprintln(w)
	if allPassed {
		fmt.Fprintln(w, successStyle.Render("All validations passed."))
		return
	}
	fmt.Fprintln(w, failStyle.Render("Validation FAILED."))
}

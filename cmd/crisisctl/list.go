package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/couchcryptid/crisis-triage-service/internal/domain"
	"github.com/spf13/cobra"
)

var crisesCmd = &cobra.Command{
	Use:   "crises",
	Short: "List normalized crises, most urgent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := newPipeline(cmd)
		if err != nil {
			return err
		}
		crises, err := p.Crises(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			return printJSON(out, crises)
		}
		printCrises(out, crises)
		return nil
	},
}

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "List normalized resource pools",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := newPipeline(cmd)
		if err != nil {
			return err
		}
		resources, err := p.Resources(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			return printJSON(out, resources)
		}
		printResources(out, resources)
		return nil
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <crisis-id>",
	Short: "Rank the top resources for one crisis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(cmd)
		if err != nil {
			return err
		}
		crisis, err := p.Crisis(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		recs, err := p.Recommend(cmd.Context(), crisis.ID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			return printJSON(out, recs)
		}
		printRecommendations(out, crisis, recs)
		return nil
	},
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func severityStyle(s domain.Severity) string {
	switch s {
	case domain.SeverityCritical:
		return failStyle.Render(string(s))
	case domain.SeverityWarning:
		return warnStyle.Render(string(s))
	default:
		return dimStyle.Render(string(s))
	}
}

func printCrises(w io.Writer, crises []domain.NormalizedCrisis) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%d crises", len(crises))))
	for _, c := range crises {
		fmt.Fprintf(w, "\n  [%d] %s  %s\n", c.UrgencyScore, c.Title, severityStyle(c.Severity))
		fmt.Fprintf(w, "      %s\n", dimStyle.Render(fmt.Sprintf("%s | %s | %s | confidence %s",
			c.ID, c.Source, c.Timestamp.Format(time.RFC3339), c.Confidence)))
		fmt.Fprintf(w, "      locations: %s\n", strings.Join(c.Locations, ", "))
		if c.Geo != nil {
			fmt.Fprintf(w, "      geo: %.4f, %.4f (%s)\n", c.Geo.Lat, c.Geo.Lon, c.Geo.PlaceName)
		}
		if c.Summary != "" {
			fmt.Fprintf(w, "      %s\n", c.Summary)
		}
	}
}

func printResources(w io.Writer, resources []domain.NormalizedResource) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%d resource pools", len(resources))))
	for _, r := range resources {
		fmt.Fprintf(w, "\n  %-10s %-24s %8d\n", r.ID, r.Name, r.Capacity)
		for _, d := range r.Details {
			fmt.Fprintf(w, "  %s\n", dimStyle.Render(fmt.Sprintf("  %-33s %8d", d.Code, d.Count)))
		}
	}
}

func printRecommendations(w io.Writer, crisis domain.NormalizedCrisis, recs []domain.ResourceRecommendation) {
	fmt.Fprintln(w, headerStyle.Render(crisis.Title))
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%s | urgency %d | %s", crisis.ID, crisis.UrgencyScore, crisis.Severity)))
	if len(recs) == 0 {
		fmt.Fprintln(w, warnStyle.Render("\nNo resources available to recommend."))
		return
	}
	for i, r := range recs {
		fmt.Fprintf(w, "\n  %d. %s (%s)  score %s  confidence %s\n",
			i+1, r.ResourceName, r.ResourceID, successStyle.Render(fmt.Sprintf("%.2f", r.Score)), r.Confidence)
		for _, line := range r.Reasoning {
			fmt.Fprintf(w, "     - %s\n", line)
		}
	}
}

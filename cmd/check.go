package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	figure "github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lohith-badam/pishing-website-detection/detector"
)

var (
	checkJSON     bool
	checkNoBanner bool
	checkNoColor  bool
)

var checkCmd = &cobra.Command{
	Use:     "check <url>",
	Short:   "Classify a single URL and print the verdict",
	Args:    cobra.ExactArgs(1),
	Example: `  phishdetect check https://github.com
  phishdetect check "http://paypal-secure-login.verify-account.com/update" --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, engine, err := setup()
		if err != nil {
			return err
		}
		if checkNoColor {
			color.NoColor = true
		}

		analysis, err := engine.Classify(context.Background(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if checkJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(analysis)
		}
		if !checkNoBanner {
			printBanner(out)
		}
		printAnalysis(out, analysis)
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Print the full analysis as JSON")
	checkCmd.Flags().BoolVar(&checkNoBanner, "no-banner", false, "Do not print the banner")
	checkCmd.Flags().BoolVar(&checkNoColor, "no-color", false, "Disable colored output")
}

func printBanner(w io.Writer) {
	fig := figure.NewFigure("PHISHDETECT", "doom", true)
	fmt.Fprintln(w, fig.String())
	_, _ = color.New(color.FgCyan).Fprintln(w, strings.Repeat("═", 48))
}

func statusColor(s detector.Status) *color.Color {
	switch s {
	case detector.StatusSafe:
		return color.New(color.FgGreen, color.Bold)
	case detector.StatusPhishing:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgYellow, color.Bold)
	}
}

func printAnalysis(w io.Writer, a *detector.Analysis) {
	_, _ = statusColor(a.Verdict.Status).Fprintf(w, "[%s] %s\n", a.Verdict.Status, a.Verdict.Headline)
	fmt.Fprintf(w, "URL:         %s\n", a.URL)
	fmt.Fprintf(w, "Risk score:  %g%%\n", a.RiskScore)
	fmt.Fprintf(w, "SSL:         %s\n", a.SSLInfo)
	fmt.Fprintf(w, "Domain age:  %d months\n", a.DomainAgeMonths)
	fmt.Fprintf(w, "Location:    %s\n", a.Location)

	fmt.Fprintln(w, "Reasons:")
	for _, r := range a.Verdict.Reasons {
		fmt.Fprintf(w, "  - %s\n", r)
	}
	if len(a.Redirects) > 0 {
		fmt.Fprintln(w, "Redirect chain:")
		for i, u := range a.Redirects {
			fmt.Fprintf(w, "  [%d] %s\n", i, u)
		}
	}

	risky := color.New(color.FgRed)
	fmt.Fprintln(w, "Features:")
	for _, f := range a.Features {
		if f.Value == detector.Risky {
			_, _ = risky.Fprintf(w, "  %-20s %d\n", f.Name, f.Value)
			continue
		}
		fmt.Fprintf(w, "  %-20s %d\n", f.Name, f.Value)
	}
}

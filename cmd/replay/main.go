// Command replay scores YAML match fixtures offline and prints their
// scorecards, rating changes and the resulting leaderboard.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	service "github.com/okian/wicket/internal/app"
	"github.com/okian/wicket/internal/scorecard"
	"github.com/okian/wicket/pkg/logger"
)

// replayOptions holds the command flags.
type replayOptions struct {
	Format    string // "json" | "text"
	NoRatings bool
	Top       int
	Verbose   bool
}

// replayOutput is the JSON document written with --format json.
type replayOutput struct {
	Matches     []*scorecard.Report `json:"matches"`
	Leaderboard *service.Page       `json:"leaderboard,omitempty"`
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Stderr.WriteString("replay: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay FIXTURE...",
		Short: "Replay ball-by-ball match fixtures",
		Long: `Replay scores each YAML fixture in order through a fresh in-memory
scoring service, so later matches see the ratings of earlier ones.

Examples:
  replay testdata/final.yaml
  replay --format json --top 5 round1.yaml round2.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "text" && opts.Format != "json" {
				return fmt.Errorf("invalid format %q: must be one of [text json]", opts.Format)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), opts, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.Flags().BoolVar(&opts.NoRatings, "no-ratings", false, "score matches without applying ratings")
	cmd.Flags().IntVar(&opts.Top, "top", 10, "leaderboard entries to print after the last match")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log service activity to stderr")

	return cmd
}

func runReplay(ctx context.Context, opts *replayOptions, paths []string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.Nop()
	if opts.Verbose {
		log = logger.New(stderr, logger.FormatText)
	}
	svc := service.New(service.WithLogger(log))
	defer svc.Stop()

	out := replayOutput{Matches: make([]*scorecard.Report, 0, len(paths))}
	for _, path := range paths {
		f, err := scorecard.Load(path)
		if err != nil {
			return err
		}
		report, err := scorecard.Replay(ctx, svc, f, scorecard.Options{ApplyRatings: !opts.NoRatings})
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		out.Matches = append(out.Matches, report)
	}

	if !opts.NoRatings && opts.Top > 0 {
		page, err := svc.Leaderboard(ctx, 1, opts.Top)
		if err != nil {
			return err
		}
		out.Leaderboard = &page
	}

	if opts.Format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return writeText(stdout, out)
}

func writeText(w io.Writer, out replayOutput) error {
	for i, r := range out.Matches {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := scorecard.WriteText(w, r); err != nil {
			return err
		}
	}
	if out.Leaderboard == nil || len(out.Leaderboard.Entries) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tPLAYER\tRATING\tPEAK\tW-L-T")
	for _, e := range out.Leaderboard.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d-%d-%d\n",
			e.Rank, e.PlayerID, e.Current.StringFixed(2), e.Peak.StringFixed(2), e.Wins, e.Losses, e.Ties)
	}
	return tw.Flush()
}

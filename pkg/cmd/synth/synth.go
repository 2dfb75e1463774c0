package synth

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/go-dashsim/internal/journey"
	"github.com/mpapenbr/go-dashsim/log"
	"github.com/mpapenbr/go-dashsim/pkg/config"
)

func NewSynthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "synthesize a journey along a route",
		Long: `Creates a journey csv with one point per route coordinate, one second
apart, with a plausible speed and rpm profile.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return synthesize(cmd.Context(), config.DefaultCliArgs(), os.Stdout)
		},
	}
	cfg := config.DefaultCliArgs()
	cmd.Flags().StringVarP(&cfg.RouteFile,
		"route",
		"r",
		"",
		"yaml file with the route (points or polyline)")
	cmd.Flags().StringVarP(&cfg.OutputFile,
		"output",
		"o",
		"",
		"journey csv file to write (default stdout)")
	cmd.Flags().Int64Var(&cfg.Seed,
		"seed",
		1,
		"seed for the random speed and rpm variation")
	cmd.Flags().StringVar(&cfg.StartTime,
		"start",
		"",
		"timestamp of the first point (RFC3339 or \"2006-01-02 15:04:05\", default now)")
	//nolint:errcheck // flag exists
	cmd.MarkFlagRequired("route")
	return cmd
}

func synthesize(ctx context.Context, cfg *config.CliArgs, stdout io.Writer) error {
	logger := log.FromContextOrDefault(ctx).Named("synth")
	route, err := journey.LoadRoute(cfg.RouteFile)
	if err != nil {
		return err
	}
	start, err := parseStart(cfg.StartTime)
	if err != nil {
		return err
	}

	out := stdout
	if cfg.OutputFile != "" {
		f, err := os.Create(cfg.OutputFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	w, err := journey.NewWriter(out)
	if err != nil {
		return err
	}
	points := journey.Synthesize(route, journey.WithSeed(cfg.Seed), journey.WithStart(start))
	for _, p := range points {
		if err := w.WritePoint(p); err != nil {
			return err
		}
	}
	logger.Info("Journey synthesized",
		log.Int("points", len(points)),
		log.String("output", cfg.OutputFile))
	return nil
}

func parseStart(s string) (time.Time, error) {
	if s == "" {
		return time.Now().Truncate(time.Second), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Local(), nil
	}
	t, err := time.ParseInLocation(journey.TimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start time %q", s)
	}
	return t, nil
}

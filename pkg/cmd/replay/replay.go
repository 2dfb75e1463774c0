package replay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/go-dashsim/internal/display"
	"github.com/mpapenbr/go-dashsim/internal/journey"
	"github.com/mpapenbr/go-dashsim/internal/playback"
	"github.com/mpapenbr/go-dashsim/internal/store"
	"github.com/mpapenbr/go-dashsim/internal/telemetry"
	"github.com/mpapenbr/go-dashsim/internal/vehicle"
	"github.com/mpapenbr/go-dashsim/log"
	"github.com/mpapenbr/go-dashsim/pkg/broadcast"
	"github.com/mpapenbr/go-dashsim/pkg/config"
	"github.com/mpapenbr/go-dashsim/pkg/framelog"
)

const (
	FormatCSV     = "csv"
	FormatFrames  = "frames"
	FormatJourney = "journey"
)

var ErrUnknownFormat = errors.New("unknown format")

func NewReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay [file]",
		Short: "play back a recorded journey or session",
		Long: `Plays back a dashboard csv (--format csv), a binary frame log
(--format frames), a GPS logger journey (--format journey) or a session
from the store (--store, --session).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) > 0 {
				file = args[0]
			}
			return replay(cmd.Context(), config.DefaultCliArgs(), file)
		},
	}
	cfg := config.DefaultCliArgs()
	cmd.Flags().StringVarP(&cfg.ReplayFormat,
		"format",
		"f",
		FormatCSV,
		"format of the file (csv, frames, journey)")
	cmd.Flags().StringVar(&cfg.StoreFile,
		"store",
		"",
		"sqlite store to read the session from")
	cmd.Flags().StringVar(&cfg.ReplaySession,
		"session",
		"",
		"key of the stored session")
	cmd.Flags().DurationVar(&cfg.ReplayInterval,
		"interval",
		playback.DefaultInterval,
		"interval between two samples")
	cmd.Flags().IntVar(&cfg.MaxRPM,
		"max-rpm",
		config.DefaultMaxRPM,
		"rpm gauge ceiling if the recording does not provide one")
	cmd.Flags().IntVar(&cfg.MaxSpeed,
		"max-speed",
		config.DefaultMaxSpeed,
		"speed gauge ceiling if the recording does not provide one")
	cmd.Flags().DurationVar(&cfg.RefreshRate,
		"refresh",
		display.DefaultRefresh,
		"dashboard refresh interval")
	cmd.Flags().BoolVar(&cfg.NoDashboard,
		"no-dashboard",
		false,
		"do not render the dashboard")
	cmd.Flags().IntVar(&cfg.LogEvery,
		"log-every",
		0,
		"log every n-th sample (0: off)")
	return cmd
}

//nolint:funlen // wiring
func replay(ctx context.Context, cfg *config.CliArgs, file string) error {
	logger := log.FromContextOrDefault(ctx)
	ctx, cancel := context.WithCancel(ctx)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer func() {
		signal.Stop(sigChan)
		cancel()
	}()
	go func() {
		select {
		case <-sigChan:
			logger.Debug("interrupt signaled. Terminating")
			cancel()
		case <-ctx.Done():
		}
	}()

	maxRPM, maxSpeed := cfg.MaxRPM, cfg.MaxSpeed
	samples, err := load(ctx, cfg, file, &maxRPM, &maxSpeed)
	if err != nil {
		logger.Error("Could not load recording", log.ErrorField(err))
		return err
	}
	limits, err := vehicle.NewLimits(maxRPM, maxSpeed)
	if err != nil {
		return err
	}

	opts := []playback.Option{
		playback.WithInterval(cfg.ReplayInterval),
		playback.WithLogger(logger.Named("playback")),
	}
	if cfg.LogEvery > 0 {
		opts = append(opts, playback.WithSinks(display.NewLogSink(logger.Named("telemetry"), cfg.LogEvery)))
	}
	dashDone := make(chan struct{})
	b := broadcast.NewBroadcaster[telemetry.Sample]()
	if cfg.NoDashboard {
		close(dashDone)
	} else {
		opts = append(opts, playback.WithSinks(telemetry.SinkFunc(func(s telemetry.Sample) error {
			b.Broadcast(s)
			return nil
		})))
		dash := display.NewDashboard(os.Stdout, limits,
			display.WithMode(display.ModePlayback),
			display.WithRefresh(min(cfg.RefreshRate, cfg.ReplayInterval)),
			display.WithLogger(logger.Named("display")))
		ch := b.Subscribe()
		go func() {
			defer close(dashDone)
			if err := dash.Run(ctx, ch); err != nil {
				logger.Warn("dashboard stopped", log.ErrorField(err))
			}
		}()
	}

	played, err := playback.NewPlayer(opts...).Play(ctx, samples)
	b.Close()
	<-dashDone
	if err != nil {
		return err
	}
	fmt.Println(telemetry.Summarize(samples[:played]))
	return nil
}

func load(ctx context.Context, cfg *config.CliArgs, file string, maxRPM, maxSpeed *int) (
	[]telemetry.Sample, error,
) {
	if cfg.ReplaySession != "" {
		if cfg.StoreFile == "" {
			return nil, errors.New("--session requires --store")
		}
		st, err := store.Open(ctx, cfg.StoreFile)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		info, err := st.Session(ctx, cfg.ReplaySession)
		if err != nil {
			return nil, err
		}
		*maxRPM, *maxSpeed = info.MaxRPM, info.MaxSpeed
		return st.Samples(ctx, cfg.ReplaySession)
	}
	if file == "" {
		return nil, errors.New("either a file or --store and --session are required")
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch cfg.ReplayFormat {
	case FormatCSV:
		return telemetry.ReadCSV(f)
	case FormatFrames:
		session, samples, err := framelog.ReadAll(bufio.NewReader(f))
		if err != nil {
			return nil, err
		}
		if session != nil {
			*maxRPM, *maxSpeed = session.MaxRPM, session.MaxSpeed
		}
		return samples, nil
	case FormatJourney:
		points, err := journey.Read(f)
		if err != nil {
			return nil, err
		}
		return journey.ToSamples(points), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, cfg.ReplayFormat)
	}
}

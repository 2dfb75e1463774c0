package simulate

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/go-dashsim/internal/display"
	"github.com/mpapenbr/go-dashsim/internal/input"
	"github.com/mpapenbr/go-dashsim/internal/session"
	"github.com/mpapenbr/go-dashsim/internal/store"
	"github.com/mpapenbr/go-dashsim/internal/telemetry"
	"github.com/mpapenbr/go-dashsim/internal/vehicle"
	"github.com/mpapenbr/go-dashsim/log"
	"github.com/mpapenbr/go-dashsim/pkg/broadcast"
	"github.com/mpapenbr/go-dashsim/pkg/config"
	"github.com/mpapenbr/go-dashsim/pkg/framelog"
	"github.com/mpapenbr/go-dashsim/version"
)

func NewSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "run the vehicle simulator",
		Long: `Runs the vehicle simulator. Inputs are read as commands from stdin
unless a scenario script is given.

` + input.Help,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd.Context(), config.DefaultCliArgs())
		},
	}
	cfg := config.DefaultCliArgs()
	cmd.Flags().IntVar(&cfg.MaxRPM,
		"max-rpm",
		config.DefaultMaxRPM,
		fmt.Sprintf("rpm gauge ceiling (%d-%d)", vehicle.MinMaxRPM, vehicle.MaxMaxRPM))
	cmd.Flags().IntVar(&cfg.MaxSpeed,
		"max-speed",
		config.DefaultMaxSpeed,
		fmt.Sprintf("speed gauge ceiling in km/h (%d-%d)", vehicle.MinMaxSpeed, vehicle.MaxMaxSpeed))
	cmd.Flags().DurationVar(&cfg.TickInterval,
		"tick",
		session.DefaultTickInterval,
		"simulator tick interval")
	cmd.Flags().StringVarP(&cfg.ScriptFile,
		"script",
		"s",
		"",
		"yaml scenario used as input instead of console commands")
	cmd.Flags().IntVar(&cfg.MaxTicks,
		"ticks",
		0,
		"stop after this many ticks (0: unlimited)")
	cmd.Flags().BoolVar(&cfg.Fast,
		"fast",
		false,
		"do not pace ticks in realtime")
	cmd.Flags().StringVarP(&cfg.OutputFile,
		"output",
		"o",
		"",
		"write telemetry to this csv file")
	cmd.Flags().StringVar(&cfg.StoreFile,
		"store",
		"",
		"record the session in this sqlite store")
	cmd.Flags().StringVar(&cfg.FrameLogFile,
		"frame-log",
		"",
		"write telemetry to this binary frame log")
	cmd.Flags().StringVarP(&cfg.SessionName,
		"name",
		"n",
		"",
		"session name")
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

//nolint:funlen,cyclop // wiring
func runSimulation(ctx context.Context, cfg *config.CliArgs) error {
	logger := log.FromContextOrDefault(ctx)
	limits, err := vehicle.NewLimits(cfg.MaxRPM, cfg.MaxSpeed)
	if err != nil {
		logger.Error("Invalid gauge limits", log.ErrorField(err))
		return err
	}

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

	key := uuid.New().String()
	name := cfg.SessionName
	if name == "" {
		name = "simulation " + time.Now().Format("20060102-150405")
	}
	opts := []session.Option{
		session.WithKey(key),
		session.WithName(name),
		session.WithTickInterval(cfg.TickInterval),
		session.WithMaxTicks(cfg.MaxTicks),
		session.WithRealtime(!cfg.Fast),
		session.WithLogger(logger.Named("session")),
	}

	// input
	if cfg.ScriptFile != "" {
		script, err := input.LoadScript(cfg.ScriptFile)
		if err != nil {
			return err
		}
		logger.Info("Using scenario", log.String("script", cfg.ScriptFile),
			log.Int("ticks", script.TotalTicks()))
		opts = append(opts, session.WithInput(script))
	} else {
		controls := input.NewControls()
		fmt.Fprintln(os.Stderr, input.Help)
		go func() {
			if err := input.ReadConsole(ctx, os.Stdin, controls); err != nil {
				logger.Debug("console input ended", log.ErrorField(err))
			}
		}()
		opts = append(opts, session.WithInput(controls))
	}

	// recording
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Warn("error closing output", log.ErrorField(err))
			}
		}
	}()
	if cfg.OutputFile != "" {
		f, err := os.Create(cfg.OutputFile)
		if err != nil {
			return err
		}
		w, err := telemetry.NewCSVWriter(f)
		if err != nil {
			f.Close()
			return err
		}
		closers = append(closers, w)
		opts = append(opts, session.WithSinks(w))
	}
	if cfg.FrameLogFile != "" {
		f, err := os.Create(cfg.FrameLogFile)
		if err != nil {
			return err
		}
		bw := bufio.NewWriter(f)
		closers = append(closers, f, flusher{bw})
		fl := framelog.NewFrameLog(framelog.WithWriter(bw))
		if err := fl.LogSession(framelog.Session{
			Key:          key,
			Name:         name,
			MaxRPM:       cfg.MaxRPM,
			MaxSpeed:     cfg.MaxSpeed,
			TickInterval: cfg.TickInterval,
			Version:      version.Version,
		}); err != nil {
			return err
		}
		opts = append(opts, session.WithSinks(fl))
	}
	if cfg.StoreFile != "" {
		st, err := store.Open(ctx, cfg.StoreFile)
		if err != nil {
			return err
		}
		closers = append(closers, st)
		if err := st.CreateSession(ctx, store.Info{
			Key:          key,
			Name:         name,
			Source:       store.SourceSimulation,
			CreatedAt:    time.Now(),
			MaxRPM:       cfg.MaxRPM,
			MaxSpeed:     cfg.MaxSpeed,
			TickInterval: cfg.TickInterval,
		}); err != nil {
			return err
		}
		// the final flush must not be affected by the interrupt
		w := st.NewSessionWriter(context.WithoutCancel(ctx), key, store.DefaultBatchSize)
		closers = append(closers, w)
		opts = append(opts, session.WithSinks(w))
	}
	if cfg.LogEvery > 0 {
		opts = append(opts, session.WithSinks(display.NewLogSink(logger.Named("telemetry"), cfg.LogEvery)))
	}

	// display
	dashDone := make(chan struct{})
	if cfg.NoDashboard {
		close(dashDone)
	} else {
		b := broadcast.NewBroadcaster[telemetry.Sample]()
		opts = append(opts, session.WithBroadcaster(b))
		dash := display.NewDashboard(os.Stdout, limits,
			display.WithRefresh(cfg.RefreshRate),
			display.WithLogger(logger.Named("display")))
		ch := b.Subscribe()
		go func() {
			defer close(dashDone)
			if err := dash.Run(ctx, ch); err != nil {
				logger.Warn("dashboard stopped", log.ErrorField(err))
			}
		}()
	}

	sess := session.NewSession(limits, opts...)
	runErr := sess.Run(ctx)
	<-dashDone

	state := sess.State()
	logger.Info("Simulation finished",
		log.String("session", sess.Key()),
		log.Int("ticks", sess.Ticks()),
		log.String("runtime", display.FormatRuntime(state.Elapsed)),
		log.Float("rpm", state.RPM),
		log.Float("speed", state.Speed),
		log.Float("temp", state.Temperature),
		log.String("gear", state.GearLabel()),
		log.Bool("stalled", state.Stalled))
	return runErr
}

// flusher adapts a bufio.Writer to io.Closer
type flusher struct {
	w *bufio.Writer
}

func (f flusher) Close() error { return f.w.Flush() }

package logimport

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/go-dashsim/internal/store"
	"github.com/mpapenbr/go-dashsim/internal/telemetry"
	"github.com/mpapenbr/go-dashsim/internal/vehicle"
	"github.com/mpapenbr/go-dashsim/log"
	"github.com/mpapenbr/go-dashsim/pkg/config"
)

var (
	sessionKey  = ""
	replaceData = false

	ErrNoStore = errors.New("no store given")
)

func NewImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "import a dashboard csv as a stored session",
		Args:  cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return doImport(cmd.Context(), config.DefaultCliArgs(), args[0])
		},
	}
	cfg := config.DefaultCliArgs()
	cmd.Flags().StringVar(&cfg.StoreFile,
		"store",
		"",
		"sqlite store to import into")
	cmd.Flags().StringVarP(&cfg.SessionName,
		"name",
		"n",
		"",
		"session name (default is the file name)")
	cmd.Flags().IntVar(&cfg.MaxRPM,
		"max-rpm",
		config.DefaultMaxRPM,
		"rpm gauge ceiling of the session")
	cmd.Flags().IntVar(&cfg.MaxSpeed,
		"max-speed",
		config.DefaultMaxSpeed,
		"speed gauge ceiling of the session")
	cmd.Flags().StringVar(&sessionKey,
		"session-key",
		"",
		"Import data with this session key (default is a new random key)")
	cmd.Flags().BoolVar(&replaceData,
		"replace-data",
		false,
		"replace an existing session with the same key")
	return cmd
}

type importProc struct {
	st          *store.Store
	log         *log.Logger
	replaceData bool
}

func doImport(ctx context.Context, cfg *config.CliArgs, fn string) error {
	logger := log.FromContextOrDefault(ctx).Named("import")
	if cfg.StoreFile == "" {
		return ErrNoStore
	}
	if _, err := vehicle.NewLimits(cfg.MaxRPM, cfg.MaxSpeed); err != nil {
		return err
	}
	f, err := os.Open(fn)
	if err != nil {
		logger.Error("error opening file", log.ErrorField(err))
		return err
	}
	defer f.Close()
	samples, err := telemetry.ReadCSV(f)
	if err != nil {
		logger.Error("error reading file", log.ErrorField(err))
		return err
	}

	st, err := store.Open(ctx, cfg.StoreFile)
	if err != nil {
		return err
	}
	defer st.Close()

	info := store.Info{
		Key:          sessionKey,
		Name:         cfg.SessionName,
		Source:       store.SourceImport,
		CreatedAt:    time.Now(),
		MaxRPM:       cfg.MaxRPM,
		MaxSpeed:     cfg.MaxSpeed,
		TickInterval: tickInterval(samples),
	}
	if info.Key == "" {
		info.Key = uuid.New().String()
	}
	if info.Name == "" {
		info.Name = strings.TrimSuffix(filepath.Base(fn), filepath.Ext(fn))
	}
	proc := &importProc{st: st, log: logger, replaceData: replaceData}
	return proc.process(ctx, info, samples)
}

func (p *importProc) process(ctx context.Context, info store.Info, samples []telemetry.Sample) error {
	if p.replaceData {
		err := p.st.DeleteSession(ctx, info.Key)
		if err != nil && !errors.Is(err, store.ErrSessionNotFound) {
			return err
		}
	}
	if err := p.st.CreateSession(ctx, info); err != nil {
		return err
	}
	if err := p.st.AppendSamples(ctx, info.Key, samples); err != nil {
		return err
	}
	p.log.Info("Session imported",
		log.String("key", info.Key),
		log.String("name", info.Name),
		log.Int("samples", len(samples)))
	return nil
}

// tickInterval is the spacing of the first two samples
func tickInterval(samples []telemetry.Sample) time.Duration {
	if len(samples) < 2 {
		return 0
	}
	return samples[1].Time - samples[0].Time
}

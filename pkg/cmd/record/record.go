package record

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/go-dashsim/internal/journey"
	"github.com/mpapenbr/go-dashsim/log"
	"github.com/mpapenbr/go-dashsim/pkg/config"
	"github.com/mpapenbr/go-dashsim/pkg/util"
)

const DefaultDevice = "/dev/ttyUSB0"

var ErrDeviceNotAvailable = errors.New("device not available")

func NewRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "record a journey from the GPS logger",
		Long: `Reads the rows sent by the GPS logger from the device and writes them
to a journey csv (timestamp,rpm,speed,lat,lon). The serial line must be
configured beforehand (e.g. stty -F /dev/ttyUSB0 115200).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return recordJourney(cmd.Context(), config.DefaultCliArgs())
		},
	}
	cfg := config.DefaultCliArgs()
	cmd.Flags().StringVarP(&cfg.Device,
		"device",
		"d",
		DefaultDevice,
		"device (or file) the GPS logger writes to")
	cmd.Flags().StringVarP(&cfg.OutputFile,
		"output",
		"o",
		"",
		"journey csv file to write")
	cmd.Flags().StringVar(&cfg.WaitForDevice,
		"wait",
		"60s",
		"wait for the device to appear")
	//nolint:errcheck // flag exists
	cmd.MarkFlagRequired("output")
	return cmd
}

func recordJourney(ctx context.Context, cfg *config.CliArgs) error {
	logger := log.FromContextOrDefault(ctx).Named("record")

	if ok := util.WaitForDevice(ctx, cfg.Device, cfg.WaitForDevice); !ok {
		logger.Error("Device not available", log.String("device", cfg.Device))
		return fmt.Errorf("%w: %s", ErrDeviceNotAvailable, cfg.Device)
	}
	dev, err := os.Open(cfg.Device)
	if err != nil {
		return err
	}
	defer dev.Close()
	logger.Info("Connected to device", log.String("device", cfg.Device))

	out, err := os.Create(cfg.OutputFile)
	if err != nil {
		return err
	}
	defer out.Close()
	w, err := journey.NewWriter(out)
	if err != nil {
		return err
	}
	logger.Info("Logging journey", log.String("output", cfg.OutputFile))

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

	n, err := journey.NewRecorder(w, logger).Record(ctx, dev)
	logger.Info("Stopped recording",
		log.Int("rows", n),
		log.String("output", cfg.OutputFile))
	return err
}

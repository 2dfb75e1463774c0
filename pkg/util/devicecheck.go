package util

import (
	"context"
	"os"
	"time"

	"github.com/mpapenbr/go-dashsim/log"
)

// DefaultWaitForDevice is used when the configured wait duration is invalid
const DefaultWaitForDevice = 60 * time.Second

// WaitForDevice polls once per second until path exists or the timeout
// (a duration string like "30s") expires.
func WaitForDevice(ctx context.Context, path, timeout string) bool {
	d, err := time.ParseDuration(timeout)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		d = DefaultWaitForDevice
	}
	if deviceExists(path) {
		return true
	}

	log.Info("Waiting for device", log.String("device", path), log.String("timeout", d.String()))
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if deviceExists(path) {
				return true
			}
			log.Debug("Device not available yet", log.String("device", path))
		}
	}
}

func deviceExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

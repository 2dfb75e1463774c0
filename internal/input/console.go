package input

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/mpapenbr/go-dashsim/log"
)

// Help describes the console commands
const Help = "commands: throttle on|off (+t/-t), clutch on|off (+c/-c), " +
	"up (w), down (s), restart (r), quit (q)"

// ReadConsole reads operator commands line by line from r and applies them
// to c. It returns nil on EOF or when the context is done, ErrQuit when the
// operator quits.
func ReadConsole(ctx context.Context, r io.Reader, c *Controls) error {
	logger := log.FromContextOrDefault(ctx).Named("console")
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines := make(chan string)
	errCh := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errCh <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			return err
		case line := <-lines:
			if quit := apply(line, c, logger); quit {
				c.Quit()
				return ErrQuit
			}
		}
	}
}

//nolint:cyclop // one case per command
func apply(line string, c *Controls, logger *log.Logger) (quit bool) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return false
	}
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}
	switch fields[0] {
	case "+t":
		c.SetThrottle(true)
	case "-t":
		c.SetThrottle(false)
	case "t", "throttle":
		c.SetThrottle(arg != "off")
	case "+c":
		c.SetClutch(true)
	case "-c":
		c.SetClutch(false)
	case "c", "clutch":
		c.SetClutch(arg != "off")
	case "w", "up":
		c.RequestGearUp()
	case "s", "down":
		c.RequestGearDown()
	case "r", "restart":
		c.RequestRestart()
	case "q", "quit", "exit":
		return true
	default:
		logger.Warn("unknown command", log.String("cmd", line), log.String("help", Help))
	}
	return false
}

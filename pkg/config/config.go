package config

import "time"

//nolint:lll // better readability
type CliArgs struct {
	LogLevel  string // sets the log level (zap log level values)
	LogFormat string // text vs json
	LogFile   string // log file to write to
	LogConfig string // yaml file with detailed logger configuration

	MaxRPM         int           // rpm gauge ceiling (3000-12000)
	MaxSpeed       int           // speed gauge ceiling in km/h (100-400)
	TickInterval   time.Duration // simulator tick period
	MaxTicks       int           // stop simulation after this many ticks (0: unlimited)
	Fast           bool          // do not pace ticks in realtime
	ScriptFile     string        // yaml scenario used as input source instead of the console
	SessionName    string        // name of the recorded session
	OutputFile     string        // csv file to write telemetry/journey rows to
	FrameLogFile   string        // binary frame log to write samples to
	StoreFile      string        // sqlite session store
	RefreshRate    time.Duration // dashboard refresh interval
	NoDashboard    bool          // do not render the terminal dashboard
	LogEvery       int           // log every n-th sample (0: off)
	ReplayFormat   string        // csv, frames or journey
	ReplaySession  string        // session key to replay from the store
	ReplayInterval time.Duration // playback interval between two samples
	Device         string        // device (or file) the GPS logger writes to
	WaitForDevice  string        // duration to wait for the device to appear
	RouteFile      string        // yaml route used by the journey synthesizer
	Seed           int64         // seed for the journey synthesizer
	StartTime      string        // start time of synthesized journeys (RFC3339, default now)
}

const (
	DefaultMaxRPM   = 8000
	DefaultMaxSpeed = 240
)

var cliArgs = NewCliArgs()

func DefaultCliArgs() *CliArgs {
	return cliArgs
}

func NewCliArgs() *CliArgs {
	return &CliArgs{
		MaxRPM:         DefaultMaxRPM,
		MaxSpeed:       DefaultMaxSpeed,
		TickInterval:   50 * time.Millisecond,
		RefreshRate:    200 * time.Millisecond,
		ReplayInterval: 500 * time.Millisecond,
		ReplayFormat:   "csv",
		WaitForDevice:  "60s",
	}
}

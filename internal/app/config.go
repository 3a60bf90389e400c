package app

import "time"

// Default configuration constants (§4.1's fixed 2.0 Msps model).
const (
	DefaultFrequency  = 1090000000 // 1090 MHz
	DefaultSampleRate = 2000000    // 2.0 MHz, one sample per half-microsecond
	DefaultGain       = 40         // Manual gain

	DefaultTTL           = 60 * time.Second
	DefaultHomeRangeLimit = 300 // nmi, §7 Open Questions

	DefaultPublishRefreshMillis = 1000
	DefaultHistoryCount         = 120

	DefaultControlQueueSize = 16
)

// Config holds every tunable the application wires at startup: the
// radio front end, the aircraft table's lifecycle/home parameters, the
// registration lookup collaborator, the wire publishers (§4.7/§5.6) and
// the optional broker-backed feeders (§5.6/§5.8), all disabled by
// default and enabled only when their address/path fields are set.
type Config struct {
	// Radio front end.
	Frequency   uint32
	SampleRate  uint32
	Gain        int
	DeviceIndex int

	// Ambient logging.
	LogDir       string
	LogRotateUTC bool
	Verbose      bool
	ShowVersion  bool

	// Aircraft table lifecycle and home position (§4.5).
	TTL            time.Duration
	HomeSet        bool
	HomeLat        float64
	HomeLon        float64
	HomeRangeLimit float64

	// Registration lookup collaborator (§6): at most one of these is set.
	RegistrationCSVPath    string
	RegistrationSQLitePath string

	// JSON publication (§4.6).
	Version          string
	PublishRefreshMS int
	PublishHistory   int
	PublishCompat    bool
	PublishExtended  bool
	HistoryDir       string

	// TCP wire sinks (§4.7/§5.6). Empty address disables the sink.
	BeastAddr string
	AVRAddr   string
	SBSAddr   string

	// AMQP fan-out (§5.6). Empty URL disables the feeder.
	AMQPURL      string
	AMQPExchange string

	// NATS-backed remote operator control (§5.8). Disabled by default;
	// empty URL leaves the command channel local-only.
	NATSURL     string
	NATSSubject string

	// ControlQueueSize bounds the local operator command channel.
	ControlQueueSize int
}

package app

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"go1090/internal/adsb"
	"go1090/internal/aircraft"
	"go1090/internal/basestation"
	"go1090/internal/beast"
	"go1090/internal/control"
	"go1090/internal/feed"
	"go1090/internal/logging"
	"go1090/internal/publish"
	"go1090/internal/registry"
	"go1090/internal/rtlsdr"
)

// publishTickInterval is the 4Hz cadence the staleness sweep and JSON
// snapshot builder run at (§4.5/§4.6).
const publishTickInterval = 250 * time.Millisecond

// Application wires the radio front end, the decoder, the aircraft
// table and every wire publisher into one running receiver.
type Application struct {
	config Config
	logger *logrus.Logger

	rtlsdr      *rtlsdr.RTLSDRDevice
	processor   *adsb.Processor
	table       *aircraft.Table
	logRotator  *logging.LogRotator
	baseStation *basestation.Writer

	beastEncoder *beast.Encoder

	beastChannel *feed.Channel
	avrChannel   *feed.Channel
	sbsChannel   *feed.Channel
	beastSink    *feed.TCPSink
	avrSink      *feed.TCPSink
	sbsSink      *feed.TCPSink

	amqpFeeder  *feed.AMQPFeeder
	historyRing *publish.HistoryRing

	controlChannel *control.Channel
	natsTransport  *control.NATSTransport

	totalMessages uint64 // atomic

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	verbose bool
}

// NewApplication creates a new application instance.
func NewApplication(config Config) *Application {
	ctx, cancel := context.WithCancel(context.Background())

	logger := logrus.New()
	if config.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Application{
		config:  config,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		verbose: config.Verbose,
	}
}

// Start starts the application and blocks until a shutdown signal or
// operator "shutdown" command arrives.
func (app *Application) Start() error {
	app.logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	}).Info("Starting ADS-B receiver")

	if err := app.initializeComponents(); err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := app.run(); err != nil {
		app.logger.WithError(err).Error("Application error")
		return err
	}

	select {
	case <-sigChan:
		app.logger.Info("Received shutdown signal")
	case <-app.ctx.Done():
		app.logger.Info("Shutdown requested via operator control channel")
	}
	app.shutdown()

	return nil
}

// initializeComponents initializes all application components.
func (app *Application) initializeComponents() error {
	var err error

	app.rtlsdr, err = rtlsdr.NewRTLSDRDevice(app.config.DeviceIndex)
	if err != nil {
		return fmt.Errorf("failed to initialize RTL-SDR: %w", err)
	}
	if err := app.rtlsdr.Configure(app.config.Frequency, app.config.SampleRate, app.config.Gain); err != nil {
		return fmt.Errorf("failed to configure RTL-SDR: %w", err)
	}

	app.processor = adsb.NewProcessor(app.logger)

	provider, err := app.buildRegistrationProvider()
	if err != nil {
		return fmt.Errorf("failed to initialize registration provider: %w", err)
	}

	ttl := app.config.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	tableOpts := []aircraft.Option{
		aircraft.WithHomeWrongHandler(func() {
			app.logger.Error("home position appears misconfigured: no CPR global checks advanced in the startup window")
		}),
	}
	if provider != nil {
		tableOpts = append(tableOpts, aircraft.WithRegistrationProvider(provider))
	}
	if app.config.HomeSet {
		tableOpts = append(tableOpts, aircraft.WithHome(app.config.HomeLat, app.config.HomeLon))
	}
	if app.config.HomeRangeLimit > 0 {
		tableOpts = append(tableOpts, aircraft.WithHomeRangeLimit(app.config.HomeRangeLimit))
	}
	app.table = aircraft.NewTable(ttl, app.logger, time.Now(), tableOpts...)

	app.logRotator, err = logging.NewLogRotator(app.config.LogDir, app.config.LogRotateUTC, app.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize log rotator: %w", err)
	}
	app.baseStation = basestation.NewWriter(app.logRotator, app.logger)
	app.beastEncoder = beast.NewEncoder()

	if err := app.initializeFeeds(); err != nil {
		return fmt.Errorf("failed to initialize feeds: %w", err)
	}

	if app.config.HistoryDir != "" {
		app.historyRing, err = publish.NewHistoryRing(app.config.HistoryDir, app.config.PublishHistory)
		if err != nil {
			return fmt.Errorf("failed to initialize history ring: %w", err)
		}
	}

	queueSize := app.config.ControlQueueSize
	if queueSize <= 0 {
		queueSize = DefaultControlQueueSize
	}
	app.controlChannel = control.NewChannel(queueSize)
	if app.config.NATSURL != "" {
		app.natsTransport, err = control.NewNATSTransport(app.config.NATSURL, app.config.NATSSubject, app.controlChannel, app.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize NATS control transport: %w", err)
		}
	}

	return nil
}

// buildRegistrationProvider constructs the configured registration
// lookup collaborator, or nil if none was configured.
func (app *Application) buildRegistrationProvider() (registry.Provider, error) {
	switch {
	case app.config.RegistrationSQLitePath != "":
		return registry.NewSQLiteProvider(app.config.RegistrationSQLitePath)
	case app.config.RegistrationCSVPath != "":
		return registry.NewCSVProvider(app.config.RegistrationCSVPath)
	default:
		return nil, nil
	}
}

// initializeFeeds starts the TCP sinks and AMQP feeder whose addresses
// were configured, each fed by its own bounded, drop-newest channel
// (§5 concurrency model).
func (app *Application) initializeFeeds() error {
	const feedQueueSize = 256

	if app.config.BeastAddr != "" {
		app.beastChannel = feed.NewChannel(feedQueueSize)
		sink, err := feed.NewTCPSink(app.config.BeastAddr, app.beastChannel, app.logger)
		if err != nil {
			return fmt.Errorf("failed to start Beast sink: %w", err)
		}
		app.beastSink = sink
	}

	if app.config.AVRAddr != "" {
		app.avrChannel = feed.NewChannel(feedQueueSize)
		sink, err := feed.NewTCPSink(app.config.AVRAddr, app.avrChannel, app.logger)
		if err != nil {
			return fmt.Errorf("failed to start AVR sink: %w", err)
		}
		app.avrSink = sink
	}

	if app.config.SBSAddr != "" {
		app.sbsChannel = feed.NewChannel(feedQueueSize)
		sink, err := feed.NewTCPSink(app.config.SBSAddr, app.sbsChannel, app.logger)
		if err != nil {
			return fmt.Errorf("failed to start SBS sink: %w", err)
		}
		app.sbsSink = sink
	}

	if app.config.AMQPURL != "" {
		feeder, err := feed.NewAMQPFeeder(app.config.AMQPURL, app.config.AMQPExchange, app.logger)
		if err != nil {
			return fmt.Errorf("failed to start AMQP feeder: %w", err)
		}
		app.amqpFeeder = feeder
	}

	return nil
}

// run runs the main application loop.
func (app *Application) run() error {
	app.logger.Info("Starting RTL-SDR capture and ADS-B demodulation")

	dataChan := make(chan []byte, 100)

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		if err := app.rtlsdr.StartCapture(app.ctx, dataChan); err != nil {
			app.logger.WithError(err).Error("RTL-SDR capture failed")
		}
	}()

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.logRotator.Start(app.ctx)
	}()

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.processSamples(dataChan)
	}()

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.publishLoop()
	}()

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.controlLoop()
	}()

	if app.amqpFeeder != nil {
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			interval := time.Duration(app.publishRefreshMillis()) * time.Millisecond
			app.amqpFeeder.Run(app.ctx, interval, app.buildSnapshot)
		}()
	}

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.reportStatistics()
	}()

	app.logger.Info("All components started successfully")
	return nil
}

// processSamples converts each raw I/Q buffer into magnitude samples,
// runs the demodulator over it and fans every decoded message out to
// the aircraft table and the wire publishers (§4.1-§4.3, §5.6).
func (app *Application) processSamples(dataChan <-chan []byte) {
	for {
		select {
		case <-app.ctx.Done():
			app.logger.Info("sample processing stopped")
			return
		case data := <-dataChan:
			if len(data) == 0 {
				continue
			}

			m := adsb.ToMagnitude(data)
			messages := app.processor.ProcessSamples(m, time.Now())

			for _, dm := range messages {
				atomic.AddUint64(&app.totalMessages, 1)
				app.table.Update(dm)
				app.publishMessage(dm)
			}
		}
	}
}

// publishMessage writes a decoded message to the BaseStation log and
// pushes it onto every enabled wire feed.
func (app *Application) publishMessage(dm *adsb.DecodedMessage) {
	if err := app.baseStation.WriteMessage(dm); err != nil {
		app.logger.WithError(err).Debug("failed to write BaseStation message")
	}

	if app.beastChannel != nil {
		if frame := app.beastEncoder.Encode(dm.Raw); frame != nil {
			app.beastChannel.Push(frame)
		}
	}
	if app.avrChannel != nil {
		app.avrChannel.Push(beast.EncodeAVR(dm.Raw))
	}
	if app.sbsChannel != nil {
		if line := app.baseStation.FormatMessage(dm); line != "" {
			app.sbsChannel.Push([]byte(line + "\n"))
		}
	}
}

// publishRefreshMillis returns the configured JSON refresh interval,
// defaulting per §4.6.
func (app *Application) publishRefreshMillis() int {
	if app.config.PublishRefreshMS > 0 {
		return app.config.PublishRefreshMS
	}
	return DefaultPublishRefreshMillis
}

// publishConfig renders the publish.Config this application runs with.
func (app *Application) publishConfig() publish.Config {
	history := app.config.PublishHistory
	if history <= 0 {
		history = DefaultHistoryCount
	}
	return publish.Config{
		Version:       Version,
		RefreshMillis: app.publishRefreshMillis(),
		History:       history,
		HomeLat:       app.config.HomeLat,
		HomeLon:       app.config.HomeLon,
		HomeSet:       app.config.HomeSet,
		Compat:        app.config.PublishCompat,
		Extended:      app.config.PublishExtended,
	}
}

// buildSnapshot renders the current aircraft.json document.
func (app *Application) buildSnapshot() publish.Snapshot {
	records := app.table.Snapshot()
	total := atomic.LoadUint64(&app.totalMessages)
	return publish.BuildSnapshot(records, total, time.Now(), app.publishConfig())
}

// publishLoop runs the 4Hz tick: the staleness sweep and, on the
// configured refresh cadence, a JSON snapshot written to the history
// ring if one is configured (§4.5/§4.6).
func (app *Application) publishLoop() {
	ticker := time.NewTicker(publishTickInterval)
	defer ticker.Stop()

	refresh := time.Duration(app.publishRefreshMillis()) * time.Millisecond
	var sinceLastPublish time.Duration

	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			app.table.StalenessSweep(now)

			sinceLastPublish += publishTickInterval
			if sinceLastPublish < refresh {
				continue
			}
			sinceLastPublish = 0

			if app.historyRing != nil {
				snap := app.buildSnapshot()
				if err := app.historyRing.Write(snap); err != nil {
					app.logger.WithError(err).Warn("failed to write history snapshot")
				}
			}
		}
	}
}

// controlLoop consumes operator commands (§6 "Operator controls"):
// shutdown | set-home lat lon | set-ttl ms | reset-stats | follow hex.
func (app *Application) controlLoop() {
	for {
		select {
		case <-app.ctx.Done():
			return
		case cmd := <-app.controlChannel.C():
			app.applyCommand(cmd)
		}
	}
}

func (app *Application) applyCommand(cmd control.Command) {
	switch cmd.Kind {
	case control.Shutdown:
		app.logger.Info("operator requested shutdown")
		app.cancel()
	case control.SetHome:
		app.table.SetHome(cmd.Lat, cmd.Lon)
		app.logger.WithFields(logrus.Fields{"lat": cmd.Lat, "lon": cmd.Lon}).Info("home position updated")
	case control.SetTTL:
		app.table.SetTTL(time.Duration(cmd.TTLMillis) * time.Millisecond)
		app.logger.WithField("ttl_ms", cmd.TTLMillis).Info("aircraft TTL updated")
	case control.ResetStats:
		app.processor.ResetStats()
		atomic.StoreUint64(&app.totalMessages, 0)
		app.logger.Info("statistics reset")
	case control.Follow:
		app.logger.WithField("hex", cmd.Hex).Info("follow requested")
	}
}

// ReadOperatorCommands reads newline-delimited commands from r and
// forwards them to the local control channel until r is exhausted or
// the application shuts down. Intended for stdin-driven local control.
func (app *Application) ReadOperatorCommands(r *bufio.Scanner) {
	for r.Scan() {
		select {
		case <-app.ctx.Done():
			return
		default:
		}
		line := r.Text()
		if line == "" {
			continue
		}
		cmd, err := control.ParseCommand(line)
		if err != nil {
			app.logger.WithError(err).Warn("discarding malformed operator command")
			continue
		}
		if !app.controlChannel.Send(cmd) {
			app.logger.Warn("control command channel full, dropping command")
		}
	}
}

// reportStatistics reports processing statistics periodically.
func (app *Application) reportStatistics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			stats := app.processor.GetStats()
			app.logger.WithFields(logrus.Fields{
				"preambles":       stats.Preambles,
				"valid_messages":  stats.ValidMessages,
				"bad_crc":         stats.RejectedBadCRC,
				"corrected":       stats.CorrectedMessages,
				"cpr_global":      stats.CPRGlobalResolved,
				"cpr_local":       stats.CPRLocalResolved,
				"cpr_bad_global":  app.table.BadGlobalCount(),
				"tracked_aircraft": app.table.Len(),
			}).Info("ADS-B processing statistics")
		}
	}
}

// shutdown gracefully shuts down the application.
func (app *Application) shutdown() {
	app.logger.Info("Shutting down application")
	app.cancel()

	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		app.logger.Info("All goroutines finished")
	case <-time.After(5 * time.Second):
		app.logger.Warn("Shutdown timeout, forcing exit")
	}

	if app.rtlsdr != nil {
		app.rtlsdr.Close()
	}
	if app.logRotator != nil {
		app.logRotator.Close()
	}
	if app.beastSink != nil {
		app.beastSink.Close()
	}
	if app.avrSink != nil {
		app.avrSink.Close()
	}
	if app.sbsSink != nil {
		app.sbsSink.Close()
	}
	if app.amqpFeeder != nil {
		app.amqpFeeder.Close()
	}
	if app.natsTransport != nil {
		app.natsTransport.Close()
	}

	app.logger.Info("Shutdown completed")
}

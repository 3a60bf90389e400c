package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"go1090/internal/app"
)

func main() {
	var config app.Config
	var ttlSeconds int

	rootCmd := &cobra.Command{
		Use:   "go1090",
		Short: "ADS-B receiver",
		Long: `ADS-B receiver using RTL-SDR.

Captures I/Q samples from RTL-SDR at 2.0Msps, demodulates Mode S/ADS-B
messages, tracks aircraft, and publishes Beast, AVR and BaseStation
(SBS) wire formats alongside a readsb/tar1090-style JSON snapshot.

Example usage:
  go1090 --frequency 1090000000 --gain 40 --device 0 --beast-addr :30005`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.ShowVersion {
				app.ShowVersion()
				return nil
			}

			config.TTL = time.Duration(ttlSeconds) * time.Second

			application := app.NewApplication(config)
			return application.Start()
		},
	}

	flags := rootCmd.Flags()
	flags.Uint32VarP(&config.Frequency, "frequency", "f", app.DefaultFrequency, "Frequency to tune to (Hz)")
	flags.Uint32VarP(&config.SampleRate, "sample-rate", "s", app.DefaultSampleRate, "Sample rate (Hz)")
	flags.IntVarP(&config.Gain, "gain", "g", app.DefaultGain, "Gain setting (0 for auto)")
	flags.IntVarP(&config.DeviceIndex, "device", "d", 0, "RTL-SDR device index")
	flags.StringVarP(&config.LogDir, "log-dir", "l", "./logs", "Log directory")
	flags.BoolVarP(&config.LogRotateUTC, "utc", "u", true, "Use UTC for log rotation")
	flags.BoolVarP(&config.Verbose, "verbose", "v", false, "Verbose logging")
	flags.BoolVar(&config.ShowVersion, "version", false, "Show version information")

	flags.IntVar(&ttlSeconds, "ttl", 60, "Aircraft eviction TTL (seconds)")
	flags.BoolVar(&config.HomeSet, "home-set", false, "Enable the home position (for CPR local decode and distance)")
	flags.Float64Var(&config.HomeLat, "home-lat", 0, "Home latitude")
	flags.Float64Var(&config.HomeLon, "home-lon", 0, "Home longitude")
	flags.Float64Var(&config.HomeRangeLimit, "home-range-limit", app.DefaultHomeRangeLimit, "Plausible maximum distance from home (nmi)")

	flags.StringVar(&config.RegistrationCSVPath, "registration-csv", "", "Path to an aircraft registration CSV")
	flags.StringVar(&config.RegistrationSQLitePath, "registration-db", "", "Path to an aircraft registration SQLite database")

	flags.StringVar(&config.Version, "publish-version", "go1090", "Version string reported in receiver.json")
	flags.IntVar(&config.PublishRefreshMS, "publish-refresh-ms", app.DefaultPublishRefreshMillis, "JSON publish refresh interval (ms)")
	flags.IntVar(&config.PublishHistory, "publish-history", app.DefaultHistoryCount, "Number of history snapshots to retain")
	flags.BoolVar(&config.PublishCompat, "publish-compat", false, "Use FlightAware-style alt_baro/geom_rate/gs aliases")
	flags.BoolVar(&config.PublishExtended, "publish-extended", false, "Add mlat/tisb attribute-provenance arrays")
	flags.StringVar(&config.HistoryDir, "history-dir", "", "Directory to persist aircraft.json history snapshots (disabled if empty)")

	flags.StringVar(&config.BeastAddr, "beast-addr", "", "Beast binary TCP listen address (disabled if empty)")
	flags.StringVar(&config.AVRAddr, "avr-addr", "", "AVR ASCII TCP listen address (disabled if empty)")
	flags.StringVar(&config.SBSAddr, "sbs-addr", "", "BaseStation (SBS) TCP listen address (disabled if empty)")

	flags.StringVar(&config.AMQPURL, "amqp-url", "", "AMQP broker URL for snapshot fan-out (disabled if empty)")
	flags.StringVar(&config.AMQPExchange, "amqp-exchange", "go1090", "AMQP fanout exchange name")

	flags.StringVar(&config.NATSURL, "nats-url", "", "NATS server URL for remote operator control (disabled if empty)")
	flags.StringVar(&config.NATSSubject, "nats-subject", "go1090.control", "NATS subject for operator control commands")
	flags.IntVar(&config.ControlQueueSize, "control-queue-size", app.DefaultControlQueueSize, "Local operator command queue size")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package basestation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"go1090/internal/adsb"
	"go1090/internal/logging"
)

// BaseStation message types
const (
	SEL = "SEL" // Selection Change
	ID  = "ID"  // New ID
	AIR = "AIR" // New Aircraft
	STA = "STA" // Status Change
	CLK = "CLK" // Click
	MSG = "MSG" // Transmission
)

// BaseStation transmission types
const (
	TransmissionES_ID_CAT       = 1 // Extended Squitter Aircraft ID and Category
	TransmissionES_SURFACE      = 2 // Extended Squitter Surface Position
	TransmissionES_AIRBORNE     = 3 // Extended Squitter Airborne Position
	TransmissionES_VELOCITY     = 4 // Extended Squitter Airborne Velocity
	TransmissionSURVEILLANCE    = 5 // Surveillance Alt, Squawk change
	TransmissionSURVEILLANCE_ID = 6 // Surveillance ID change
	TransmissionAIR_TO_AIR      = 7 // Air-to-Air Message
	TransmissionALL_CALL        = 8 // All Call Reply
)

// Message represents a BaseStation format message
type Message struct {
	MessageType      string
	TransmissionType int
	SessionID        int
	AircraftID       int
	HexIdent         string
	FlightID         int
	DateGenerated    time.Time
	TimeGenerated    time.Time
	DateLogged       time.Time
	TimeLogged       time.Time
	Callsign         string
	Altitude         string
	GroundSpeed      string
	Track            string
	Latitude         string
	Longitude        string
	VerticalRate     string
	Squawk           string
	Alert            string
	Emergency        string
	SPI              string
	IsOnGround       string
}

// Writer writes decoded messages in BaseStation (SBS-1 CSV) format.
type Writer struct {
	logRotator *logging.LogRotator
	logger     *logrus.Logger
	sessionID  int
	aircraftID int
}

// NewWriter creates a new BaseStation writer
func NewWriter(logRotator *logging.LogRotator, logger *logrus.Logger) *Writer {
	return &Writer{
		logRotator: logRotator,
		logger:     logger,
		sessionID:  1,
		aircraftID: 1,
	}
}

// WriteMessage writes a decoded Mode S/ADS-B message in BaseStation
// format, reading every field off dm directly (§5.6) rather than
// re-parsing the raw frame bytes.
func (w *Writer) WriteMessage(dm *adsb.DecodedMessage) error {
	if dm == nil {
		return fmt.Errorf("message cannot be nil")
	}

	baseMsg := w.convertMessage(dm)
	if baseMsg == nil {
		// Message type not supported for BaseStation format
		return nil
	}

	csvLine := w.formatCSV(baseMsg)

	writer, err := w.logRotator.GetWriter()
	if err != nil {
		return fmt.Errorf("failed to get log writer: %w", err)
	}

	if _, err := writer.Write([]byte(csvLine + "\n")); err != nil {
		return fmt.Errorf("failed to write to log: %w", err)
	}

	return nil
}

// FormatMessage renders dm as a BaseStation CSV line without writing
// it anywhere, for callers that feed the line into their own sink
// (the SBS wire publisher, §5.6). Returns "" for message types
// BaseStation format doesn't cover.
func (w *Writer) FormatMessage(dm *adsb.DecodedMessage) string {
	baseMsg := w.convertMessage(dm)
	if baseMsg == nil {
		return ""
	}
	return w.formatCSV(baseMsg)
}

// convertMessage converts a decoded message to BaseStation format
func (w *Writer) convertMessage(dm *adsb.DecodedMessage) *Message {
	now := time.Now()

	baseMsg := &Message{
		MessageType:   MSG,
		SessionID:     w.sessionID,
		AircraftID:    w.aircraftID,
		FlightID:      w.aircraftID,
		HexIdent:      fmt.Sprintf("%06X", dm.ICAO),
		DateGenerated: dm.Raw.Timestamp,
		TimeGenerated: dm.Raw.Timestamp,
		DateLogged:    now,
		TimeLogged:    now,
	}

	switch dm.DF {
	case 0, 4, 5, 16, 20, 21:
		baseMsg.TransmissionType = TransmissionSURVEILLANCE

		if dm.Attrs.Has(adsb.HasAltitude) {
			baseMsg.Altitude = strconv.Itoa(dm.Altitude)
		}
		if dm.Attrs.Has(adsb.HasSquawk) {
			baseMsg.Squawk = dm.Squawk
		}

	case 11:
		baseMsg.TransmissionType = TransmissionALL_CALL

	case 17, 18, 19:
		switch {
		case dm.METype >= 1 && dm.METype <= 4:
			baseMsg.TransmissionType = TransmissionES_ID_CAT
			baseMsg.Callsign = dm.Callsign

		case dm.METype >= 5 && dm.METype <= 8:
			baseMsg.TransmissionType = TransmissionES_SURFACE
			if dm.Attrs.Has(adsb.HasPosition) {
				baseMsg.Latitude = fmt.Sprintf("%.6f", dm.Lat)
				baseMsg.Longitude = fmt.Sprintf("%.6f", dm.Lon)
			}

		case dm.METype >= 9 && dm.METype <= 18:
			baseMsg.TransmissionType = TransmissionES_AIRBORNE
			if dm.Attrs.Has(adsb.HasPosition) {
				baseMsg.Latitude = fmt.Sprintf("%.6f", dm.Lat)
				baseMsg.Longitude = fmt.Sprintf("%.6f", dm.Lon)
			}
			if dm.Attrs.Has(adsb.HasAltitude) {
				baseMsg.Altitude = strconv.Itoa(dm.Altitude)
			}

		case dm.METype == 19:
			baseMsg.TransmissionType = TransmissionES_VELOCITY
			if dm.Attrs.Has(adsb.HasVelocity) {
				baseMsg.GroundSpeed = strconv.Itoa(int(dm.GroundSpeed))
				baseMsg.Track = fmt.Sprintf("%.1f", dm.Track)
				baseMsg.VerticalRate = strconv.Itoa(dm.VerticalRate)
			}

		default:
			return nil
		}

	default:
		return nil
	}

	return baseMsg
}

// formatCSV formats a BaseStation message as CSV
func (w *Writer) formatCSV(msg *Message) string {
	fields := []string{
		msg.MessageType,
		strconv.Itoa(msg.TransmissionType),
		strconv.Itoa(msg.SessionID),
		strconv.Itoa(msg.AircraftID),
		msg.HexIdent,
		strconv.Itoa(msg.FlightID),
		msg.DateGenerated.Format("2006/01/02"),
		msg.TimeGenerated.Format("15:04:05.000"),
		msg.DateLogged.Format("2006/01/02"),
		msg.TimeLogged.Format("15:04:05.000"),
		msg.Callsign,
		msg.Altitude,
		msg.GroundSpeed,
		msg.Track,
		msg.Latitude,
		msg.Longitude,
		msg.VerticalRate,
		msg.Squawk,
		msg.Alert,
		msg.Emergency,
		msg.SPI,
		msg.IsOnGround,
	}

	return strings.Join(fields, ",")
}

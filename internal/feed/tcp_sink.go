package feed

import (
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// TCPSink accepts client connections on a listener and broadcasts
// every frame pulled off a Channel to all of them (§4.7/§5.6: Beast,
// AVR and SBS each run one of these over the same Decoded Message
// stream). A slow client is dropped rather than allowed to stall the
// broadcast loop.
type TCPSink struct {
	listener net.Listener
	channel  *Channel
	logger   *logrus.Logger

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	done  chan struct{}
}

// NewTCPSink starts listening on addr and begins accepting/broadcasting.
func NewTCPSink(addr string, channel *Channel, logger *logrus.Logger) (*TCPSink, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &TCPSink{
		listener: ln,
		channel:  channel,
		logger:   logger,
		conns:    make(map[net.Conn]struct{}),
		done:     make(chan struct{}),
	}

	go s.acceptLoop()
	go s.broadcastLoop()

	return s, nil
}

// Addr returns the listener's bound address (useful when addr was ":0").
func (s *TCPSink) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *TCPSink) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
	}
}

func (s *TCPSink) broadcastLoop() {
	for frame := range s.channel.C() {
		s.mu.Lock()
		for conn := range s.conns {
			conn.SetWriteDeadline(time.Now().Add(time.Second))
			if _, err := conn.Write(frame); err != nil {
				conn.Close()
				delete(s.conns, conn)
			}
		}
		s.mu.Unlock()
	}
	close(s.done)
}

// ClientCount reports the number of currently connected clients.
func (s *TCPSink) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Close stops accepting connections and closes every client socket.
// It does not close the underlying Channel, which may be shared.
func (s *TCPSink) Close() error {
	err := s.listener.Close()

	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
		delete(s.conns, conn)
	}
	s.mu.Unlock()

	return err
}

package feed

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestTCPSinkBroadcastsToClients(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	ch := NewChannel(8)
	sink, err := NewTCPSink("127.0.0.1:0", ch, logger)
	require.NoError(t, err)
	t.Cleanup(func() { sink.Close() })

	conn, err := net.Dial("tcp", sink.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return sink.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	ch.Push([]byte("*8D4840D6;\n"))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "*8D4840D6;\n", line)
}

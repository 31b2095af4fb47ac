package tcp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/ValentinKolb/dDict/rpc/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startServer starts a TCP server transport on a random loopback port
func startServer(t *testing.T, handler transport.ServerHandleFunc) common.ClusterMember {
	t.Helper()

	server := NewTCPServerTransport()
	server.RegisterHandler(handler)
	addr, err := server.Listen(common.ServerConfig{Endpoint: "127.0.0.1:0", TimeoutSecond: 5})
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })

	tcpAddr := addr.(*net.TCPAddr)
	return common.ClusterMember{Address: "127.0.0.1", Port: tcpAddr.Port}
}

// newClient creates a configured TCP client transport
func newClient(t *testing.T, timeoutSecond int) transport.IRPCClientTransport {
	t.Helper()
	client := NewTCPClientTransport()
	require.NoError(t, client.Configure(common.ClientConfig{
		Seed:          common.ClusterMember{Address: "127.0.0.1", Port: 1},
		TimeoutSecond: timeoutSecond,
		Transport:     common.ClientTransportConfig{TCPConf: common.TCPConf{TCPNoDelay: true}},
	}))
	return client
}

// readLine reads the newline terminated test request
func readLine(r io.Reader) string {
	line, _ := bufio.NewReader(r).ReadString('\n')
	return line
}

// TestRequestReadsUntilClose verifies that a response is read completely up to the close of the peer
func TestRequestReadsUntilClose(t *testing.T) {
	large := bytes.Repeat([]byte("0123456789"), 200*1024) // 2 MB
	member := startServer(t, func(req io.Reader) []byte {
		if readLine(req) != "large\n" {
			return []byte("unexpected")
		}
		return large
	})

	resp, err := newClient(t, 5).Request(context.Background(), member, []byte("large\n"))
	require.NoError(t, err)
	assert.Equal(t, len(large), len(resp))
	assert.True(t, bytes.Equal(large, resp))
}

// TestOneConnectionPerRequest verifies that consecutive requests do not share a connection
func TestOneConnectionPerRequest(t *testing.T) {
	var counter atomic.Int32
	member := startServer(t, func(req io.Reader) []byte {
		readLine(req)
		return []byte(strconv.Itoa(int(counter.Add(1))))
	})

	client := newClient(t, 5)
	for i := 1; i <= 3; i++ {
		resp, err := client.Request(context.Background(), member, []byte("count\n"))
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(i), string(resp))
	}
}

// TestConnectFailure verifies that an unreachable member yields a network error
func TestConnectFailure(t *testing.T) {
	// Reserve a port and release it again so nothing listens there
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	_, err = newClient(t, 1).Request(context.Background(), common.ClusterMember{Address: "127.0.0.1", Port: port}, []byte("x\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNetwork))
	assert.False(t, common.IsTimeout(err))
}

// TestUnresponsivePeerTimesOut verifies that the context deadline aborts a blocked read
func TestUnresponsivePeerTimesOut(t *testing.T) {
	release := make(chan struct{})
	member := startServer(t, func(req io.Reader) []byte {
		<-release
		return nil
	})
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := newClient(t, 5).Request(ctx, member, []byte("hang\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNetwork))
	assert.True(t, common.IsTimeout(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

// TestDroppedRequestYieldsEmptyResponse verifies that a peer closing without answer yields no bytes
func TestDroppedRequestYieldsEmptyResponse(t *testing.T) {
	member := startServer(t, func(req io.Reader) []byte {
		readLine(req)
		return nil
	})

	resp, err := newClient(t, 5).Request(context.Background(), member, []byte("drop\n"))
	require.NoError(t, err)
	assert.Empty(t, resp)
}

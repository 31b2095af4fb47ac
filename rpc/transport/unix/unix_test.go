package unix

import (
	"bufio"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUnixRoundTrip verifies a request over a unix domain socket
func TestUnixRoundTrip(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "ddict.sock")

	server := NewUnixServerTransport()
	server.RegisterHandler(func(req io.Reader) []byte {
		line, _ := bufio.NewReader(req).ReadString('\n')
		return []byte("echo:" + line)
	})
	_, err := server.Listen(common.ServerConfig{Endpoint: socketPath, TimeoutSecond: 5})
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })

	client := NewUnixClientTransport()
	require.NoError(t, client.Configure(common.ClientConfig{Seed: common.ClusterMember{Address: socketPath}}))
	assert.Equal(t, "unix", client.GetName())

	resp, err := client.Request(context.Background(), common.ClusterMember{Address: socketPath}, []byte("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, "echo:hello\n", string(resp))
}

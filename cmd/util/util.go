package util

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ValentinKolb/dDict/lib/dict"
	"github.com/ValentinKolb/dDict/lib/policy"
	"github.com/ValentinKolb/dDict/rpc/client"
	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/ValentinKolb/dDict/rpc/serializer"
	"github.com/ValentinKolb/dDict/rpc/transport"
	"github.com/ValentinKolb/dDict/rpc/transport/tcp"
	"github.com/ValentinKolb/dDict/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupRPCClientFlags adds common client flags to a command
func SetupRPCClientFlags(cmd *cobra.Command) {
	key := "endpoint"
	cmd.PersistentFlags().String(key, "localhost:5254", WrapString("The seed member of the cluster (host:port, or the socket path for the unix transport). All other members are learned from the cluster"))

	key = "timeout"
	cmd.PersistentFlags().Int(key, common.DefaultTimeoutSecond, WrapString("The connect and read timeout in seconds of every request"))

	key = "retries"
	cmd.PersistentFlags().Int(key, common.DefaultAppendRetryAttempts, WrapString("How many times a write is attempted before it is reported as failed"))

	key = "retry-backoff"
	cmd.PersistentFlags().Int(key, 0, WrapString("Pause before the second write attempt in milliseconds, doubled for every further attempt (0 = no pause)"))

	key = "max-hops"
	cmd.PersistentFlags().Int(key, 0, WrapString("How many redirects are followed per request (0 = max(5, cluster size))"))

	key = "refresh-policy"
	cmd.PersistentFlags().String(key, "always", WrapString("When reads refresh the local view: always, lock[:true|false], count:N or time:DURATION"))

	key = "config"
	cmd.PersistentFlags().String(key, "", WrapString("Optional YAML client configuration file. Flags that are set explicitly override values of the file"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("The log level (debug, info, warn, error)"))

	key = "transport-write-buffer"
	cmd.PersistentFlags().Int(key, 512, WrapString("The size of the socket write buffer (in KB)"))

	key = "transport-read-buffer"
	cmd.PersistentFlags().Int(key, 512, WrapString("The size of the socket read buffer (in KB)"))

	key = "transport-tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY (only for tcp)"))

	key = "transport-tcp-linger"
	cmd.PersistentFlags().Int(key, 0, WrapString("The linger time in seconds (only for tcp, 0 = system default)"))
}

// InitClientConfig initializes configuration from environment variables
func InitClientConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("ddict")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetClientConfig reads the client configuration from the optional YAML file and viper.
// Without a file all values come from flags (or their defaults); with a file only
// flags and environment variables that are set explicitly override the file.
func GetClientConfig() (*common.ClientConfig, error) {
	conf := &common.ClientConfig{}
	fromFile := false

	if path := viper.GetString("config"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
		if conf, err = common.ReadClientConfig(data); err != nil {
			return nil, err
		}
		fromFile = true
	}

	use := func(key string) bool {
		return !fromFile || viper.IsSet(key)
	}

	if use("endpoint") {
		seed, err := parseSeed(viper.GetString("endpoint"))
		if err != nil {
			return nil, err
		}
		conf.Seed = seed
	}
	if use("timeout") {
		conf.TimeoutSecond = viper.GetInt("timeout")
	}
	if use("retries") {
		conf.AppendRetryAttempts = viper.GetInt("retries")
	}
	if use("retry-backoff") {
		conf.RetryBackoffMs = viper.GetInt("retry-backoff")
	}
	if use("max-hops") {
		conf.MaxRedirectHops = viper.GetInt("max-hops")
	}
	if use("log-level") {
		conf.LogLevel = viper.GetString("log-level")
	}
	if use("transport-write-buffer") {
		conf.Transport.WriteBufferSize = viper.GetInt("transport-write-buffer") * 1024
	}
	if use("transport-read-buffer") {
		conf.Transport.ReadBufferSize = viper.GetInt("transport-read-buffer") * 1024
	}
	if use("transport-tcp-nodelay") {
		conf.Transport.TCPNoDelay = viper.GetBool("transport-tcp-nodelay")
	}
	if use("transport-tcp-linger") {
		conf.Transport.TCPLingerSec = viper.GetInt("transport-tcp-linger")
	}

	return conf, conf.Validate()
}

// parseSeed parses the endpoint flag for the configured transport
func parseSeed(endpoint string) (common.ClusterMember, error) {
	if viper.GetString("transport") == "unix" {
		return common.ClusterMember{Address: endpoint}, nil
	}
	return common.ParseClusterMember(endpoint)
}

// GetSerializer creates a serializer based on configuration
func GetSerializer() (serializer.IRPCSerializer, error) {
	switch viper.GetString("serializer") {
	case "msgpack":
		return serializer.NewMsgpackSerializer(), nil
	case "json":
		return serializer.NewJSONSerializer(), nil
	default:
		return nil, fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}
}

// GetTransport creates a client transport based on configuration
func GetTransport() (transport.IRPCClientTransport, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPClientTransport(), nil
	case "unix":
		return unix.NewUnixClientTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// GetServerTransport creates a server transport based on configuration
func GetServerTransport() (transport.IRPCServerTransport, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPServerTransport(), nil
	case "unix":
		return unix.NewUnixServerTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// GetRefreshPolicy creates the refresh policy based on configuration
func GetRefreshPolicy() (policy.IRefreshPolicy, error) {
	return policy.Parse(viper.GetString("refresh-policy"))
}

// NewDict creates a dict from the configuration of the command
func NewDict(ctx context.Context) (*dict.DistributedDict, error) {
	config, err := GetClientConfig()
	if err != nil {
		return nil, err
	}
	if err := common.InitLoggers(config.LogLevel); err != nil {
		return nil, err
	}
	s, err := GetSerializer()
	if err != nil {
		return nil, err
	}
	t, err := GetTransport()
	if err != nil {
		return nil, err
	}
	p, err := GetRefreshPolicy()
	if err != nil {
		return nil, err
	}
	return dict.NewDistributedDict(ctx, *config, t, s, p)
}

// NewRouter creates a cluster router from the configuration of the command
func NewRouter() (*client.ClusterRouter, error) {
	config, err := GetClientConfig()
	if err != nil {
		return nil, err
	}
	if err := common.InitLoggers(config.LogLevel); err != nil {
		return nil, err
	}
	s, err := GetSerializer()
	if err != nil {
		return nil, err
	}
	t, err := GetTransport()
	if err != nil {
		return nil, err
	}
	return client.NewClusterRouter(*config, t, s, nil)
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

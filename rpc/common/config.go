package common

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// --------------------------------------------------------------------------
// Defaults
// --------------------------------------------------------------------------

const (
	// DefaultAppendRetryAttempts is the number of append attempts of a single write
	DefaultAppendRetryAttempts = 3
	// DefaultMaxRedirectHops is the redirect bound used when none is configured
	// and the known cluster is smaller than this value
	DefaultMaxRedirectHops = 5
	// DefaultTimeoutSecond is the connect/read deadline used when none is configured
	DefaultTimeoutSecond = 10
)

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// SocketConf holds socket buffer settings
type SocketConf struct {
	WriteBufferSize int `yaml:"writeBufferSize"`
	ReadBufferSize  int `yaml:"readBufferSize"`
}

// TCPConf holds TCP specific settings
type TCPConf struct {
	TCPNoDelay   bool `yaml:"tcpNoDelay"`
	TCPLingerSec int  `yaml:"tcpLingerSec"`
}

// ClientTransportConfig holds the settings of the client transport
type ClientTransportConfig struct {
	SocketConf `yaml:",inline"`
	TCPConf    `yaml:",inline"`
}

// ClientConfig holds the configuration of one client instance
type ClientConfig struct {
	// Seed is the bootstrap member; membership is learned from snapshots afterward
	Seed ClusterMember `yaml:"seed"`

	// TimeoutSecond bounds connect and read of each round-trip (0 = DefaultTimeoutSecond)
	TimeoutSecond int `yaml:"timeout"`

	// AppendRetryAttempts is the number of append attempts per write (0 = DefaultAppendRetryAttempts)
	AppendRetryAttempts int `yaml:"appendRetryAttempts"`

	// RetryBackoffMs is the initial pause between append attempts, doubled every attempt (0 = no pause)
	RetryBackoffMs int `yaml:"retryBackoffMs"`

	// MaxRedirectHops bounds redirect following (0 = max(DefaultMaxRedirectHops, known cluster size))
	MaxRedirectHops int `yaml:"maxRedirectHops"`

	Transport ClientTransportConfig `yaml:"transport"`

	// Logging configuration
	LogLevel string `yaml:"logLevel"`
}

// Validate checks the configuration for values that can never work
func (c *ClientConfig) Validate() error {
	if c.Seed.Address == "" {
		return NewError(ErrCInvalidConfiguration, "no seed member provided", nil)
	}
	if c.TimeoutSecond < 0 {
		return NewError(ErrCInvalidConfiguration, "timeout must not be negative", nil)
	}
	if c.AppendRetryAttempts < 0 {
		return NewError(ErrCInvalidConfiguration, "append retry attempts must not be negative", nil)
	}
	if c.MaxRedirectHops < 0 {
		return NewError(ErrCInvalidConfiguration, "max redirect hops must not be negative", nil)
	}
	return nil
}

// Attempts returns the effective number of append attempts
func (c *ClientConfig) Attempts() int {
	if c.AppendRetryAttempts > 0 {
		return c.AppendRetryAttempts
	}
	return DefaultAppendRetryAttempts
}

// Timeout returns the effective timeout in seconds
func (c *ClientConfig) Timeout() int {
	if c.TimeoutSecond > 0 {
		return c.TimeoutSecond
	}
	return DefaultTimeoutSecond
}

// ReadClientConfig parses a YAML client configuration file
func ReadClientConfig(data []byte) (*ClientConfig, error) {
	if len(data) == 0 {
		return nil, NewError(ErrCInvalidConfiguration, "configuration is empty", nil)
	}
	conf := &ClientConfig{}
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, NewError(ErrCInvalidConfiguration, "invalid yaml configuration", err)
	}
	return conf, nil
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Seed", c.Seed.String())
	addField("Timeout", fmt.Sprintf("%d sec", c.Timeout()))
	addField("Append Attempts", strconv.Itoa(c.Attempts()))
	addField("Retry Backoff", fmt.Sprintf("%d ms", c.RetryBackoffMs))
	if c.MaxRedirectHops > 0 {
		addField("Max Redirect Hops", strconv.Itoa(c.MaxRedirectHops))
	} else {
		addField("Max Redirect Hops", "auto")
	}

	// Transport
	addSection("Transport")
	addField("TCP No Delay", strconv.FormatBool(c.Transport.TCPNoDelay))
	addField("TCP Linger", fmt.Sprintf("%d sec", c.Transport.TCPLingerSec))
	addField("Write Buffer", fmt.Sprintf("%d bytes", c.Transport.WriteBufferSize))
	addField("Read Buffer", fmt.Sprintf("%d bytes", c.Transport.ReadBufferSize))

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// Standalone server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds the configuration of the standalone server
type ServerConfig struct {
	// Endpoint is the address on which the server listens
	Endpoint string

	// Self is the member identity reported in snapshots
	Self ClusterMember

	// Members are the additional members reported in snapshots
	Members []ClusterMember

	// RedirectTo makes the server answer every request with a redirect to this member
	RedirectTo *ClusterMember

	// TimeoutSecond bounds reading a request and writing a response
	TimeoutSecond int64

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Standalone Server")
	addField("Endpoint", c.Endpoint)
	addField("Self", c.Self.String())
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	if c.RedirectTo != nil {
		addField("Redirect To", c.RedirectTo.String())
	}

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	addSection("Members")
	for i, m := range c.Members {
		addField(strconv.Itoa(i), m.String())
	}
	return sb.String()
}

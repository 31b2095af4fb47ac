package serve

import (
	"fmt"
	"net"
	"strings"

	cmdUtil "github.com/ValentinKolb/dDict/cmd/util"
	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/ValentinKolb/dDict/rpc/server"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:   "serve",
		Short: "Start a standalone dDict server",
		Long: `Start a standalone in-memory server speaking the dDict wire protocol, for local development and testing.
It does not replicate anything. Started with --redirect-to it acts as a follower that redirects every request to the given leader.
The configuration can be set via command line flags or environment variables. The format of the environment variables is DDICT_<flag> (e.g. DDICT_TIMEOUT=15)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(initConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:5254", cmdUtil.WrapString("The address on which the server will listen (e.g. localhost:5254, /tmp/ddict.sock, ...)"))

	key = "self"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("The address reported for this server in snapshots (host:port). Defaults to the endpoint, with 127.0.0.1 for unspecified hosts"))

	key = "members"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Comma-separated list of further members reported in snapshots (e.g. 'localhost:5255,localhost:5256')"))

	key = "redirect-to"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Run as follower and answer every request with a redirect to this leader (host:port)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Timeout in seconds for reading a request and writing the response"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	// parse self
	self, err := parseSelf(viper.GetString("self"), serveCmdConfig.Endpoint)
	if err != nil {
		return err
	}
	serveCmdConfig.Self = self

	// parse members
	serveCmdConfig.Members = nil
	if members := viper.GetString("members"); members != "" {
		for _, member := range strings.Split(members, ",") {
			m, err := common.ParseClusterMember(strings.TrimSpace(member))
			if err != nil {
				return err
			}
			serveCmdConfig.Members = append(serveCmdConfig.Members, m)
		}
	}

	// parse leader
	serveCmdConfig.RedirectTo = nil
	if leader := viper.GetString("redirect-to"); leader != "" {
		m, err := common.ParseClusterMember(leader)
		if err != nil {
			return err
		}
		serveCmdConfig.RedirectTo = &m
	}

	return common.InitLoggers(serveCmdConfig.LogLevel)
}

// parseSelf returns the explicit self address or derives it from the endpoint
func parseSelf(self, endpoint string) (common.ClusterMember, error) {
	if self != "" {
		return common.ParseClusterMember(self)
	}
	if viper.GetString("transport") == "unix" {
		return common.ClusterMember{Address: endpoint}, nil
	}

	m, err := common.ParseClusterMember(endpoint)
	if err != nil {
		return common.ClusterMember{}, fmt.Errorf("cannot derive self from endpoint: %w", err)
	}
	if ip := net.ParseIP(m.Address); m.Address == "" || (ip != nil && ip.IsUnspecified()) {
		m.Address = "127.0.0.1"
	}
	return m, nil
}

// run starts the standalone server
func run(_ *cobra.Command, _ []string) error {
	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}

	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	serv := server.NewServer(
		*serveCmdConfig,
		t,
		s,
	)

	return serv.Serve()
}

// initConfig reads in serveCmdConfig file and ENV variables if set.
func initConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("ddict")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

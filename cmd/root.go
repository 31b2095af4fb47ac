package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ValentinKolb/dDict/cmd/cluster"
	"github.com/ValentinKolb/dDict/cmd/dict"
	"github.com/ValentinKolb/dDict/cmd/serve"
	"github.com/ValentinKolb/dDict/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "ddict",
		Short: "client for replicated dictionaries",
		Long: fmt.Sprintf(`dDict (v%s)

A client for dictionaries replicated by a consensus cluster. Reads are served
from a locally cached snapshot refreshed according to a refresh policy, writes
are appended to the log of the leader, which is discovered through redirects.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dDict",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dDict v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(dict.DictCommands)
	RootCmd.AddCommand(cluster.ClusterCommands)
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "msgpack", util.WrapString("serializer to use (msgpack, json). Cluster members speak msgpack"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
// SIGINT and SIGTERM cancel the context of the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := RootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

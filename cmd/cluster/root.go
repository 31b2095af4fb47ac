package cluster

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ValentinKolb/dDict/cmd/util"
	"github.com/ValentinKolb/dDict/rpc/client"
	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/ValentinKolb/dDict/rpc/server"
	"github.com/spf13/cobra"
)

var (
	router *client.ClusterRouter

	// ClusterCommands represents the cluster command group
	ClusterCommands = &cobra.Command{
		Use:               "cluster",
		Short:             "Send administrative requests to the cluster leader",
		PersistentPreRunE: setupRouter,
	}

	diagnosticCmd = &cobra.Command{
		Use:   "diagnostic",
		Short: "Prints diagnostic information of the leader",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := router.Send(cmd.Context(), common.NewDiagnosticRequest())
			if err != nil {
				return err
			}
			return printPayload(resp.Payload)
		},
	}
	addCmd = &cobra.Command{
		Use:   "add [address] [port]",
		Short: "Adds a member to the cluster",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return configure(cmd, server.ConfigActionAdd, args)
		},
	}
	removeCmd = &cobra.Command{
		Use:   "remove [address] [port]",
		Short: "Removes a member from the cluster",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return configure(cmd, server.ConfigActionDelete, args)
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	util.SetupRPCClientFlags(ClusterCommands)

	ClusterCommands.AddCommand(diagnosticCmd)
	ClusterCommands.AddCommand(addCmd)
	ClusterCommands.AddCommand(removeCmd)
}

// setupRouter creates the router (no snapshot is fetched)
func setupRouter(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	router, err = util.NewRouter()
	return err
}

func configure(cmd *cobra.Command, action string, args []string) error {
	port, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("port must be a number: %w", err)
	}
	resp, err := router.Send(cmd.Context(), common.NewConfigRequest(action, args[0], port))
	if err != nil {
		return err
	}
	fmt.Printf("sent to leader %s\n", router.Leader())
	return printPayload(resp.Payload)
}

func printPayload(payload map[string]interface{}) error {
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

package dict

import (
	"github.com/ValentinKolb/dDict/cmd/util"
	"github.com/ValentinKolb/dDict/lib/dict"
	"github.com/spf13/cobra"
)

var (
	distDict *dict.DistributedDict

	// DictCommands represents the dict command group
	DictCommands = &cobra.Command{
		Use:               "dict",
		Short:             "Perform dictionary operations",
		PersistentPreRunE: setupDict,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common client flags to the dict command
	util.SetupRPCClientFlags(DictCommands)

	// Add subcommands
	DictCommands.AddCommand(setCmd)
	DictCommands.AddCommand(getCmd)
	DictCommands.AddCommand(delCmd)
	DictCommands.AddCommand(hasCmd)
	DictCommands.AddCommand(keysCmd)
	DictCommands.AddCommand(dumpCmd)
	DictCommands.AddCommand(statsCmd)
	DictCommands.AddCommand(perfTestCmd)
}

// setupDict creates the dict client (this fetches the first snapshot)
func setupDict(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	distDict, err = util.NewDict(cmd.Context())
	return err
}

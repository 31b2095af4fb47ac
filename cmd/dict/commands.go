package dict

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ValentinKolb/dDict/cmd/util"
	"github.com/ValentinKolb/dDict/rpc/common"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key",
		Long:  "Sets the value for a key. The value is sent as string unless --json is given",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value, err := parseValue(cmd, args[1])
			if err != nil {
				return err
			}
			res := distDict.Set(cmd.Context(), key, value)
			if !res.Success {
				return fmt.Errorf("set not committed after %d attempts (last error: %v)", res.Attempts, res.LastErr)
			}
			fmt.Println("set successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := distDict.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printValue(value)
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := distDict.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("delete not committed after %d attempts (last error: %v)", res.Attempts, res.LastErr)
			}
			fmt.Println("delete successfully")
			return nil
		},
	}
	hasCmd = &cobra.Command{
		Use:   "has [key]",
		Short: "Checks if a key exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := distDict.Has(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%t\n", args[0], found)
			return nil
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys",
		Short: "Lists all keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := distDict.Keys(cmd.Context())
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Println(k)
			}
			return nil
		},
	}
	dumpCmd = &cobra.Command{
		Use:   "dump",
		Short: "Prints all key value pairs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := distDict.Items(cmd.Context())
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")
			return writeItems(items, format)
		},
	}
	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Prints the client configuration, the known cluster and the client metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := util.GetClientConfig()
			if err != nil {
				return err
			}
			fmt.Println(config.String())

			fmt.Println("CLUSTER")
			fmt.Printf("  %-22s: %s\n", "Client ID", distDict.ID())
			fmt.Printf("  %-22s: %s\n", "Refresh Policy", distDict.Policy().Name())
			fmt.Printf("  %-22s: %s\n", "Leader", distDict.Leader())
			for i, m := range distDict.Members() {
				fmt.Printf("  %-22s: %s\n", fmt.Sprintf("Member %d", i), m)
			}

			fmt.Println()
			fmt.Println("METRICS")
			distDict.WritePrometheus(os.Stdout)
			return nil
		},
	}
)

func init() {
	setCmd.Flags().Bool("json", false, util.WrapString("Parse the value as JSON (numbers, lists, maps, ...)"))
	dumpCmd.Flags().String("format", "json", util.WrapString("Output format (json, yaml)"))
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// parseValue returns the raw string or, with --json, the decoded JSON value
func parseValue(cmd *cobra.Command, raw string) (interface{}, error) {
	asJSON, _ := cmd.Flags().GetBool("json")
	if !asJSON {
		return raw, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("value is not valid JSON: %w", err)
	}
	return common.NormalizeValue(value), nil
}

// printValue prints strings as they are and everything else as JSON
func printValue(value interface{}) error {
	if s, ok := value.(string); ok {
		fmt.Println(s)
		return nil
	}
	out, err := json.Marshal(value)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// writeItems writes all items to stdout in the given format
func writeItems(items map[string]interface{}, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(items); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("invalid format %s (expected json or yaml)", format)
	}
}

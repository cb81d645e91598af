package table

import (
	"github.com/okvlab/okv/cmd/util"
	"github.com/okvlab/okv/lib/service"
	"github.com/okvlab/okv/rpc/client"
	"github.com/spf13/cobra"
)

var (
	rpcTable service.ITable

	// TableCommands represents the table command group
	TableCommands = &cobra.Command{
		Use:               "table",
		Short:             "Perform ordered table operations",
		PersistentPreRunE: setupTableClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common RPC flags to the table command
	util.SetupRPCClientFlags(TableCommands)

	// Set default shard ID for table operations (different from lease default)
	TableCommands.PersistentFlags().Int("shard", 100, util.WrapString("ID of the shard to connect to"))

	// Add subcommands
	TableCommands.AddCommand(insertCmd)
	TableCommands.AddCommand(insertTTLCmd)
	TableCommands.AddCommand(insertIfAbsentCmd)
	TableCommands.AddCommand(getCmd)
	TableCommands.AddCommand(hasCmd)
	TableCommands.AddCommand(takeCmd)
	TableCommands.AddCommand(removeCmd)
	TableCommands.AddCommand(headCmd)
	TableCommands.AddCommand(tailCmd)
	TableCommands.AddCommand(nextCmd)
	TableCommands.AddCommand(prevCmd)
	TableCommands.AddCommand(lenCmd)
	TableCommands.AddCommand(scanCmd)
	TableCommands.AddCommand(reapCmd)
	TableCommands.AddCommand(perfTestCmd)
}

// setupTableClient initializes the RPC table client
func setupTableClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get client configuration components
	config := util.GetClientConfig()
	shardId := util.GetShardID()

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	// Create the table client
	rpcTable, err = client.NewRPCTable(
		shardId,
		*config,
		t,
		s,
	)

	return err
}

package lease

import (
	"encoding/hex"
	"fmt"
	"github.com/okvlab/okv/cmd/util"
	"github.com/okvlab/okv/lib/leasemgr"
	"github.com/okvlab/okv/rpc/client"
	"github.com/spf13/cobra"
)

var (
	rpcLeaseMgr leasemgr.ILeaseManager
	acquireTTL  uint64

	// LeaseCommands represents the lease command group
	LeaseCommands = &cobra.Command{
		Use:               "lease",
		Short:             "Perform lease operations",
		PersistentPreRunE: setupLeaseClient,
	}

	// acquireCmd represents the acquire command
	acquireCmd = &cobra.Command{
		Use:   "acquire [key]",
		Short: "Acquire a lease",
		Args:  cobra.ExactArgs(1),
		RunE:  runAcquire,
	}

	// releaseCmd represents the release command
	releaseCmd = &cobra.Command{
		Use:   "release [key] [ownerToken]",
		Short: "Release a previously acquired lease",
		Long:  "Release a lease using the key and owner token. The owner token is the hex string returned by the acquire command.",
		Args:  cobra.ExactArgs(2),
		RunE:  runRelease,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add subcommands to lease command
	LeaseCommands.AddCommand(acquireCmd)
	LeaseCommands.AddCommand(releaseCmd)

	// Add common RPC flags to the lease command
	util.SetupRPCClientFlags(LeaseCommands)

	// Set default shard ID for lease operations (different from the table default)
	LeaseCommands.PersistentFlags().Int("shard", 200, util.WrapString("ID of the shard to connect to"))

	// Add flags specific to acquire
	acquireCmd.Flags().Uint64Var(&acquireTTL, "ttl", 30, "Lease lifetime in clock ticks (0 for no expiry)")
}

// setupLeaseClient initializes the lease manager client
func setupLeaseClient(cmd *cobra.Command, _ []string) error {
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

	// Create the lease manager client
	rpcLeaseMgr, err = client.NewRPCLeaseMgr(
		shardId,
		*config,
		t,
		s,
	)

	return err
}

// runAcquire handles the acquire lease command
func runAcquire(cmd *cobra.Command, args []string) error {
	key := args[0]

	// Attempt to acquire the lease
	acquired, ownerToken, err := rpcLeaseMgr.AcquireLease(key, acquireTTL)

	if err != nil {
		return fmt.Errorf("failed to acquire lease: %v", err)
	}

	if !acquired {
		fmt.Printf("acquired=false\n")
		return nil
	}

	// Convert owner token to hex string for display
	ownerTokenHex := hex.EncodeToString(ownerToken)
	fmt.Printf("acquired=true, ownerToken=%s\n", ownerTokenHex)

	return nil
}

// runRelease handles the release lease command
func runRelease(_ *cobra.Command, args []string) error {
	key := args[0]
	ownerTokenHex := args[1]

	// Convert hex string owner token back to bytes
	ownerToken, err := hex.DecodeString(ownerTokenHex)
	if err != nil {
		return fmt.Errorf("invalid owner token format: %v", err)
	}

	// Attempt to release the lease
	released, err := rpcLeaseMgr.ReleaseLease(key, ownerToken)

	if err != nil {
		return fmt.Errorf("failed to release lease: %v", err)
	}

	fmt.Printf("released=%v\n", released)

	return nil
}

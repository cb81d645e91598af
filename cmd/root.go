package cmd

import (
	"fmt"
	"os"

	"github.com/okvlab/okv/cmd/lease"
	"github.com/okvlab/okv/cmd/serve"
	"github.com/okvlab/okv/cmd/table"
	"github.com/okvlab/okv/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.4.2"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "okv",
		Short: "insertion-ordered key-value table",
		Long: fmt.Sprintf(`okv (v%s)

An insertion-ordered key-value table written in Go, with key-based
cursors, TTL expiry and optional RAFT replication for linearizability
and fault tolerance.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of okv",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("okv v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(table.TableCommands)
	RootCmd.AddCommand(lease.LeaseCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "http", util.WrapString("transport to use (http, tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

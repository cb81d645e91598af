package table

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	scanLimit int

	insertCmd = &cobra.Command{
		Use:   "insert [key] [value]",
		Short: "Inserts a key-value pair at the tail of the table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			if err := rpcTable.Insert(key, []byte(value)); err != nil {
				return err
			} else {
				fmt.Println("insert successfully")
			}
			return nil
		},
	}
	insertTTLCmd = &cobra.Command{
		Use:   "insertTTL [key] [value] [ttl]",
		Short: "Inserts a key-value pair with a lifetime in clock ticks",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			ttl, err := strconv.ParseUint(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("ttl must be a number: %w", err)
			}
			if err := rpcTable.InsertTTL(key, []byte(value), ttl); err != nil {
				return err
			} else {
				fmt.Println("insertTTL successfully")
			}
			return nil
		},
	}
	insertIfAbsentCmd = &cobra.Command{
		Use:   "insertIfAbsent [key] [value] [ttl]",
		Short: "Inserts a key-value pair with a lifetime only if the key is absent",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			ttl, err := strconv.ParseUint(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("ttl must be a number: %w", err)
			}
			if err := rpcTable.InsertIfAbsent(key, []byte(value), ttl); err != nil {
				return err
			} else {
				fmt.Println("insertIfAbsent successfully")
			}
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if resp, ok, err := rpcTable.Get(key); err != nil {
				return err
			} else {
				fmt.Printf("key=%s, found=%v, resp=%s\n", key, ok, resp)
			}
			return nil
		},
	}
	hasCmd = &cobra.Command{
		Use:   "has [key]",
		Short: "Checks if a key is present",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if found, err := rpcTable.Has(key); err != nil {
				return err
			} else {
				fmt.Printf("key=%s, found=%t\n", key, found)
			}
			return nil
		},
	}
	takeCmd = &cobra.Command{
		Use:   "take [key]",
		Short: "Removes a key-value pair and prints its value and neighbor keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			removed, ok, err := rpcTable.Take(key)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Printf("key=%s, found=false\n", key)
				return nil
			}
			fmt.Printf("key=%s, found=true, value=%s\n", key, removed.Value)
			if removed.HasPrev {
				fmt.Printf("prev=%s\n", removed.Prev)
			} else {
				fmt.Println("prev=<none> (was head)")
			}
			if removed.HasNext {
				fmt.Printf("next=%s\n", removed.Next)
			} else {
				fmt.Println("next=<none> (was tail)")
			}
			return nil
		},
	}
	removeCmd = &cobra.Command{
		Use:   "remove [key]",
		Short: "Removes a key-value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := rpcTable.Remove(key); err != nil {
				return err
			} else {
				fmt.Println("remove successfully")
			}
			return nil
		},
	}
	headCmd = &cobra.Command{
		Use:   "head",
		Short: "Prints the oldest key in the table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if key, ok, err := rpcTable.Head(); err != nil {
				return err
			} else if !ok {
				fmt.Println("table is empty")
			} else {
				fmt.Printf("head=%s\n", key)
			}
			return nil
		},
	}
	tailCmd = &cobra.Command{
		Use:   "tail",
		Short: "Prints the newest key in the table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if key, ok, err := rpcTable.Tail(); err != nil {
				return err
			} else if !ok {
				fmt.Println("table is empty")
			} else {
				fmt.Printf("tail=%s\n", key)
			}
			return nil
		},
	}
	nextCmd = &cobra.Command{
		Use:   "next [key]",
		Short: "Prints the successor of a key in insertion order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if next, ok, err := rpcTable.Next(key); err != nil {
				return err
			} else if !ok {
				fmt.Printf("key=%s has no successor\n", key)
			} else {
				fmt.Printf("next=%s\n", next)
			}
			return nil
		},
	}
	prevCmd = &cobra.Command{
		Use:   "prev [key]",
		Short: "Prints the predecessor of a key in insertion order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if prev, ok, err := rpcTable.Prev(key); err != nil {
				return err
			} else if !ok {
				fmt.Printf("key=%s has no predecessor\n", key)
			} else {
				fmt.Printf("prev=%s\n", prev)
			}
			return nil
		},
	}
	lenCmd = &cobra.Command{
		Use:   "len",
		Short: "Prints the number of entries in the table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if n, err := rpcTable.Len(); err != nil {
				return err
			} else {
				fmt.Printf("len=%d\n", n)
			}
			return nil
		},
	}
	scanCmd = &cobra.Command{
		Use:   "scan [after]",
		Short: "Prints keys in insertion order, starting after the given key (omit to start at the head)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			after := ""
			if len(args) == 1 {
				after = args[0]
			}
			keys, more, err := rpcTable.Scan(after, scanLimit)
			if err != nil {
				return err
			}
			for _, key := range keys {
				fmt.Println(key)
			}
			fmt.Printf("returned=%d, more=%t\n", len(keys), more)
			return nil
		},
	}
	reapCmd = &cobra.Command{
		Use:   "reap",
		Short: "Removes all expired entries in a single sweep",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if reaped, err := rpcTable.Reap(); err != nil {
				return err
			} else {
				fmt.Printf("reaped=%d\n", reaped)
			}
			return nil
		},
	}
)

func init() {
	scanCmd.Flags().IntVar(&scanLimit, "limit", 10, "Maximum number of keys to return")
}

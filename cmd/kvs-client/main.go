// Command kvs-client is a thin CLI front-end over the client package.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wolfapple/kvs/client"
)

const defaultAddr = "127.0.0.1:4000"

func main() {
	if err := buildCLI().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildCLI() *cobra.Command {
	var addr string

	root := &cobra.Command{
		Use:     "kvs-client",
		Short:   "Talk to a kvs key-value store server",
		Version: "0.1.0",
	}
	root.PersistentFlags().StringVarP(&addr, "addr", "a", defaultAddr, "IP:PORT of the server")

	root.AddCommand(getCommand(&addr))
	root.AddCommand(setCommand(&addr))
	root.AddCommand(removeCommand(&addr))

	return root
}

func getCommand(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Get the string value of a given string key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Connect(*addr)
			if err != nil {
				return err
			}
			defer c.Close()

			value, ok, err := c.Get(args[0])
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Key not found")
				return nil
			}
			fmt.Println(value)
			return nil
		},
	}
}

func setCommand(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set the value of a string key to a string",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Connect(*addr)
			if err != nil {
				return err
			}
			defer c.Close()
			return c.Set(args[0], args[1])
		},
	}
}

func removeCommand(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rm KEY",
		Short: "Remove a given string key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Connect(*addr)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Remove(args[0]); err != nil {
				if errors.Is(err, client.ErrKeyNotFound) {
					fmt.Println("Key not found")
					os.Exit(1)
				}
				return err
			}
			return nil
		},
	}
}

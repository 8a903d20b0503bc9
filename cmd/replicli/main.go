// cmd/replicli is the CLI client built with Cobra.
//
// Usage:
//
//	replicli append "hello world" --w 2   --server http://localhost:5000
//	replicli list                         --server http://localhost:5000
//	replicli full                         --server http://localhost:5000
//	replicli clear                        --server http://localhost:5000
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"replicated-log/internal/transport"
)

var (
	serverAddr string
	timeout    time.Duration
)

func main() {
	root := &cobra.Command{
		Use:   "replicli",
		Short: "CLI client for the replicated log",
	}

	root.PersistentFlags().StringVarP(&serverAddr, "server", "s",
		"http://localhost:5000", "Log server address")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second,
		"HTTP request timeout")

	root.AddCommand(appendCmd(), listCmd(), fullCmd(), clearCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ─── append ───────────────────────────────────────────────────────────────────

func appendCmd() *cobra.Command {
	var w int
	cmd := &cobra.Command{
		Use:   "append <message>",
		Short: "Append a message, waiting for w acknowledgements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := transport.New(serverAddr, timeout)
			resp, err := c.Append(context.Background(), args[0], w)
			if err != nil {
				return err
			}
			prettyPrint(resp)
			return nil
		},
	}
	cmd.Flags().IntVar(&w, "w", 1, "Write concern: number of replicas (including the Master) to acknowledge before returning")
	return cmd
}

// ─── list ─────────────────────────────────────────────────────────────────────

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List delivered message payloads in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := transport.New(serverAddr, timeout)
			msgs, err := c.List(context.Background())
			if err != nil {
				return err
			}
			prettyPrint(msgs)
			return nil
		},
	}
}

// ─── full ─────────────────────────────────────────────────────────────────────

func fullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "full",
		Short: "List full log entries (id, order, message) in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := transport.New(serverAddr, timeout)
			entries, err := c.FullMessages(context.Background())
			if err != nil {
				return err
			}
			prettyPrint(entries)
			return nil
		},
	}
}

// ─── clear ────────────────────────────────────────────────────────────────────

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Wipe the log (test-only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := transport.New(serverAddr, timeout)
			if err := c.Clear(context.Background()); err != nil {
				return err
			}
			fmt.Println("cleared")
			return nil
		},
	}
}

// ─── helpers ──────────────────────────────────────────────────────────────────

func prettyPrint(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(data))
}

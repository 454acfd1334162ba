// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/parley-tui/internal/devserver"
	"github.com/jeranaias/parley-tui/internal/logging"
)

// DefaultDevServerAddr matches the default API base URL.
const DefaultDevServerAddr = "localhost:8000"

func newDevServerCommand(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run an in-memory parley server for local use",
		Long: fmt.Sprintf(`Run an in-memory parley server. Accounts and conversations are lost
when it stops. Replies echo the message back.

The API is served under %s.`, devserver.Prefix),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := root.logLevel
			if level == "" {
				level = "info"
			}
			log := logging.Console(os.Stderr, level)
			fmt.Fprintf(cmd.OutOrStdout(), "%s http://%s%s\n", SuccessStyle.Render("serving"), addr, devserver.Prefix)
			return devserver.New().WithLogger(log).ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", DefaultDevServerAddr, "listen address")
	return cmd
}

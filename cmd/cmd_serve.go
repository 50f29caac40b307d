// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/rotasmart/rotasmart/adjust"
	"github.com/rotasmart/rotasmart/learning"
)

var serveOpts struct {
	session string
	addr    string
	out     string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the manual adjustment API over a processed session (local only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		session, err := adjust.LoadSession(serveOpts.session)
		if err != nil {
			return err
		}

		repo, closeStore, err := openLearningStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		out := serveOpts.out
		if out == "" {
			out = defaultOutput(serveOpts.session, "_stops.xlsx")
		}

		server := adjust.NewServer(session, learning.NewCache(repo), serveOpts.session, out)

		log.Printf("%s", session.Summary)
		log.Printf("serving %d stops on http://%s", len(session.Stops), serveOpts.addr)

		if err := server.Run(serveOpts.addr); err != nil {
			return fmt.Errorf("running server: %w", err)
		}

		return nil
	},
}

func init() {
	flags := serveCmd.Flags()

	flags.StringVar(&serveOpts.session,
		"session",
		"",
		"Session saved by the process command",
	)
	flags.StringVar(&serveOpts.addr,
		"addr",
		"localhost:8080",
		"Address to listen on",
	)
	flags.StringVarP(&serveOpts.out,
		"out",
		"o",
		"",
		"Where POST /api/export writes the stops (defaults next to the session)",
	)

	if err := serveCmd.MarkFlagRequired("session"); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(serveCmd)
}

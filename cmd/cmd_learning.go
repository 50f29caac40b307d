// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/rotasmart/rotasmart/learning"
	"github.com/rotasmart/rotasmart/spatial"
)

const learnedFile = "learned_locations.json"

var learningCmd = &cobra.Command{
	Use:   "learning",
	Short: "Inspect and maintain the learned locations",
}

var learningGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the learned coordinate of a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeStore, err := openLearningStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		e, ok := learning.NewCache(repo).Load(cmd.Context(), args[0])
		if !ok {
			return fmt.Errorf("no learned location for %q", args[0])
		}

		return json.NewEncoder(os.Stdout).Encode(e)
	},
}

var learningSetCmd = &cobra.Command{
	Use:   "set <key> <lat> <lng>",
	Short: "Learn a coordinate for a key",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, ok := spatial.ParsePoint(args[1], args[2])
		if !ok {
			return fmt.Errorf("invalid coordinate %s,%s", args[1], args[2])
		}

		repo, closeStore, err := openLearningStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		if err := learning.NewCache(repo).Save(cmd.Context(), args[0], p.Lat, p.Lng); err != nil {
			return err
		}

		log.Printf("learned %s at %s,%s", args[0], spatial.FormatCoordinate(p.Lat), spatial.FormatCoordinate(p.Lng))

		return nil
	},
}

var learningListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every learned location, one per line",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		repo, closeStore, err := openLearningStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		entries, err := repo.All(cmd.Context())
		if err != nil {
			return err
		}

		for _, key := range slices.Sorted(maps.Keys(entries)) {
			e := entries[key]
			fmt.Printf("%s\t%s,%s\t%s\n", key,
				spatial.FormatCoordinate(e.Lat), spatial.FormatCoordinate(e.Lng),
				e.UpdatedAt.Format("2006-01-02 15:04:05"))
		}

		return nil
	},
}

var learningStoreCmd = &cobra.Command{
	Use:   "store [file]",
	Short: "Export the learned locations to a JSON file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := learnedFile
		if len(args) == 1 {
			path = args[0]
		}

		repo, closeStore, err := openLearningStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		n, err := learning.ExportToJSON(cmd.Context(), repo, path)
		if err != nil {
			return fmt.Errorf("exporting learned locations: %w", err)
		}

		log.Printf("stored %d learned locations in %s", n, path)

		return nil
	},
}

var learningLoadCmd = &cobra.Command{
	Use:   "load [file]",
	Short: "Import learned locations from a JSON file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := learnedFile
		if len(args) == 1 {
			path = args[0]
		}

		repo, closeStore, err := openLearningStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closeStore()

		n, err := learning.ImportFromJSON(cmd.Context(), repo, path)
		if err != nil {
			return fmt.Errorf("importing learned locations: %w", err)
		}

		log.Printf("loaded %d learned locations from %s", n, path)

		return nil
	},
}

func init() {
	learningCmd.PersistentFlags().String("store", "", "Learned location backend: file, memory, duckdb or postgres")
	learningCmd.PersistentFlags().String("path", "", "File or DuckDB database of the learned locations")
	bindFlag(learningCmd.PersistentFlags(), keyLearningStore, "store")
	bindFlag(learningCmd.PersistentFlags(), keyLearningPath, "path")

	learningCmd.AddCommand(learningGetCmd)
	learningCmd.AddCommand(learningSetCmd)
	learningCmd.AddCommand(learningListCmd)
	learningCmd.AddCommand(learningStoreCmd)
	learningCmd.AddCommand(learningLoadCmd)
	rootCmd.AddCommand(learningCmd)
}

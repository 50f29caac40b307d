// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/rotasmart/rotasmart/adjust"
	"github.com/rotasmart/rotasmart/geocoding"
	"github.com/rotasmart/rotasmart/ingest"
	"github.com/rotasmart/rotasmart/learning"
	"github.com/rotasmart/rotasmart/reconcile"
)

type processOptions struct {
	out       string
	session   string
	noGeocode bool
}

var processOpts processOptions

var processCmd = &cobra.Command{
	Use:   "process <spreadsheet>",
	Short: "Reconciles and groups the orders of a spreadsheet",
	Long: `
Reads an .xlsx or .csv spreadsheet of orders, validates each address against
the learned locations, the sheet coordinates and the geocoder, and groups the
orders into stops. The stops are exported and the run is saved as a session
that "serve" can open for manual adjustment.
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd, args[0], processOpts)
	},
}

func defaultOutput(input, suffix string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + suffix
}

func runProcess(cmd *cobra.Command, input string, opts processOptions) error {
	ctx := cmd.Context()

	sheet, err := ingest.ReadFile(input)
	if err != nil {
		return err
	}

	rows, err := sheet.OrderRows()
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}

	log.Printf("read %d orders from %s", len(rows), input)

	var geocoder geocoding.Geocoder
	if !opts.noGeocode {
		geocoder, err = geocoding.New(ctx, geocoderConfig())
		if err != nil {
			return fmt.Errorf("creating geocoder: %w", err)
		}
	}

	repo, closeStore, err := openLearningStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	ropts := reconcileOptions()
	reconciler := reconcile.New(geocoder, learning.NewCache(repo), ropts)

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(len(rows),
			progressbar.OptionSetDescription("Reconciling"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	reconciled, err := reconciler.ReconcileAll(ctx, rows, func(p reconcile.Progress) {
		if bar != nil {
			_ = bar.Set(p.Done)
		}
	})
	if err != nil {
		return err
	}

	if bar != nil {
		_ = bar.Finish()
	}

	session := adjust.NewSession(reconciled, reconciler.Options().DistanceThreshold)

	log.Printf("%s", session.Summary)

	for _, cluster := range session.Nearby {
		addrs := make([]string, len(cluster))
		for i, idx := range cluster {
			addrs[i] = session.Stops[idx].Address
		}

		log.Printf("stops within %.0fm of each other: %s", session.Threshold, strings.Join(addrs, " | "))
	}

	out := opts.out
	if out == "" {
		out = defaultOutput(input, "_stops.xlsx")
	}

	if err := session.Export(out); err != nil {
		return fmt.Errorf("exporting stops: %w", err)
	}

	log.Printf("wrote %d stops to %s", len(session.Stops), out)

	path := opts.session
	if path == "" {
		path = defaultOutput(input, "_session.json")
	}

	if err := session.Save(path); err != nil {
		return err
	}

	log.Printf("saved session to %s", path)

	return nil
}

func init() {
	flags := processCmd.Flags()

	flags.StringVarP(&processOpts.out,
		"out",
		"o",
		"",
		"Where to write the stops (.xlsx or .csv, defaults to <input>_stops.xlsx)",
	)
	flags.StringVar(&processOpts.session,
		"session",
		"",
		"Where to save the session for manual adjustment (defaults to <input>_session.json)",
	)
	flags.BoolVar(&processOpts.noGeocode,
		"no-geocode",
		false,
		"Skip the geocoder and rely on learned locations and sheet coordinates",
	)
	flags.String("provider", "", "Geocoding provider: locationiq, nominatim or google")
	flags.Float64("threshold", 0, "Distance in meters under which the sheet and the geocoder agree")
	flags.Int("workers", 0, "Rows geocoded concurrently within a batch")
	flags.Bool("trace-http", false, "Log geocoder HTTP traffic to stderr")

	bindFlag(flags, keyProvider, "provider")
	bindFlag(flags, keyThreshold, "threshold")
	bindFlag(flags, keyWorkers, "workers")
	bindFlag(flags, keyTraceHTTP, "trace-http")

	rootCmd.AddCommand(processCmd)
}

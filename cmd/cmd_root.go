// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var rootCmd = &cobra.Command{
	Use:   "rotasmart",
	Short: "turns delivery spreadsheets into geolocated stops",
	Long: `
rotasmart reads a spreadsheet of delivery orders, reconciles the coordinates
of each address against a geocoder and the coordinates already in the sheet,
and groups the orders into unique stops. Locations corrected by hand are
remembered for the next runs.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initConfig()
	},
}

var (
	Version    = "dev"
	configFile string
)

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./rotasmart.yaml)")

	setDefaults(viper.GetViper())
}

// initConfig loads .env, the environment (ROTASMART_*) and the optional
// config file into viper.
func initConfig() error {
	_ = godotenv.Load() // ignore missing file

	viper.SetEnvPrefix("ROTASMART")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("rotasmart")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}

		return nil
	}

	log.Printf("using config file %s", viper.ConfigFileUsed())

	return nil
}

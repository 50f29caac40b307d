// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/rotasmart/rotasmart/address"
)

// we say that it isn't.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}

	return (info.Mode() & os.ModeCharDevice) != 0
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

type addressAnalysis struct {
	Signature            string `json:"signature"`
	Street               string `json:"street"`
	Complement           string `json:"complement,omitempty"`
	NormalizedComplement string `json:"normalized_complement,omitempty"`
	HouseNumber          string `json:"house_number,omitempty"`
	BlockAndLot          bool   `json:"block_and_lot"`
}

func analyzeAddress(addr string) addressAnalysis {
	complement := address.ExtractComplement(addr)

	return addressAnalysis{
		Signature:            address.ExtractNormalizedStreetAndNumber(addr),
		Street:               address.StreetAndNumber(addr),
		Complement:           complement,
		NormalizedComplement: address.NormalizeComplement(complement),
		HouseNumber:          address.HouseNumber(addr),
		BlockAndLot:          address.IsBlockAndLot(addr),
	}
}

var debugAddressCmd = &cobra.Command{
	Use:   "address",
	Short: "Show how addresses are normalized for grouping",
	Long: `Reads one address per line and prints it followed by the signature used to
group orders into stops, the complement and whether it is a block-and-lot address.

$ echo "Rua Exemplo, 123, Apto 4" | rotasmart debug address
Rua Exemplo, 123, Apto 4	{"signature":"rua exemplo 123","street":"Rua Exemplo, 123",…}
	`,
	Run: func(_ *cobra.Command, _ []string) {
		input := os.Stdin
		if isTerminal(input) {
			fmt.Fprintln(os.Stderr, "Enter addresses to analyze, one per line…")
		}

		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			addr := scanner.Text()
			if s, err := json.Marshal(analyzeAddress(addr)); err == nil {
				fmt.Printf("%s\t%s\n", addr, s)
			} else {
				log.Fatal(err)
			}
		}

		if err := scanner.Err(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input: %s\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugAddressCmd)
}

// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/rotasmart/rotasmart/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}

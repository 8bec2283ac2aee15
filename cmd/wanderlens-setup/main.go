// Copyright (C) 2026 WanderLens Labs (oss@wanderlens.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"os"
)

func main() {
	// Cobra handles parsing the arguments; errors are already printed
	// by the command layer.
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

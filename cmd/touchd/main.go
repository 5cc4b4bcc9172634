// SPDX-License-Identifier: Unlicense OR MIT

// Command touchd replays touch scripts through the tap recognizers,
// renders their contact paths and serves recognized gestures over
// websockets.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

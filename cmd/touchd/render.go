// SPDX-License-Identifier: Unlicense OR MIT

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"touchio.org/trace"
)

func newRenderCmd(e *env) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "render script.json",
		Short: "Render the contact paths of a script as PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			res, err := replayFile(e, path)
			if err != nil {
				return err
			}
			if output == "" {
				output = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".png"
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := trace.Render(f, res); err != nil {
				f.Close()
				return fmt.Errorf("render %s: %w", path, err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			e.log.WithField("output", output).Info("rendered")
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <script>.png)")
	return cmd
}

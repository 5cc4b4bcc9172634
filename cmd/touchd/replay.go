// SPDX-License-Identifier: Unlicense OR MIT

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"touchio.org/trace"
)

type replayRecord struct {
	Target  string  `json:"target"`
	Session uint32  `json:"session"`
	Type    string  `json:"type"`
	X       float32 `json:"x"`
	Y       float32 `json:"y"`
	TimeMS  float64 `json:"time_ms"`
}

type replayReport struct {
	Script     string           `json:"script"`
	Records    []replayRecord   `json:"records"`
	Mismatches []trace.Mismatch `json:"mismatches,omitempty"`
}

func newReplayCmd(e *env) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "replay script.json...",
		Short: "Replay scripts and check their expectations",
		Long:  `Replays every script on a virtual clock and prints the gesture events reported. Fails if an expectation does not hold.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed error
			for _, path := range args {
				res, err := replayFile(e, path)
				if err != nil {
					return err
				}
				if asJSON {
					err = printReport(cmd.OutOrStdout(), res)
				} else {
					printRecords(cmd.OutOrStdout(), path, res)
				}
				if err != nil {
					return err
				}
				if err := res.Err(); err != nil {
					e.log.WithField("script", path).Error("expectations failed")
					if failed == nil {
						failed = err
					}
				}
			}
			return failed
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the events as JSON")
	return cmd
}

func replayFile(e *env, path string) (trace.Result, error) {
	s, err := trace.ReadFile(path)
	if err != nil {
		return trace.Result{}, err
	}
	if s.Name == "" {
		s.Name = path
	}
	res, err := trace.Replay(s, e.cfg.Gesture)
	if err != nil {
		return res, err
	}
	e.log.WithFields(logrus.Fields{
		"script":  path,
		"events":  len(res.Records),
		"elapsed": res.Elapsed,
	}).Info("replayed")
	return res, nil
}

func printRecords(w io.Writer, path string, res trace.Result) {
	fmt.Fprintf(w, "# %s\n", path)
	for _, r := range res.Records {
		fmt.Fprintf(w, "%8v  %-12s %3d  %s\n", r.Event.Time, r.Target, r.Event.Session, r.Event.Type)
	}
	for _, m := range res.Mismatches {
		fmt.Fprintf(w, "MISMATCH step %d target %s: want %v, got %v\n", m.Step, m.Target, m.Want, m.Got)
	}
}

func printReport(w io.Writer, res trace.Result) error {
	rep := replayReport{Script: res.Script, Mismatches: res.Mismatches}
	for _, r := range res.Records {
		rep.Records = append(rep.Records, replayRecord{
			Target:  r.Target,
			Session: r.Event.Session,
			Type:    r.Event.Type.String(),
			X:       r.Event.Position.X,
			Y:       r.Event.Position.Y,
			TimeMS:  float64(r.Event.Time) / float64(time.Millisecond),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/pipeline"
)

var watchFormat string

// debounce window for editors that write files in several bursts
const watchSettle = 250 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch <input> <output>",
	Short: "Re-convert a screenplay whenever the source changes",
	Long: `Watch a screenplay source file and re-run the conversion every time it
is written. Stops on Ctrl+C.

Example:
  goscreenwriter watch script.fountain script.pdf --format pdf`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		l := applog.WithComponent("cli")
		target, err := targetFromFormat(watchFormat)
		if err != nil {
			return err
		}
		input, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		w, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer w.Close()
		// watch the directory; editors often replace the file, which would
		// drop a watch registered on the file itself
		if err := w.Add(filepath.Dir(input)); err != nil {
			return err
		}

		run := func() {
			op := newConsoleOperation(cmd.Context())
			ps, err := pipeline.Convert(input, args[1], target, op)
			if err != nil {
				l.Error("convert failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				return
			}
			fmt.Printf("Wrote %s (%d elements)\n", args[1], len(ps.Elements))
		}
		run()
		fmt.Printf("Watching %s\n", input)

		var timer *time.Timer
		pending := make(chan struct{}, 1)
		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(ev.Name) != input {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(watchSettle, func() {
					select {
					case pending <- struct{}{}:
					default:
					}
				})
			case <-pending:
				run()
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				l.Warn("watch error", slog.Any("err", err))
			}
		}
	},
}

func init() {
	watchCmd.Flags().StringVarP(&watchFormat, "format", "f", "bundle", "output format: bundle, archive or pdf")
}

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

	"github.com/spf13/cobra"

	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/pipeline"
	"goscreenwriter/internal/telemetry"
)

var convertFormat string

var convertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "Convert a screenplay to another format",
	Long: `Parse a screenplay and write it out in a different format.

Examples:
  goscreenwriter convert script.fdx script.textbundle
  goscreenwriter convert script.fountain script.textpack --format archive
  goscreenwriter convert script.fountain script.pdf --format pdf`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		l := applog.WithComponent("cli")
		target, err := targetFromFormat(convertFormat)
		if err != nil {
			return err
		}
		op := newConsoleOperation(cmd.Context())

		ps, err := pipeline.Convert(args[0], args[1], target, op)
		if err != nil {
			l.Error("convert failed",
				slog.String("input", args[0]),
				slog.String("output", args[1]),
				slog.Any("err", err))
			return err
		}
		telemetry.Event("convert.completed", map[string]any{
			"elements": len(ps.Elements),
			"target":   string(target),
		})
		fmt.Printf("Wrote %s (%d elements)\n", args[1], len(ps.Elements))
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVarP(&convertFormat, "format", "f", "bundle", "output format: bundle, archive or pdf")
}

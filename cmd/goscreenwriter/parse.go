/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/pipeline"
	"goscreenwriter/internal/screenplay"
	"goscreenwriter/internal/storage"
	"goscreenwriter/internal/telemetry"
)

var (
	parseJSON bool
	parseSave bool
)

var parseCmd = &cobra.Command{
	Use:   "parse <input>",
	Short: "Parse a screenplay and print a summary",
	Long: `Parse a Fountain, FDX or Highland/TextBundle file into the canonical
element model.

Examples:
  goscreenwriter parse script.fountain
  goscreenwriter parse script.fdx --json
  goscreenwriter parse draft.highland --save`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l := applog.WithComponent("cli")
		op := newConsoleOperation(cmd.Context())

		ps, err := pipeline.Parse(args[0], op)
		if err != nil {
			l.Error("parse failed", slog.String("input", args[0]), slog.Any("err", err))
			return err
		}
		telemetry.Event("parse.completed", map[string]any{"elements": len(ps.Elements)})

		if parseJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(ps)
		}

		printSummary(ps)

		if parseSave {
			st, err := storage.Open(libraryRoot)
			if err != nil {
				return err
			}
			defer st.Close()
			id, err := st.SaveScreenplay(cmd.Context(), ps, ps.TitleOrDefault())
			if err != nil {
				return err
			}
			fmt.Printf("Saved to library as %s\n", id)
		}
		return nil
	},
}

func printSummary(ps *screenplay.ParsedScreenplay) {
	counts := map[screenplay.ElementType]int{}
	chapters := 0
	for _, e := range ps.Elements {
		counts[e.Type]++
		if e.Type == screenplay.SectionHeading && e.SectionLevel == 2 {
			chapters++
		}
	}
	fmt.Printf("Title:    %s\n", ps.TitleOrDefault())
	fmt.Printf("Elements: %d\n", len(ps.Elements))
	fmt.Printf("Chapters: %d\n", chapters)
	fmt.Printf("Scenes:   %d\n", counts[screenplay.SceneHeading])
	fmt.Printf("Dialogue: %d\n", counts[screenplay.Dialogue])
}

func init() {
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "print the parsed screenplay as JSON")
	parseCmd.Flags().BoolVar(&parseSave, "save", false, "save the screenplay into the local library")
}

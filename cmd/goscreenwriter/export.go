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
	"goscreenwriter/internal/storage"
	"goscreenwriter/internal/telemetry"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export <screenplay-id> <output>",
	Short: "Export a screenplay from the local library",
	Long: `Load a screenplay stored in the local library and write it out.
Use "goscreenwriter list" to see stored screenplay IDs.

Examples:
  goscreenwriter export 6f1b6e2a script.textbundle
  goscreenwriter export 6f1b6e2a script.pdf --format pdf`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		l := applog.WithComponent("cli")
		target, err := targetFromFormat(exportFormat)
		if err != nil {
			return err
		}

		st, err := storage.Open(libraryRoot)
		if err != nil {
			return err
		}
		defer st.Close()

		ps, err := st.LoadScreenplay(cmd.Context(), args[0])
		if err != nil {
			l.Error("load failed", slog.String("id", args[0]), slog.Any("err", err))
			return err
		}

		op := newConsoleOperation(cmd.Context())
		if err := pipeline.Export(ps, args[1], target, op); err != nil {
			l.Error("export failed", slog.String("output", args[1]), slog.Any("err", err))
			return err
		}
		telemetry.Event("export.completed", map[string]any{"target": string(target)})
		fmt.Printf("Wrote %s\n", args[1])
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List screenplays in the local library",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := storage.Open(libraryRoot)
		if err != nil {
			return err
		}
		defer st.Close()

		recs, err := st.ListScreenplays(cmd.Context())
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("Library is empty.")
			return nil
		}
		for _, r := range recs {
			fmt.Printf("%s  %-40s  %4d elements  %s\n", r.ID, r.Title, r.Elements, r.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "bundle", "output format: bundle, archive or pdf")
}

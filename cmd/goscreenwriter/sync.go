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

	"goscreenwriter/internal/backend"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/storage"
	"goscreenwriter/internal/telemetry"
)

var syncAll bool

var syncCmd = &cobra.Command{
	Use:   "sync [screenplay-id]",
	Short: "Mirror library screenplays to the Postgres backend",
	Long: `Push screenplays from the local library into the shared Postgres
backend so they can be searched with "search --pg". The embedded library
stays the source of truth; syncing replaces the mirrored copy.

Examples:
  goscreenwriter sync 6f1b6e2a
  goscreenwriter sync --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l := applog.WithComponent("cli")
		if len(args) == 0 && !syncAll {
			return fmt.Errorf("need a screenplay ID or --all")
		}

		st, err := storage.Open(libraryRoot)
		if err != nil {
			return err
		}
		defer st.Close()

		bcfg := backend.ConfigFromEnv()
		if cfg.Backend.DSN != "" {
			bcfg.DBURL = cfg.Backend.DSN
		}
		db, err := backend.Open(cmd.Context(), bcfg)
		if err != nil {
			l.Error("backend connect failed", slog.Any("err", err))
			return err
		}
		defer db.Close()

		var recs []storage.Record
		if syncAll {
			if recs, err = st.ListScreenplays(cmd.Context()); err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Println("Library is empty.")
				return nil
			}
		} else {
			recs = []storage.Record{{ID: args[0]}}
		}

		for _, r := range recs {
			ps, err := st.LoadScreenplay(cmd.Context(), r.ID)
			if err != nil {
				return err
			}
			title := r.Title
			if title == "" {
				title = ps.TitleOrDefault()
			}
			if err := backend.SyncScreenplay(cmd.Context(), db, r.ID, title, ps); err != nil {
				l.Error("sync failed", slog.String("id", r.ID), slog.Any("err", err))
				return err
			}
			fmt.Printf("Synced %s  %s\n", r.ID, title)
		}
		telemetry.Event("sync.completed", map[string]any{"screenplays": len(recs)})
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncAll, "all", false, "sync every screenplay in the library")
}

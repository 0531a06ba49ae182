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
	"goscreenwriter/internal/screenplay"
	"goscreenwriter/internal/storage"
)

var (
	searchCharacter  string
	searchLocation   string
	searchTypes      []string
	searchScreenplay string
	searchLimit      int
	searchPG         bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search screenplay text in the local library",
	Long: `Full-text search over stored screenplay elements.

Examples:
  goscreenwriter search "coffee"
  goscreenwriter search "sorry" --character MARGE
  goscreenwriter search --type sceneHeading --location "DINER"
  goscreenwriter search "coffee" --pg    # query the Postgres backend instead`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l := applog.WithComponent("cli")

		q := storage.SearchQuery{
			Character:  searchCharacter,
			Location:   searchLocation,
			Screenplay: searchScreenplay,
			Limit:      searchLimit,
		}
		if len(args) == 1 {
			q.Text = args[0]
		}
		for _, ts := range searchTypes {
			// normalize through the enum so "Dialogue" and "dialogue" both work
			q.Types = append(q.Types, screenplay.ParseElementType(ts).String())
		}

		var results []storage.SearchResult
		if searchPG {
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
			results, err = backend.SearchPG(cmd.Context(), db, q)
			if err != nil {
				return err
			}
		} else {
			st, err := storage.Open(libraryRoot)
			if err != nil {
				return err
			}
			defer st.Close()
			results, err = st.Search(cmd.Context(), q)
			if err != nil {
				return err
			}
		}

		if len(results) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		for _, r := range results {
			line := r.Snippet
			if line == "" {
				line = r.Text
			}
			fmt.Printf("%s  ch%d/%d  %-14s  %s\n", r.ScreenplayID, r.ChapterIndex, r.OrderIndex, r.Type, line)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchCharacter, "character", "", "restrict to dialogue spoken by this character")
	searchCmd.Flags().StringVar(&searchLocation, "location", "", "restrict to scene headings at this location")
	searchCmd.Flags().StringSliceVar(&searchTypes, "type", nil, "restrict to element types (e.g. dialogue, sceneHeading)")
	searchCmd.Flags().StringVar(&searchScreenplay, "screenplay", "", "restrict to one screenplay ID")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 50, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchPG, "pg", false, "search the Postgres backend instead of the local library")
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"goscreenwriter/internal/config"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/pipeline"
	"goscreenwriter/internal/progress"
	"goscreenwriter/internal/telemetry"
	"goscreenwriter/internal/version"
)

var (
	cfg         config.AppConfig
	libraryRoot string
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:   "goscreenwriter",
	Short: "Screenplay ingestion, conversion and search",
	Long: `goscreenwriter parses screenplays written in Fountain, Final Draft (FDX)
or Highland/TextBundle formats into a canonical element model, converts
between formats, and maintains a searchable local library.

Supported inputs:  .fountain, .md, .fdx, .textbundle, .textpack, .highland
Supported outputs: TextBundle directory, zipped TextPack archive, PDF`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&libraryRoot, "library", "", "library directory (default: config library.root or cwd)",
	)
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		var err error
		cfg, err = config.Load()
		if err != nil {
			cfg = config.Defaults()
		}
		applog.Init(applog.Options{
			Level:     cfg.Logging.Level,
			Format:    cfg.Logging.Format,
			AddSource: cfg.Logging.Source,
			File:      cfg.Logging.File,
		})
		if libraryRoot == "" {
			libraryRoot = cfg.Library.Root
		}
		if libraryRoot == "" {
			libraryRoot, _ = os.Getwd()
		}
		tcfg := telemetry.FromEnv()
		if cfg.General.TelemetryOptIn {
			tcfg.OptIn = true
		}
		telemetry.NewDefault(tcfg)
	}

	rootCmd.AddCommand(parseCmd, convertCmd, exportCmd, listCmd, searchCmd, syncCmd, watchCmd, versionCmd)
}

// newConsoleOperation builds a progress operation that renders updates on
// stderr and cancels when ctx is done.
func newConsoleOperation(ctx context.Context) *progress.Operation {
	var handler progress.Handler
	if !quiet {
		handler = func(u progress.Update) {
			if u.FractionCompleted != nil {
				fmt.Fprintf(os.Stderr, "\r%3.0f%% %s", *u.FractionCompleted*100, u.Description)
			} else {
				fmt.Fprintf(os.Stderr, "\r     %s", u.Description)
			}
			if u.FractionCompleted != nil && *u.FractionCompleted >= 1 {
				fmt.Fprintln(os.Stderr)
			}
		}
	}
	op := progress.New(nil, progress.DefaultInterval, handler)
	go func() {
		<-ctx.Done()
		op.Cancel()
	}()
	return op
}

func targetFromFormat(format string) (pipeline.Target, error) {
	switch format {
	case "bundle":
		return pipeline.TargetBundle, nil
	case "archive", "textpack":
		return pipeline.TargetArchive, nil
	case "pdf":
		return pipeline.TargetPDF, nil
	default:
		return "", fmt.Errorf("unknown format %q (want bundle, archive or pdf)", format)
	}
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package pipeline runs the ordered stages parse -> order -> convert ->
// export. One optional progress coordinator is threaded through every stage;
// cancellation is re-checked at each stage boundary so an abort between
// stages never starts the next one. Element slices transfer by ownership
// from stage to stage; there is no shared mutable state beyond the
// coordinator.
package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"goscreenwriter/internal/bundle"
	"goscreenwriter/internal/export"
	"goscreenwriter/internal/fdx"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/order"
	"goscreenwriter/internal/progress"
	"goscreenwriter/internal/screenplay"
)

// Target selects the export container of a conversion.
type Target string

const (
	TargetBundle  Target = "bundle"
	TargetArchive Target = "archive"
	TargetPDF     Target = "pdf"
)

// Parse dispatches on the input's shape, parses it, and assigns ordering
// keys. The returned screenplay is fully canonical: sorting its elements by
// (ChapterIndex, OrderIndex) reproduces document order.
func Parse(inputPath string, op *progress.Operation) (*screenplay.ParsedScreenplay, error) {
	l := applog.WithOperation(applog.WithComponent("pipeline"), "parse").With(
		slog.String("input", inputPath))

	var (
		ps  *screenplay.ParsedScreenplay
		err error
	)
	switch strings.ToLower(filepath.Ext(inputPath)) {
	case ".fdx":
		var data []byte
		if data, err = os.ReadFile(inputPath); err != nil {
			err = &screenplay.ResourceError{Path: inputPath, Err: err}
			break
		}
		if ps, err = fdx.ParseWithProgress(data, op); err == nil {
			ps.SourceFile = filepath.Base(inputPath)
		}
	default:
		// .fountain, .highland, .textbundle directories, and anything else
		// text-shaped go through the sniffing resolver.
		ps, err = bundle.Resolve(inputPath, op)
	}
	if err != nil {
		l.Error("parse failed", slog.Any("err", err))
		return nil, err
	}
	if err := op.Err(); err != nil {
		return nil, err
	}

	order.Assign(ps.Elements)
	l.Info("parsed", slog.Int("elements", len(ps.Elements)), slog.Int("titlePage", len(ps.TitlePage)))
	return ps, nil
}

// Convert parses inputPath and exports it to outputPath in the given target
// format. Cancellation at any stage cleans up partial output and returns
// progress.ErrCancelled.
func Convert(inputPath, outputPath string, target Target, op *progress.Operation) (*screenplay.ParsedScreenplay, error) {
	ps, err := Parse(inputPath, op)
	if err != nil {
		return nil, err
	}
	if err := op.Err(); err != nil {
		return nil, err
	}
	if err := Export(ps, outputPath, target, op); err != nil {
		return nil, err
	}
	return ps, nil
}

// Export writes an already-canonical screenplay to outputPath.
func Export(ps *screenplay.ParsedScreenplay, outputPath string, target Target, op *progress.Operation) error {
	if err := op.Err(); err != nil {
		return err
	}
	switch target {
	case TargetPDF:
		return export.WritePDF(ps, outputPath, op)
	case TargetArchive:
		return export.WriteBundle(ps, outputPath, export.FormatArchive, op)
	case TargetBundle, "":
		return export.WriteBundle(ps, outputPath, export.FormatDirectory, op)
	default:
		return fmt.Errorf("unknown export target %q", target)
	}
}

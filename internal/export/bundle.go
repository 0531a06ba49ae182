/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders the canonical screenplay model into output
// containers: TextBundle directories, zipped Highland-style archives, and
// PDF. Every error or cancellation exit deletes partially written output;
// no orphaned files are ever left behind.
package export

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"goscreenwriter/internal/bundle"
	"goscreenwriter/internal/fountain"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/progress"
	"goscreenwriter/internal/screenplay"
)

// Format selects the bundle container.
type Format string

const (
	// FormatDirectory writes an unpacked TextBundle directory.
	FormatDirectory Format = "directory"
	// FormatArchive writes a zipped bundle (Highland 2 layout).
	FormatArchive Format = "archive"
)

// chunkSize is the streaming write granularity; progress is reported and
// cancellation polled once per chunk.
const chunkSize = 1 << 20

// file is one pending bundle member.
type file struct {
	name string
	data []byte
}

// WriteBundle exports ps to outPath: info.json, the serialized Fountain
// text, and a Resources directory with derived JSON (characters, locations,
// elements, title page).
func WriteBundle(ps *screenplay.ParsedScreenplay, outPath string, format Format, op *progress.Operation) (err error) {
	l := applog.WithOperation(applog.WithComponent("export"), "write_bundle").With(
		slog.String("path", outPath))

	files, err := bundleFiles(ps)
	if err != nil {
		return err
	}
	var total int64
	for _, f := range files {
		total += int64(len(f.data))
	}
	op.SetTotalUnits(total, "exporting bundle")

	if format == FormatArchive {
		err = writeArchive(outPath, filepath.Base(strings.TrimSuffix(outPath, filepath.Ext(outPath))), files, op)
	} else {
		err = writeDirectory(outPath, files, op)
	}
	if err != nil {
		l.Error("bundle export failed", slog.Any("err", err))
		return err
	}
	op.Complete("bundle exported")
	l.Info("bundle exported", slog.Int("files", len(files)))
	return nil
}

// bundleFiles derives every bundle member from the canonical model.
func bundleFiles(ps *screenplay.ParsedScreenplay) ([]file, error) {
	info, err := json.MarshalIndent(bundle.NewInfo(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode info.json: %w", err)
	}
	files := []file{
		{name: "info.json", data: info},
		{name: "text.fountain", data: []byte(fountain.Serialize(ps))},
	}
	resources := []struct {
		name  string
		value any
	}{
		{"Resources/characters.json", ExtractCharacters(ps)},
		{"Resources/locations.json", ExtractLocations(ps)},
		{"Resources/elements.json", ps.Elements},
		{"Resources/titlepage.json", ps.TitlePage},
	}
	for _, r := range resources {
		data, err := json.MarshalIndent(r.value, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", r.name, err)
		}
		files = append(files, file{name: r.name, data: data})
	}
	return files, nil
}

// writeDirectory writes an unpacked bundle. Cleanup on error or cancellation
// removes only what this export created: the files it wrote, and the bundle
// directories only when they did not exist beforehand. Pre-existing content
// in the destination is never touched.
func writeDirectory(root string, files []file, op *progress.Operation) (err error) {
	var createdDirs []string
	for _, dir := range []string{root, filepath.Join(root, "Resources")} {
		if _, statErr := os.Stat(dir); os.IsNotExist(statErr) {
			createdDirs = append(createdDirs, dir)
		}
	}
	if err := os.MkdirAll(filepath.Join(root, "Resources"), 0o755); err != nil {
		return fmt.Errorf("create bundle dirs: %w", err)
	}

	var written []string
	defer func() {
		if err == nil {
			return
		}
		for _, p := range written {
			_ = os.Remove(p)
		}
		// os.Remove leaves non-empty directories alone.
		for i := len(createdDirs) - 1; i >= 0; i-- {
			_ = os.Remove(createdDirs[i])
		}
	}()

	for _, f := range files {
		p := filepath.Join(root, f.name)
		if err = writeFileChunked(p, f.data, op); err != nil {
			return err
		}
		written = append(written, p)
	}
	return nil
}

// writeArchive writes a zipped bundle with the members nested under a
// "<name>.textbundle/" directory, matching the Highland 2 layout the
// resolver expects. The archive file is removed on any error or
// cancellation.
func writeArchive(outPath, name string, files []file, op *progress.Operation) (err error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(outPath)
		}
	}()

	inner := name + ".textbundle"
	zw := zip.NewWriter(f)
	for _, m := range files {
		w, werr := zw.Create(inner + "/" + m.name)
		if werr != nil {
			err = fmt.Errorf("zip add %s: %w", m.name, werr)
			return err
		}
		if err = writeChunks(w.Write, m.data, op); err != nil {
			return err
		}
	}
	if err = zw.Close(); err != nil {
		err = fmt.Errorf("close zip: %w", err)
		return err
	}
	if err = f.Close(); err != nil {
		err = fmt.Errorf("close archive: %w", err)
		return err
	}
	return nil
}

// writeFileChunked streams data to path in fixed-size chunks, deleting the
// file before returning any error or cancellation.
func writeFileChunked(path string, data []byte, op *progress.Operation) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return
		}
		if cerr := f.Close(); cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
			_ = os.Remove(path)
		}
	}()
	return writeChunks(f.Write, data, op)
}

// writeChunks feeds data to write chunkSize bytes at a time, reporting
// progress per chunk and polling cancellation at the same cadence.
func writeChunks(write func([]byte) (int, error), data []byte, op *progress.Operation) error {
	for off := 0; off < len(data) || off == 0; off += chunkSize {
		if op.Cancelled() {
			return progress.ErrCancelled
		}
		end := off + chunkSize
		if end > len(data) {
			end = len(data)
		}
		n, err := write(data[off:end])
		if err != nil {
			return fmt.Errorf("write chunk: %w", err)
		}
		op.Increment(int64(n), "writing")
		if end == len(data) {
			break
		}
	}
	return nil
}

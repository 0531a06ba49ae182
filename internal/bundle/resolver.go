/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package bundle is the format-sniffing front door for Highland and
// TextBundle inputs. It detects the container (ZIP archive, plain text, or
// bundle directory), extracts the single Fountain/Markdown content file, and
// delegates to the fountain parser.
package bundle

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"goscreenwriter/internal/fountain"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/progress"
	"goscreenwriter/internal/screenplay"
)

// ErrNoTextBundle reports an archive or directory with no qualifying bundle
// content (missing info.json or content file, or an ambiguous layout).
var ErrNoTextBundle = errors.New("no text bundle found")

// ErrExtraction reports a corrupt or unreadable archive.
var ErrExtraction = errors.New("archive extraction failed")

// zipSignature is the ZIP local-file-header magic.
var zipSignature = []byte{'P', 'K', 0x03, 0x04}

// bundleExtensions are the recognized inner-directory suffixes of a packaged
// Highland document.
var bundleExtensions = []string{".textbundle", ".textpack", ".highland", ".highland-bundle"}

// contentExtensions mark the single screenplay content file of a bundle.
var contentExtensions = []string{".fountain", ".md", ".markdown"}

// Resolve sniffs the container type at p and produces a parsed screenplay.
//
//   - directory           -> generic TextBundle
//   - ZIP signature       -> Highland 2 (zipped bundle)
//   - anything else       -> Highland 1 legacy (plain Fountain text)
func Resolve(p string, op *progress.Operation) (*screenplay.ParsedScreenplay, error) {
	l := applog.WithComponent("bundle").With(slog.String("path", p))

	fi, err := os.Stat(p)
	if err != nil {
		return nil, &screenplay.ResourceError{Path: p, Err: err}
	}
	if fi.IsDir() {
		return resolveDirectory(p, op)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, &screenplay.ResourceError{Path: p, Err: err}
	}

	if len(data) >= len(zipSignature) && string(data[:len(zipSignature)]) == string(zipSignature) {
		l.Debug("zip signature detected, treating as packaged bundle")
		return resolveArchive(p, op)
	}

	l.Debug("no zip signature, treating as plain fountain")
	ps, err := fountain.ParseWithProgress(string(data), op)
	if err != nil {
		return nil, err
	}
	ps.SourceFile = filepath.Base(p)
	return ps, nil
}

// resolveArchive opens a zipped Highland 2 document: exactly one inner
// directory ending in a recognized bundle extension, containing info.json
// and one content file.
func resolveArchive(p string, op *progress.Operation) (*screenplay.ParsedScreenplay, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, &screenplay.ResourceError{Path: p, Err: fmt.Errorf("%w: %v", ErrExtraction, err)}
	}
	defer func() { _ = zr.Close() }()

	type inner struct {
		infoFile    *zip.File
		contentFile *zip.File
	}
	dirs := map[string]*inner{}

	for _, f := range zr.File {
		dir, rest, ok := strings.Cut(path.Clean(f.Name), "/")
		if !ok || rest == "" {
			continue
		}
		if !hasSuffixAny(dir, bundleExtensions) {
			continue
		}
		in := dirs[dir]
		if in == nil {
			in = &inner{}
			dirs[dir] = in
		}
		switch {
		case rest == "info.json":
			in.infoFile = f
		case !strings.Contains(rest, "/") && hasSuffixAny(rest, contentExtensions):
			in.contentFile = f
		}
	}

	var found *inner
	for _, in := range dirs {
		if in.infoFile == nil || in.contentFile == nil {
			continue
		}
		if found != nil {
			return nil, &screenplay.ResourceError{Path: p, Err: ErrNoTextBundle}
		}
		found = in
	}
	if found == nil {
		return nil, &screenplay.ResourceError{Path: p, Err: ErrNoTextBundle}
	}

	info, err := readZipFile(found.infoFile)
	if err != nil {
		return nil, &screenplay.ResourceError{Path: p, Err: fmt.Errorf("%w: %v", ErrExtraction, err)}
	}
	if err := ValidateInfo(info); err != nil {
		return nil, &screenplay.ResourceError{Path: p, Err: err}
	}

	content, err := readZipFile(found.contentFile)
	if err != nil {
		return nil, &screenplay.ResourceError{Path: p, Err: fmt.Errorf("%w: %v", ErrExtraction, err)}
	}

	ps, err := fountain.ParseWithProgress(string(content), op)
	if err != nil {
		return nil, err
	}
	ps.SourceFile = filepath.Base(p)
	return ps, nil
}

// resolveDirectory handles an unpacked TextBundle: info.json plus one
// content file, optional Resources/ tolerated.
func resolveDirectory(dir string, op *progress.Operation) (*screenplay.ParsedScreenplay, error) {
	info, err := os.ReadFile(filepath.Join(dir, "info.json"))
	if err != nil {
		return nil, &screenplay.ResourceError{Path: dir, Err: ErrNoTextBundle}
	}
	if err := ValidateInfo(info); err != nil {
		return nil, &screenplay.ResourceError{Path: dir, Err: err}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &screenplay.ResourceError{Path: dir, Err: err}
	}
	var content string
	for _, e := range entries {
		if e.IsDir() || !hasSuffixAny(e.Name(), contentExtensions) {
			continue
		}
		if content != "" {
			return nil, &screenplay.ResourceError{Path: dir, Err: ErrNoTextBundle}
		}
		content = filepath.Join(dir, e.Name())
	}
	if content == "" {
		return nil, &screenplay.ResourceError{Path: dir, Err: ErrNoTextBundle}
	}

	data, err := os.ReadFile(content)
	if err != nil {
		return nil, &screenplay.ResourceError{Path: content, Err: err}
	}
	ps, err := fountain.ParseWithProgress(string(data), op)
	if err != nil {
		return nil, err
	}
	ps.SourceFile = filepath.Base(dir)
	return ps, nil
}

func hasSuffixAny(name string, suffixes []string) bool {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package bundle

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"goscreenwriter/internal/screenplay"
)

const sampleFountain = `Title: The Drop
Author: J. Poole

INT. WAREHOUSE - NIGHT

A single bulb swings over the crates.

VERA
Hand it over.
`

// writeZip builds a zip at path from name->content entries.
func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close zip file: %v", err)
	}
}

func TestResolvePackagedHighland(t *testing.T) {
	p := filepath.Join(t.TempDir(), "drop.highland")
	writeZip(t, p, map[string]string{
		"drop.textbundle/info.json":     `{"version": 2, "type": "net.daringfireball.markdown"}`,
		"drop.textbundle/text.fountain": sampleFountain,
		"drop.textbundle/Resources/.keep": "",
	})

	ps, err := Resolve(p, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ps.SourceFile != "drop.highland" {
		t.Errorf("SourceFile = %q, want drop.highland", ps.SourceFile)
	}
	if got := ps.TitleOrDefault(); got != "The Drop" {
		t.Errorf("title = %q, want The Drop", got)
	}
	var sceneSeen bool
	for _, e := range ps.Elements {
		if e.Type == screenplay.SceneHeading && e.Text == "INT. WAREHOUSE - NIGHT" {
			sceneSeen = true
		}
	}
	if !sceneSeen {
		t.Errorf("scene heading missing from parsed bundle content")
	}
}

func TestResolveHighlandBundleExtension(t *testing.T) {
	p := filepath.Join(t.TempDir(), "drop.highland")
	writeZip(t, p, map[string]string{
		"drop.highland-bundle/info.json":     `{"version": 2}`,
		"drop.highland-bundle/text.fountain": sampleFountain,
	})

	ps, err := Resolve(p, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := ps.TitleOrDefault(); got != "The Drop" {
		t.Errorf("title = %q, want The Drop", got)
	}
}

func TestResolveLegacyPlainFountain(t *testing.T) {
	p := filepath.Join(t.TempDir(), "legacy.fountain")
	if err := os.WriteFile(p, []byte(sampleFountain), 0o644); err != nil {
		t.Fatal(err)
	}

	ps, err := Resolve(p, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ps.SourceFile != "legacy.fountain" {
		t.Errorf("SourceFile = %q", ps.SourceFile)
	}
	if len(ps.Elements) == 0 {
		t.Fatal("no elements parsed from legacy file")
	}
}

func TestResolveUnpackedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "draft.textbundle")
	if err := os.MkdirAll(filepath.Join(dir, "Resources"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "info.json"), []byte(`{"version": 2}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "text.md"), []byte(sampleFountain), 0o644); err != nil {
		t.Fatal(err)
	}

	ps, err := Resolve(dir, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ps.SourceFile != "draft.textbundle" {
		t.Errorf("SourceFile = %q", ps.SourceFile)
	}
	var author string
	for _, e := range ps.TitlePage {
		if e.Key == "Author" && len(e.Lines) > 0 {
			author = e.Lines[0]
		}
	}
	if author != "J. Poole" {
		t.Errorf("author = %q, want J. Poole", author)
	}
}

func TestResolveErrors(t *testing.T) {
	t.Run("missing path", func(t *testing.T) {
		_, err := Resolve(filepath.Join(t.TempDir(), "nope"), nil)
		var re *screenplay.ResourceError
		if !errors.As(err, &re) {
			t.Fatalf("err = %v, want ResourceError", err)
		}
	})

	t.Run("zip without bundle directory", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "flat.textpack")
		writeZip(t, p, map[string]string{
			"info.json":     `{"version": 2}`,
			"text.fountain": sampleFountain,
		})
		_, err := Resolve(p, nil)
		if !errors.Is(err, ErrNoTextBundle) {
			t.Fatalf("err = %v, want ErrNoTextBundle", err)
		}
	})

	t.Run("zip with two candidate bundles", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "ambiguous.textpack")
		writeZip(t, p, map[string]string{
			"a.textbundle/info.json":     `{"version": 2}`,
			"a.textbundle/text.fountain": sampleFountain,
			"b.textbundle/info.json":     `{"version": 2}`,
			"b.textbundle/text.md":       sampleFountain,
		})
		_, err := Resolve(p, nil)
		if !errors.Is(err, ErrNoTextBundle) {
			t.Fatalf("err = %v, want ErrNoTextBundle", err)
		}
	})

	t.Run("zip missing content file", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "empty.textpack")
		writeZip(t, p, map[string]string{
			"x.textbundle/info.json": `{"version": 2}`,
		})
		_, err := Resolve(p, nil)
		if !errors.Is(err, ErrNoTextBundle) {
			t.Fatalf("err = %v, want ErrNoTextBundle", err)
		}
	})

	t.Run("corrupt zip", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "broken.textpack")
		if err := os.WriteFile(p, []byte("PK\x03\x04 not actually a zip"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := Resolve(p, nil)
		if !errors.Is(err, ErrExtraction) {
			t.Fatalf("err = %v, want ErrExtraction", err)
		}
	})

	t.Run("directory without info.json", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "text.fountain"), []byte(sampleFountain), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := Resolve(dir, nil)
		if !errors.Is(err, ErrNoTextBundle) {
			t.Fatalf("err = %v, want ErrNoTextBundle", err)
		}
	})

	t.Run("directory with two content files", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "info.json"), []byte(`{"version": 2}`), 0o644); err != nil {
			t.Fatal(err)
		}
		for _, name := range []string{"a.fountain", "b.md"} {
			if err := os.WriteFile(filepath.Join(dir, name), []byte(sampleFountain), 0o644); err != nil {
				t.Fatal(err)
			}
		}
		_, err := Resolve(dir, nil)
		if !errors.Is(err, ErrNoTextBundle) {
			t.Fatalf("err = %v, want ErrNoTextBundle", err)
		}
	})
}

func TestValidateInfo(t *testing.T) {
	cases := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"minimal", `{"version": 1}`, false},
		{"full", `{"version": 2, "type": "net.daringfireball.markdown", "transient": false, "creatorIdentifier": "com.example"}`, false},
		{"missing version", `{"type": "x"}`, true},
		{"version zero", `{"version": 0}`, true},
		{"version string", `{"version": "2"}`, true},
		{"not an object", `[1, 2]`, true},
		{"malformed json", `{"version": `, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateInfo([]byte(tc.data))
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateInfo(%s) err = %v, wantErr %v", tc.data, err, tc.wantErr)
			}
		})
	}
}

func TestParseInfo(t *testing.T) {
	info, err := ParseInfo([]byte(`{"version": 2, "creatorIdentifier": "com.quoteunquote.highland"}`))
	if err != nil {
		t.Fatalf("ParseInfo: %v", err)
	}
	if info.Version != 2 || info.CreatorIdentifier != "com.quoteunquote.highland" {
		t.Errorf("unexpected info: %+v", info)
	}
	if _, err := ParseInfo([]byte(`{}`)); err == nil {
		t.Error("ParseInfo accepted manifest without version")
	}
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package bundle

import (
	"encoding/json"
	"fmt"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

// Info mirrors the TextBundle info.json manifest.
type Info struct {
	Version           int    `json:"version"`
	Type              string `json:"type,omitempty"`
	Transient         bool   `json:"transient,omitempty"`
	CreatorIdentifier string `json:"creatorIdentifier,omitempty"`
}

// infoSchema is the JSON schema every bundle manifest must satisfy. The
// TextBundle spec requires a version; everything else is optional.
const infoSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version"],
  "properties": {
    "version":           {"type": "integer", "minimum": 1},
    "type":              {"type": "string"},
    "transient":         {"type": "boolean"},
    "creatorIdentifier": {"type": "string"}
  }
}`

// ValidateInfo checks raw info.json bytes against the manifest schema.
func ValidateInfo(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(infoSchema)
	docLoader := gojsonschema.NewBytesLoader(data)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("validate info.json: %w", err)
	}
	if !result.Valid() {
		return fmt.Errorf("info.json does not conform to schema: %s", result.Errors()[0])
	}
	return nil
}

// ParseInfo validates and decodes an info.json manifest.
func ParseInfo(data []byte) (*Info, error) {
	if err := ValidateInfo(data); err != nil {
		return nil, err
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decode info.json: %w", err)
	}
	return &info, nil
}

// NewInfo returns the manifest written into exported bundles.
func NewInfo() Info {
	return Info{
		Version:           2,
		Type:              "net.daringfireball.markdown",
		CreatorIdentifier: "goscreenwriter",
	}
}

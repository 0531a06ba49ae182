/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package screenplay

import "fmt"

// ParseError reports a structural failure in a strict input format (FDX,
// archive members). It is fatal: no partial document accompanies it.
// Fountain parsing is permissive and never produces one.
type ParseError struct {
	Format string // "fdx", "fountain", ...
	Line   int    // 0 when unknown
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s (line %d): %v", e.Format, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ResourceError reports missing or unreadable bundle content. It is fatal
// for the input path; the caller may retry via a different format.
type ResourceError struct {
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource %s: %v", e.Path, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

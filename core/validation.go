// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// ValidateDocument validates a Document before it is persisted.
//
// Validation rules:
//   - Document must not be nil
//   - Text must contain non-whitespace characters
//   - Timestamp must be set (positive)
//   - DateString must be a YYYY-MM-DD date
//   - Source must be one of Sources
//
// NOT validated (populated by storage or processors):
//   - Id, Vector, InsertedAt
//   - URL (a citation key only; may be empty)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if strings.TrimSpace(doc.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyText)
	}

	if doc.Timestamp <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrUnsetTimestamp)
	}

	if _, err := time.Parse(DateLayout, doc.DateString); err != nil {
		return fmt.Errorf("%w: %w: %q", ErrInvalidDocument, ErrInvalidDateString, doc.DateString)
	}

	if err := ValidateSource(doc.Source); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return nil
}

// ValidateSource validates that a Source is a known connector identifier.
func ValidateSource(source Source) error {
	if !slices.Contains(Sources, source) {
		return fmt.Errorf("%w: %q", ErrInvalidSource, source)
	}
	return nil
}

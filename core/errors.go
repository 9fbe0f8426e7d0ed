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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyText indicates the Text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrUnsetTimestamp indicates the Timestamp field was never populated.
	ErrUnsetTimestamp = errors.New("timestamp is unset")

	// ErrInvalidDateString indicates DateString is not YYYY-MM-DD.
	ErrInvalidDateString = errors.New("date must be YYYY-MM-DD")

	// ErrInvalidSource indicates an unknown Source value.
	ErrInvalidSource = errors.New("invalid source")
)

// ErrMalformedRecord indicates an encoded record whose lengths do not fit its bytes.
var ErrMalformedRecord = errors.New("malformed record")

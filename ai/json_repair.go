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

package ai

import "strings"

// extractObject trims prose around the outermost JSON object, if there is one.
func extractObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

// repairJSON fixes the key-quoting and comma mistakes small models make when
// asked for a research plan:
//
//	{search_queries: [...]}      -> {"search_queries": [...]}
//	{search_queries": [...]}     -> {"search_queries": [...]}
//	{"stock_tickers": ["A",],}   -> {"stock_tickers": ["A"]}
//
// String contents are never touched.
func repairJSON(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in)+16)
	inString := false
	expectKey := false

	for i := 0; i < len(in); i++ {
		ch := in[i]

		if inString {
			out = append(out, ch)
			switch ch {
			case '\\':
				if i+1 < len(in) {
					i++
					out = append(out, in[i])
				}
			case '"':
				inString = false
			}
			continue
		}

		switch {
		case ch == '"':
			inString = true
			expectKey = false
			out = append(out, ch)
		case ch == ',':
			// Drop trailing commas
			if next := skipSpace(in, i+1); next < len(in) && (in[next] == '}' || in[next] == ']') {
				continue
			}
			out = append(out, ch)
			expectKey = true
		case ch == '{':
			out = append(out, ch)
			expectKey = true
		case expectKey && isKeyStart(ch):
			end := i
			for end < len(in) && isKeyChar(in[end]) {
				end++
			}
			key := string(in[i:end])
			switch next := skipSpace(in, end); {
			case end < len(in) && in[end] == '"' && end+1 < len(in) && in[end+1] == ':':
				// Closing quote present, opening quote missing
				out = append(out, []rune(`"`+key+`"`)...)
				i = end
			case next < len(in) && in[next] == ':':
				out = append(out, []rune(`"`+key+`"`)...)
				i = end - 1
			default:
				// A bare value such as true inside an array
				out = append(out, []rune(key)...)
				i = end - 1
			}
			expectKey = false
		default:
			if !isSpace(ch) {
				expectKey = false
			}
			out = append(out, ch)
		}
	}
	return string(out)
}

func skipSpace(in []rune, i int) int {
	for i < len(in) && isSpace(in[i]) {
		i++
	}
	return i
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

func isKeyStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

func isKeyChar(r rune) bool {
	return isKeyStart(r) || (r >= '0' && r <= '9')
}

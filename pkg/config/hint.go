// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"strings"

	"github.com/agext/levenshtein"
)

const (
	// maxHintDist is the largest edit distance still offered as a suggestion.
	maxHintDist = 2
	// minHintPrefix is the shortest word completed to a longer dictionary word.
	minHintPrefix = 3
)

// HintSpelling returns the word of dict closest to s: the nearest one within
// maxHintDist edits or, failing that, the only word that s abbreviates.
func HintSpelling(s string, dict []string) (string, bool) {
	best, bestDist := "", maxHintDist+1
	for _, w := range dict {
		d := levenshtein.Distance(s, w, nil)
		if d < bestDist {
			best, bestDist = w, d
		}
	}
	if bestDist <= maxHintDist {
		return best, true
	}

	if len(s) < minHintPrefix {
		return "", false
	}
	match := ""
	for _, w := range dict {
		if !strings.HasPrefix(w, s) {
			continue
		}
		if match != "" {
			return "", false
		}
		match = w
	}
	return match, match != ""
}

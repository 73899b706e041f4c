// Copyright 2025 ClickGraph, Inc.
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

// Package similartext suggests close matches for misspelled names in
// error messages.
package similartext

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// DistanceFactor is the fraction of the input length tolerated as edit
// distance. Suggestions further away than len(src)/DistanceFactor are
// suppressed.
const DistanceFactor = 3

// Find returns a ", maybe you mean a or b?" suffix listing the names
// closest to src, or an empty string when nothing is close enough.
func Find(names []string, src string) string {
	if len(src) == 0 {
		return ""
	}

	minDistance := -1
	var matches []string
	for _, name := range names {
		dist := distance(name, src)
		switch {
		case minDistance == -1 || dist < minDistance:
			minDistance = dist
			matches = []string{name}
		case dist == minDistance:
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 || minDistance > len(src)/DistanceFactor {
		return ""
	}

	sort.Strings(matches)
	return fmt.Sprintf(", maybe you mean %s?", strings.Join(matches, " or "))
}

// FindFromMap is Find over the keys of a map of any key-string type.
func FindFromMap(m interface{}, src string) string {
	rv := reflect.ValueOf(m)
	if rv.Kind() != reflect.Map {
		panic("FindFromMap requires a map")
	}
	var names []string
	for _, k := range rv.MapKeys() {
		names = append(names, k.String())
	}
	return Find(names, src)
}

// distance is the Levenshtein edit distance between a and b.
func distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min3(cur[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

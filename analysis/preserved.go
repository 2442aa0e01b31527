/*
 * Cadence - The resource-oriented smart contract programming language
 *
 * Copyright Flow Foundation
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package analysis

import (
	"sort"
	"strings"
)

type keySet map[*Key]struct{}

func (s keySet) contains(key *Key) bool {
	_, ok := s[key]
	return ok
}

func (s keySet) clone() keySet {
	if len(s) == 0 {
		return nil
	}
	result := make(keySet, len(s))
	for key := range s { //nolint:maprange
		result[key] = struct{}{}
	}
	return result
}

// PreservedSet describes which analyses a pass kept valid.
//
// A set is either "all", optionally minus explicitly abandoned kinds,
// or an explicit set of preserved kinds and preserved sets of analyses.
// A kind is preserved if it is not abandoned and the set is "all"
// or the kind itself is listed.
//
// PreservedSet is a value: all operations return a new set and leave the receiver unchanged.
// The zero value preserves nothing.
type PreservedSet struct {
	all       bool
	preserved keySet
	abandoned keySet
}

// All returns a set which preserves every analysis.
func All() PreservedSet {
	return PreservedSet{all: true}
}

// None returns a set which preserves no analysis.
func None() PreservedSet {
	return PreservedSet{}
}

func (s PreservedSet) clone() PreservedSet {
	return PreservedSet{
		all:       s.all,
		preserved: s.preserved.clone(),
		abandoned: s.abandoned.clone(),
	}
}

// Preserve returns a copy of the set which additionally preserves the given kinds.
// Preserving a kind revokes an earlier abandonment.
func (s PreservedSet) Preserve(keys ...*Key) PreservedSet {
	result := s.clone()
	for _, key := range keys {
		delete(result.abandoned, key)
		if !result.all {
			result.addPreserved(key)
		}
	}
	return result
}

// PreserveSet returns a copy of the set which additionally preserves
// the given sets of analyses, e.g. AllAnalysesOn[*ir.Loop]().
// Abandoned kinds stay abandoned.
func (s PreservedSet) PreserveSet(sets ...*Key) PreservedSet {
	result := s.clone()
	if result.all {
		return result
	}
	for _, set := range sets {
		result.addPreserved(set)
	}
	return result
}

// Abandon returns a copy of the set in which the given kinds are not preserved,
// even when the set is "all" or one of their sets is preserved.
func (s PreservedSet) Abandon(keys ...*Key) PreservedSet {
	result := s.clone()
	for _, key := range keys {
		delete(result.preserved, key)
		if result.abandoned == nil {
			result.abandoned = keySet{}
		}
		result.abandoned[key] = struct{}{}
	}
	return result
}

func (s *PreservedSet) addPreserved(key *Key) {
	if s.preserved == nil {
		s.preserved = keySet{}
	}
	s.preserved[key] = struct{}{}
}

// Intersect returns the set of analyses preserved by both sets.
// The result is exact: a kind or set is preserved by the result
// if and only if it is preserved by both operands.
func (s PreservedSet) Intersect(other PreservedSet) PreservedSet {
	var result PreservedSet
	result.all = s.all && other.all

	for key := range s.abandoned { //nolint:maprange
		result.addAbandoned(key)
	}
	for key := range other.abandoned { //nolint:maprange
		result.addAbandoned(key)
	}

	switch {
	case result.all:
		// the explicit sets are irrelevant
	case s.all:
		result.preserved = other.preserved.clone()
	case other.all:
		result.preserved = s.preserved.clone()
	default:
		for key := range s.preserved { //nolint:maprange
			if other.preserved.contains(key) {
				result.addPreserved(key)
			}
		}
	}

	return result
}

func (s *PreservedSet) addAbandoned(key *Key) {
	if s.abandoned == nil {
		s.abandoned = keySet{}
	}
	s.abandoned[key] = struct{}{}
}

// AreAllPreserved returns true if the set preserves every analysis.
func (s PreservedSet) AreAllPreserved() bool {
	return s.all && len(s.abandoned) == 0
}

// AllAnalysesInSetPreserved returns true if every analysis of the given set is preserved,
// i.e. the set itself is preserved and no kind was abandoned.
func (s PreservedSet) AllAnalysesInSetPreserved(set *Key) bool {
	return len(s.abandoned) == 0 &&
		(s.all || s.preserved.contains(set))
}

// Checker returns a checker which answers queries about the given analysis kind.
func (s PreservedSet) Checker(key *Key) Checker {
	return Checker{
		set: s,
		key: key,
	}
}

func (s PreservedSet) String() string {
	var b strings.Builder
	if s.all {
		b.WriteString("all")
	} else {
		b.WriteString("{")
		b.WriteString(strings.Join(s.preserved.names(), ", "))
		b.WriteString("}")
	}
	if len(s.abandoned) > 0 {
		b.WriteString(" - {")
		b.WriteString(strings.Join(s.abandoned.names(), ", "))
		b.WriteString("}")
	}
	return b.String()
}

func (s keySet) names() []string {
	names := make([]string, 0, len(s))
	for key := range s { //nolint:maprange
		names = append(names, key.String())
	}
	sort.Strings(names)
	return names
}

// Checker answers whether a single analysis kind is preserved by a set.
type Checker struct {
	set PreservedSet
	key *Key
}

// Preserved returns true if the kind itself is preserved,
// i.e. it was not abandoned, and all analyses or the kind were preserved.
func (c Checker) Preserved() bool {
	return !c.set.abandoned.contains(c.key) &&
		(c.set.all || c.set.preserved.contains(c.key))
}

// PreservedSet returns true if the given set of analyses, which the kind belongs to,
// is preserved, and the kind itself was not abandoned.
func (c Checker) PreservedSet(set *Key) bool {
	return !c.set.abandoned.contains(c.key) &&
		(c.set.all || c.set.preserved.contains(set))
}

// PreservedWhenStateless returns true if the kind was not abandoned.
// Results which only depend on the structure of the unit,
// and not on other analyses, may use it.
func (c Checker) PreservedWhenStateless() bool {
	return !c.set.abandoned.contains(c.key)
}

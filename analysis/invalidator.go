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

// Invalidator is passed to the predicates of results during an invalidation.
// It lets a result ask whether another result of the same unit is invalidated.
// Decisions are memoised for the duration of one invalidation.
type Invalidator[U Unit, X any] struct {
	manager   *Manager[U, X]
	decisions map[*Key]bool
}

// Invalidate returns true if the result of the analysis with the given key
// is invalidated by the preserved set.
// A result which is not cached is reported as invalidated.
//
// The unit must be the unit being invalidated.
func (i *Invalidator[U, X]) Invalidate(key *Key, unit U, preserved PreservedSet) bool {
	if decision, ok := i.decisions[key]; ok {
		return decision
	}

	result, ok := i.manager.cached(unit, key)
	if !ok {
		i.decisions[key] = true
		return true
	}

	decision := i.manager.isInvalidated(unit, key, result, preserved, i)
	i.decisions[key] = decision
	return decision
}

// IsInvalidated is the typed variant of Invalidator.Invalidate.
func IsInvalidated[U Unit, X any, R any](
	invalidator *Invalidator[U, X],
	kind *Kind[U, X, R],
	unit U,
	preserved PreservedSet,
) bool {
	return invalidator.Invalidate(kind.key, unit, preserved)
}

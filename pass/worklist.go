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

package pass

import (
	"github.com/onflow/nestpm/common/orderedmap"
)

// Worklist is a priority worklist of units.
// Units are popped from the back. Inserting a unit which is already in the worklist
// moves it to the back, so it is popped next.
type Worklist[U comparable] struct {
	units orderedmap.OrderedMap[U, struct{}]
}

func NewWorklist[U comparable]() *Worklist[U] {
	return &Worklist[U]{}
}

// Insert adds the units to the back of the worklist, in order,
// so the last unit is popped first.
func (w *Worklist[U]) Insert(units ...U) {
	for _, unit := range units {
		if w.units.MoveToBack(unit) {
			continue
		}
		w.units.Set(unit, struct{}{})
	}
}

// Pop removes the unit at the back of the worklist.
func (w *Worklist[U]) Pop() (unit U, ok bool) {
	newest := w.units.Newest()
	if newest == nil {
		return
	}
	unit = newest.Key
	w.units.Delete(unit)
	return unit, true
}

func (w *Worklist[U]) Contains(unit U) bool {
	return w.units.Contains(unit)
}

func (w *Worklist[U]) Len() int {
	return w.units.Len()
}

func (w *Worklist[U]) Empty() bool {
	return w.units.Len() == 0
}

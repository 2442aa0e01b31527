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
	"github.com/onflow/nestpm/analysis"
	"github.com/onflow/nestpm/errors"
)

// Updater is passed to passes run by an adaptor.
// Passes report deleted units, new units, and units that must be revisited through it.
//
// Passes must report every structural change of the units the adaptor walks.
type Updater[U analysis.Unit] struct {
	worklist   *Worklist[U]
	cache      analysis.Cache[U]
	isTopLevel func(unit U) bool
	current    U
	skip       bool
}

// NewUpdater returns an updater for the units of the worklist.
// Results of deleted units are cleared from the cache.
// New units must satisfy isTopLevel, if it is given.
func NewUpdater[U analysis.Unit](
	worklist *Worklist[U],
	cache analysis.Cache[U],
	isTopLevel func(unit U) bool,
) *Updater[U] {
	return &Updater[U]{
		worklist:   worklist,
		cache:      cache,
		isTopLevel: isTopLevel,
	}
}

// NewRootUpdater returns an updater for a unit which is not walked by an adaptor,
// e.g. the module a pipeline is run on.
func NewRootUpdater[U analysis.Unit](unit U, cache analysis.Cache[U]) *Updater[U] {
	updater := NewUpdater(nil, cache, nil)
	updater.Reset(unit)
	return updater
}

func (u *Updater[U]) base() *Updater[U] {
	return u
}

// Reset makes the unit the current unit.
func (u *Updater[U]) Reset(unit U) {
	u.current = unit
	u.skip = false
}

// CurrentUnit returns the unit the passes are currently run on.
func (u *Updater[U]) CurrentUnit() U {
	return u.current
}

func (u *Updater[U]) SkipCurrentUnit() bool {
	return u.skip
}

func (u *Updater[U]) checkCurrent(operation string, unit U) {
	if unit != u.current {
		panic(errors.UnitMismatchError{
			Operation: operation,
			Expected:  u.current.Name(),
			Actual:    unit.Name(),
		})
	}
}

// MarkAsDeleted reports that the current unit was deleted.
// All its results are cleared, and no further passes are run on it.
func (u *Updater[U]) MarkAsDeleted(unit U, reason string) {
	u.checkCurrent("MarkAsDeleted", unit)

	if u.cache != nil {
		u.cache.Clear(unit, reason)
	}
	u.skip = true
}

// AddNewUnits reports new units, which are processed after the current unit,
// the last one first.
func (u *Updater[U]) AddNewUnits(units ...U) {
	if u.worklist == nil {
		panic(errors.NewUnexpectedError("cannot add units: updater has no worklist"))
	}

	if u.isTopLevel != nil {
		for _, unit := range units {
			if !u.isTopLevel(unit) {
				panic(errors.NotTopLevelError{
					Unit: unit.Name(),
				})
			}
		}
	}

	u.worklist.Insert(units...)
}

// RevisitCurrentUnit stops running passes on the current unit,
// and runs all passes on it again before the units already in the worklist.
func (u *Updater[U]) RevisitCurrentUnit() {
	if u.worklist == nil {
		panic(errors.NewUnexpectedError("cannot revisit unit: updater has no worklist"))
	}

	u.skip = true
	u.worklist.Insert(u.current)
}

// WorklistUpdater is implemented by updaters which embed an Updater for units of type U.
type WorklistUpdater[U analysis.Unit] interface {
	Skipper
	base() *Updater[U]
}

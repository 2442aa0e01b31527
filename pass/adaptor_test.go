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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/nestpm/analysis"
	"github.com/onflow/nestpm/errors"
)

func isTopLevelTestUnit(unit *testUnit) bool {
	return unit.parent == nil
}

type drainFixture struct {
	cache    *testCache
	worklist *Worklist[*testUnit]
	updater  *testUpdater
}

// newDrainFixture returns a worklist which pops the units in the given order
func newDrainFixture(units ...*testUnit) *drainFixture {
	cache := newTestCache()
	worklist := NewWorklist[*testUnit]()
	for i := len(units) - 1; i >= 0; i-- {
		worklist.Insert(units[i])
	}
	return &drainFixture{
		cache:    cache,
		worklist: worklist,
		updater:  NewUpdater(worklist, analysis.Cache[*testUnit](cache), isTopLevelTestUnit),
	}
}

func (f *drainFixture) drain(pass testPass) analysis.PreservedSet {
	return Drain(nil, pass, f.updater, f.cache, analysis.NoExtra{}, Identity[*testUnit])
}

func TestDrain(t *testing.T) {

	t.Parallel()

	t.Run("nesting order", func(t *testing.T) {

		t.Parallel()

		a := &testUnit{name: "a"}
		b := &testUnit{name: "b"}
		fixture := newDrainFixture(a, b)

		var calls []string
		manager := newTestPassManager(
			"nested",
			nil,
			newTestPass("p1", &calls, analysis.All(), nil),
			newTestPass("p2", &calls, analysis.All(), nil),
		)

		preserved := fixture.drain(manager)

		assert.Equal(t, []string{"p1(a)", "p2(a)", "p1(b)", "p2(b)"}, calls)
		assert.Equal(t, []string{"a", "a", "a", "b", "b", "b"}, fixture.cache.invalidations)
		assert.True(t, preserved.AreAllPreserved())
		assert.True(t, fixture.worklist.Empty())
	})

	t.Run("new units", func(t *testing.T) {

		t.Parallel()

		a := &testUnit{name: "a"}
		b := &testUnit{name: "b"}
		c := &testUnit{name: "c"}
		fixture := newDrainFixture(a, b)

		var calls []string
		pass := newTestPass(
			"p",
			&calls,
			analysis.All(),
			func(unit *testUnit, _ *testCache, updater *testUpdater) {
				if unit == a {
					updater.AddNewUnits(c)
				}
			},
		)

		fixture.drain(pass)

		assert.Equal(t, []string{"p(a)", "p(c)", "p(b)"}, calls)
	})

	t.Run("revisit", func(t *testing.T) {

		t.Parallel()

		a := &testUnit{name: "a"}
		b := &testUnit{name: "b"}
		fixture := newDrainFixture(a, b)

		visits := map[*testUnit]int{}

		var calls []string
		manager := newTestPassManager(
			"nested",
			nil,
			newTestPass(
				"p1",
				&calls,
				analysis.None(),
				func(unit *testUnit, _ *testCache, updater *testUpdater) {
					visits[unit]++
					if unit == a && visits[unit] == 1 {
						updater.RevisitCurrentUnit()
					}
				},
			),
			newTestPass("p2", &calls, analysis.All(), nil),
		)

		preserved := fixture.drain(manager)

		assert.Equal(t, []string{"p1(a)", "p1(a)", "p2(a)", "p1(b)", "p2(b)"}, calls)

		// The interrupted run is neither invalidated by the pass manager nor by the adaptor
		assert.Equal(t, []string{"a", "a", "a", "b", "b", "b"}, fixture.cache.invalidations)

		assert.False(t, preserved.AreAllPreserved())
	})

	t.Run("deleted unit", func(t *testing.T) {

		t.Parallel()

		a := &testUnit{name: "a"}
		b := &testUnit{name: "b"}
		fixture := newDrainFixture(a, b)

		var calls []string
		pass := newTestPass(
			"p",
			&calls,
			analysis.None().Preserve(testAnalysis.Key()),
			func(unit *testUnit, cache *testCache, updater *testUpdater) {
				cache.result(unit)
				if unit == a {
					updater.MarkAsDeleted(unit, "deleted")
				}
			},
		)

		fixture.drain(pass)

		assert.Equal(t, []string{"p(a)", "p(b)"}, calls)
		assert.Equal(t, []string{"b"}, fixture.cache.invalidations)

		_, ok := analysis.GetCachedResult(fixture.cache.Manager, testAnalysis, a)
		assert.False(t, ok)

		_, ok = analysis.GetCachedResult(fixture.cache.Manager, testAnalysis, b)
		assert.True(t, ok)
	})

	t.Run("vetoed pass", func(t *testing.T) {

		t.Parallel()

		a := &testUnit{name: "a"}
		fixture := newDrainFixture(a)

		var calls []string
		pass := newTestPass("p", &calls, analysis.None(), nil)

		config := NewConfig().WithDisabledPasses("p")

		preserved := Drain(config, pass, fixture.updater, fixture.cache, analysis.NoExtra{}, Identity[*testUnit])

		assert.Empty(t, calls)
		assert.Empty(t, fixture.cache.invalidations)
		assert.True(t, preserved.AreAllPreserved())
	})
}

func TestUpdater(t *testing.T) {

	t.Parallel()

	t.Run("mark other unit as deleted", func(t *testing.T) {

		t.Parallel()

		a := &testUnit{name: "a"}
		b := &testUnit{name: "b"}

		updater := NewRootUpdater[*testUnit](a, nil)

		assert.PanicsWithValue(t,
			errors.UnitMismatchError{
				Operation: "MarkAsDeleted",
				Expected:  "a",
				Actual:    "b",
			},
			func() {
				updater.MarkAsDeleted(b, "deleted")
			},
		)
		assert.False(t, updater.SkipCurrentUnit())
	})

	t.Run("add nested unit", func(t *testing.T) {

		t.Parallel()

		a := &testUnit{name: "a"}
		child := &testUnit{name: "a.0", parent: a}

		fixture := newDrainFixture(a)
		fixture.updater.Reset(a)

		assert.PanicsWithValue(t,
			errors.NotTopLevelError{
				Unit: "a.0",
			},
			func() {
				fixture.updater.AddNewUnits(child)
			},
		)
	})

	t.Run("root updater has no worklist", func(t *testing.T) {

		t.Parallel()

		a := &testUnit{name: "a"}
		updater := NewRootUpdater[*testUnit](a, nil)

		assert.Panics(t, func() {
			updater.AddNewUnits(&testUnit{name: "b"})
		})
		assert.Panics(t, updater.RevisitCurrentUnit)
	})

	t.Run("reset", func(t *testing.T) {

		t.Parallel()

		a := &testUnit{name: "a"}
		b := &testUnit{name: "b"}

		fixture := newDrainFixture(a, b)
		updater := fixture.updater

		updater.Reset(b)
		updater.RevisitCurrentUnit()
		assert.True(t, updater.SkipCurrentUnit())

		updater.Reset(a)
		assert.False(t, updater.SkipCurrentUnit())
		assert.Same(t, a, updater.CurrentUnit())

		// b was moved to the back
		unit, ok := fixture.worklist.Pop()
		require.True(t, ok)
		assert.Same(t, b, unit)
	})
}

func TestWorklist(t *testing.T) {

	t.Parallel()

	a := &testUnit{name: "a"}
	b := &testUnit{name: "b"}
	c := &testUnit{name: "c"}

	worklist := NewWorklist[*testUnit]()
	assert.True(t, worklist.Empty())

	worklist.Insert(a, b, c)
	assert.Equal(t, 3, worklist.Len())

	worklist.Insert(a)
	assert.Equal(t, 3, worklist.Len())
	assert.True(t, worklist.Contains(a))

	var popped []string
	for {
		unit, ok := worklist.Pop()
		if !ok {
			break
		}
		popped = append(popped, unit.name)
	}

	assert.Equal(t, []string{"a", "c", "b"}, popped)
	assert.False(t, worklist.Contains(a))
}

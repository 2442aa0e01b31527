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
	"slices"

	"github.com/onflow/nestpm/common/orderedmap"
)

// InnerProxyResult is cached for an outer unit, e.g. a function,
// and gives access to the analysis manager of its nested units, e.g. its loops.
//
// It keeps the results of the nested units consistent with the outer unit:
// when the outer unit is invalidated, the invalidation is forwarded to the nested units.
type InnerProxyResult[O Unit, OX any, I Unit, IX any] struct {
	kind         *Key
	manager      *Manager[I, IX]
	units        func() []I
	dependencies []*Key
	outerProxy   *Kind[I, IX, *OuterProxyResult[O, OX, I, IX]]
	released     bool
}

// Manager returns the analysis manager of the nested units.
func (r *InnerProxyResult[O, OX, I, IX]) Manager() *Manager[I, IX] {
	return r.manager
}

// AddDependency records an additional analysis of the outer unit
// that results of the nested units reference.
// If it is invalidated, all results of the nested units are cleared.
func (r *InnerProxyResult[O, OX, I, IX]) AddDependency(key *Key) {
	if slices.Contains(r.dependencies, key) {
		return
	}
	r.dependencies = append(r.dependencies, key)
}

func (*InnerProxyResult[O, OX, I, IX]) IsNestedResult() {}

// Invalidate forwards the invalidation of the outer unit to its nested units.
//
// If the proxy itself, or one of the analyses the nested results depend on, is not preserved,
// all results of the nested units are cleared, and the proxy is invalidated.
//
// Otherwise each nested unit is invalidated, innermost and last units first.
// Analyses of the outer unit which were registered as dependencies of nested results
// through an outer proxy narrow the preserved set for that nested unit.
func (r *InnerProxyResult[O, OX, I, IX]) Invalidate(
	unit O,
	preserved PreservedSet,
	invalidator *Invalidator[O, OX],
) bool {
	if preserved.AreAllPreserved() {
		return false
	}

	checker := preserved.Checker(r.kind)
	invalidated := !checker.Preserved() &&
		!checker.PreservedSet(invalidator.manager.category)

	if !invalidated {
		for _, dependency := range r.dependencies {
			if invalidator.Invalidate(dependency, unit, preserved) {
				invalidated = true
				break
			}
		}
	}

	if invalidated {
		r.clear()
		return true
	}

	innerPreserved := preserved.AllAnalysesInSetPreserved(r.manager.category)

	units := r.units()
	for i := len(units) - 1; i >= 0; i-- {
		inner := units[i]

		if narrowed, ok := r.narrow(unit, inner, preserved, invalidator); ok {
			r.manager.Invalidate(inner, narrowed)
			continue
		}

		if !innerPreserved {
			r.manager.Invalidate(inner, preserved)
		}
	}

	return false
}

func (r *InnerProxyResult[O, OX, I, IX]) narrow(
	unit O,
	inner I,
	preserved PreservedSet,
	invalidator *Invalidator[O, OX],
) (narrowed PreservedSet, ok bool) {
	if r.outerProxy == nil || !r.manager.IsRegistered(r.outerProxy.key) {
		return
	}

	outerProxy, cached := GetCachedResult(r.manager, r.outerProxy, inner)
	if !cached {
		return
	}

	outerProxy.invalidations.Foreach(func(outer *Key, innerKeys []*Key) {
		if !invalidator.Invalidate(outer, unit, preserved) {
			return
		}
		if !ok {
			narrowed = preserved
			ok = true
		}
		narrowed = narrowed.Abandon(innerKeys...)
	})

	return
}

func (r *InnerProxyResult[O, OX, I, IX]) clear() {
	for _, inner := range r.units() {
		r.manager.Clear(inner, inner.Name())
	}
	r.released = true
}

// Release clears the results of the nested units
// when the proxy is erased, e.g. because the outer unit was deleted.
func (r *InnerProxyResult[O, OX, I, IX]) Release() {
	if r.released {
		return
	}
	r.clear()
}

// InnerProxyConfig describes the proxy of an inner analysis manager.
type InnerProxyConfig[O Unit, OX any, I Unit, IX any] struct {
	// Kind is the analysis kind of the proxy in the outer manager
	Kind *Kind[O, OX, *InnerProxyResult[O, OX, I, IX]]
	// Manager is the analysis manager of the nested units
	Manager *Manager[I, IX]
	// Units returns a function which enumerates the nested units of the outer unit in preorder.
	// The function may be called after the nested units changed
	Units func(unit O, manager *Manager[O, OX], extra OX) func() []I
	// Dependencies are the analyses of the outer unit that nested results reference
	Dependencies []*Key
	// OuterProxy is the kind of the outer proxy in the inner manager, if any
	OuterProxy *Kind[I, IX, *OuterProxyResult[O, OX, I, IX]]
}

// RegisterInnerProxy registers the proxy of an inner analysis manager with the outer manager.
func RegisterInnerProxy[O Unit, OX any, I Unit, IX any](
	r Registrar[O, OX],
	config InnerProxyConfig[O, OX, I, IX],
) {
	Register(
		r,
		config.Kind,
		func(unit O, manager *Manager[O, OX], extra OX) *InnerProxyResult[O, OX, I, IX] {
			return &InnerProxyResult[O, OX, I, IX]{
				kind:         config.Kind.key,
				manager:      config.Manager,
				units:        config.Units(unit, manager, extra),
				dependencies: slices.Clone(config.Dependencies),
				outerProxy:   config.OuterProxy,
			}
		},
	)
}

// OuterProxyResult is cached for a nested unit, e.g. a loop,
// and gives read-only access to the cached results of the outer unit, e.g. its function.
//
// Nested results which depend on outer results register the dependency,
// so they are invalidated when the outer result is invalidated.
type OuterProxyResult[O Unit, OX any, I Unit, IX any] struct {
	manager       *Manager[O, OX]
	invalidations *orderedmap.OrderedMap[*Key, []*Key]
}

// RegisterOuterAnalysisInvalidation records that the result of the inner analysis
// depends on the result of the outer analysis.
func (r *OuterProxyResult[O, OX, I, IX]) RegisterOuterAnalysisInvalidation(outer *Key, inner *Key) {
	innerKeys, _ := r.invalidations.Get(outer)
	if slices.Contains(innerKeys, inner) {
		return
	}
	r.invalidations.Set(outer, append(innerKeys, inner))
}

// OuterInvalidations returns the inner analyses that depend on the given outer analysis.
func (r *OuterProxyResult[O, OX, I, IX]) OuterInvalidations(outer *Key) []*Key {
	innerKeys, _ := r.invalidations.Get(outer)
	return slices.Clone(innerKeys)
}

func (*OuterProxyResult[O, OX, I, IX]) IsNestedResult() {}

// Invalidate drops the recorded dependencies of inner analyses which are invalidated.
// The proxy itself always stays valid.
func (r *OuterProxyResult[O, OX, I, IX]) Invalidate(
	unit I,
	preserved PreservedSet,
	invalidator *Invalidator[I, IX],
) bool {
	var emptied []*Key

	for _, outer := range r.invalidations.Keys() {
		innerKeys, _ := r.invalidations.Get(outer)

		var kept []*Key
		for _, inner := range innerKeys {
			if !invalidator.Invalidate(inner, unit, preserved) {
				kept = append(kept, inner)
			}
		}

		if len(kept) == 0 {
			emptied = append(emptied, outer)
			continue
		}
		r.invalidations.Set(outer, kept)
	}

	for _, outer := range emptied {
		r.invalidations.Delete(outer)
	}

	return false
}

// RegisterOuterProxy registers the proxy of an outer analysis manager with the inner manager.
func RegisterOuterProxy[O Unit, OX any, I Unit, IX any](
	r Registrar[I, IX],
	kind *Kind[I, IX, *OuterProxyResult[O, OX, I, IX]],
	outer *Manager[O, OX],
) {
	Register(
		r,
		kind,
		func(I, *Manager[I, IX], IX) *OuterProxyResult[O, OX, I, IX] {
			return &OuterProxyResult[O, OX, I, IX]{
				manager:       outer,
				invalidations: orderedmap.New[*Key, []*Key](0),
			}
		},
	)
}

// GetCachedOuterResult returns the cached result of an analysis of the outer unit.
// Outer results are never computed from a nested unit.
func GetCachedOuterResult[O Unit, OX any, I Unit, IX any, R any](
	proxy *OuterProxyResult[O, OX, I, IX],
	kind *Kind[O, OX, R],
	unit O,
) (R, bool) {
	return GetCachedResult(proxy.manager, kind, unit)
}

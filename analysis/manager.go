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
	"github.com/rs/zerolog"

	"github.com/onflow/nestpm/common/orderedmap"
	"github.com/onflow/nestpm/errors"
)

// Invalidatable is implemented by results which decide themselves
// whether they are invalidated by a preserved set,
// e.g. because they depend on other analyses.
//
// The predicate is only consulted if the result's kind,
// and the set of all analyses on the unit, are not preserved.
type Invalidatable[U Unit, X any] interface {
	Invalidate(unit U, preserved PreservedSet, invalidator *Invalidator[U, X]) bool
}

// NestedResult is implemented by results which hold results of other units,
// e.g. analysis manager proxies.
// Their predicate is consulted whenever the unit is invalidated,
// even if their kind is preserved, so they can forward the invalidation.
type NestedResult[U Unit, X any] interface {
	Invalidatable[U, X]
	IsNestedResult()
}

// Releaser is implemented by results which must be notified
// when they are erased from the cache.
type Releaser interface {
	Release()
}

// Cache is the part of an analysis manager needed to drive passes over units of type U.
type Cache[U Unit] interface {
	// Invalidate erases the results of the unit which are not preserved
	Invalidate(unit U, preserved PreservedSet)
	// Clear erases all results of the unit
	Clear(unit U, reason string)
	// ClearAll erases all results
	ClearAll()
	// Empty returns true if no result is cached
	Empty() bool
}

// Factory computes the result of an analysis for a unit.
// It may request the results of other analyses from the manager.
type Factory[U Unit, X any, R any] func(unit U, manager *Manager[U, X], extra X) R

type registration[U Unit, X any] struct {
	key *Key
	run func(unit U, manager *Manager[U, X], extra X) any
}

// Registrar is implemented by Registry and Manager,
// which both accept analysis registrations.
type Registrar[U Unit, X any] interface {
	register(registration registration[U, X])
}

// Registry collects the analyses a manager is created with.
type Registry[U Unit, X any] struct {
	registrations []registration[U, X]
}

func NewRegistry[U Unit, X any]() *Registry[U, X] {
	return &Registry[U, X]{}
}

func (r *Registry[U, X]) register(registration registration[U, X]) {
	for _, existing := range r.registrations {
		if existing.key == registration.key {
			panic(errors.DuplicateRegistrationError{
				Analysis: registration.key.String(),
				Manager:  "registry",
			})
		}
	}
	r.registrations = append(r.registrations, registration)
}

// Register registers the factory of the given analysis kind
// with a registry or an analysis manager.
//
// Registering the same kind twice,
// or registering with a manager that already computed results, is a programming error.
func Register[U Unit, X any, R any](r Registrar[U, X], kind *Kind[U, X, R], factory Factory[U, X, R]) {
	r.register(registration[U, X]{
		key: kind.key,
		run: func(unit U, manager *Manager[U, X], extra X) any {
			return factory(unit, manager, extra)
		},
	})
}

// Config is the configuration of an analysis manager.
type Config struct {
	// Name identifies the manager in diagnostics, e.g. "function"
	Name string
	// Logger receives debug messages about computed and erased results.
	// Logging is disabled if it is nil
	Logger *zerolog.Logger
}

type runningAnalysis[U Unit] struct {
	unit U
	key  *Key
}

// Manager lazily computes and caches the results of analyses on units of type U.
// Results are cached per unit, in the order they were computed,
// until they are invalidated or cleared.
type Manager[U Unit, X any] struct {
	name          string
	logger        zerolog.Logger
	category      *Key
	registrations map[*Key]registration[U, X]
	results       *orderedmap.OrderedMap[U, *orderedmap.OrderedMap[*Key, any]]
	running       map[runningAnalysis[U]]struct{}
	closed        bool
}

// NewManager returns a new analysis manager with the analyses of the given registry.
// More analyses can be registered until the first result is requested.
func NewManager[U Unit, X any](config Config, registry *Registry[U, X]) *Manager[U, X] {
	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	manager := &Manager[U, X]{
		name:          config.Name,
		logger:        logger,
		category:      AllAnalysesOn[U](),
		registrations: map[*Key]registration[U, X]{},
		results:       orderedmap.New[U, *orderedmap.OrderedMap[*Key, any]](0),
		running:       map[runningAnalysis[U]]struct{}{},
	}

	if registry != nil {
		for _, registration := range registry.registrations {
			manager.register(registration)
		}
	}

	return manager
}

func (m *Manager[U, X]) register(registration registration[U, X]) {
	if m.closed {
		panic(errors.RegistrationClosedError{
			Analysis: registration.key.String(),
			Manager:  m.name,
		})
	}
	if _, ok := m.registrations[registration.key]; ok {
		panic(errors.DuplicateRegistrationError{
			Analysis: registration.key.String(),
			Manager:  m.name,
		})
	}
	m.registrations[registration.key] = registration
}

func (m *Manager[U, X]) Name() string {
	return m.name
}

// Category returns the key of the set of all analyses managed by this manager.
func (m *Manager[U, X]) Category() *Key {
	return m.category
}

// IsRegistered returns true if an analysis with the given key is registered.
func (m *Manager[U, X]) IsRegistered(key *Key) bool {
	_, ok := m.registrations[key]
	return ok
}

// Empty returns true if no results are cached.
func (m *Manager[U, X]) Empty() bool {
	return m.results.Len() == 0
}

// GetResult returns the result of the analysis for the unit,
// computing and caching it if needed.
// Until the result is invalidated or cleared, the same result is returned.
func GetResult[U Unit, X any, R any](m *Manager[U, X], kind *Kind[U, X, R], unit U, extra X) R {
	m.closed = true

	if cached, ok := m.cached(unit, kind.key); ok {
		result, _ := cached.(R)
		return result
	}

	registration, ok := m.registrations[kind.key]
	if !ok {
		panic(errors.UnregisteredAnalysisError{
			Analysis: kind.Name(),
			Manager:  m.name,
		})
	}

	running := runningAnalysis[U]{
		unit: unit,
		key:  kind.key,
	}
	if _, ok := m.running[running]; ok {
		panic(errors.CyclicAnalysisError{
			Analysis: kind.Name(),
			Unit:     unit.Name(),
		})
	}
	m.running[running] = struct{}{}

	m.logger.Debug().
		Str("analysis", kind.Name()).
		Str("unit", unit.Name()).
		Msg("Running analysis")

	result := registration.run(unit, m, extra)

	delete(m.running, running)

	results, ok := m.results.Get(unit)
	if !ok {
		results = orderedmap.New[*Key, any](1)
		m.results.Set(unit, results)
	}
	results.Set(kind.key, result)

	typed, _ := result.(R)
	return typed
}

// GetCachedResult returns the result of the analysis for the unit, if it is cached.
// It never computes the result.
func GetCachedResult[U Unit, X any, R any](m *Manager[U, X], kind *Kind[U, X, R], unit U) (result R, ok bool) {
	m.closed = true

	if !m.IsRegistered(kind.key) {
		panic(errors.UnregisteredAnalysisError{
			Analysis: kind.Name(),
			Manager:  m.name,
		})
	}

	cached, ok := m.cached(unit, kind.key)
	if !ok {
		return result, false
	}
	result, _ = cached.(R)
	return result, true
}

func (m *Manager[U, X]) cached(unit U, key *Key) (any, bool) {
	results, ok := m.results.Get(unit)
	if !ok {
		return nil, false
	}
	return results.Get(key)
}

// Clear erases all results of the unit, e.g. because the unit was deleted.
// The reason is only used for diagnostics.
func (m *Manager[U, X]) Clear(unit U, reason string) {
	results, ok := m.results.Delete(unit)
	if !ok {
		return
	}

	m.logger.Debug().
		Str("unit", unit.Name()).
		Str("reason", reason).
		Msg("Clearing all analysis results")

	results.Foreach(func(_ *Key, result any) {
		release(result)
	})
}

// ClearAll erases all results of all units.
func (m *Manager[U, X]) ClearAll() {
	units := m.results.Keys()
	for _, unit := range units {
		m.Clear(unit, unit.Name())
	}
}

// Invalidate erases the results of the unit which are not preserved.
//
// If all analyses on units of type U are preserved, nothing is erased.
// Otherwise a result is kept if its kind is preserved, unless it is a nested result,
// or if its predicate decides it is still valid.
func (m *Manager[U, X]) Invalidate(unit U, preserved PreservedSet) {
	if preserved.AllAnalysesInSetPreserved(m.category) {
		return
	}

	results, ok := m.results.Get(unit)
	if !ok {
		return
	}

	invalidator := &Invalidator[U, X]{
		manager:   m,
		decisions: map[*Key]bool{},
	}

	keys := results.Keys()

	for _, key := range keys {
		invalidator.Invalidate(key, unit, preserved)
	}

	// Results may have been erased while deciding,
	// e.g. by a nested result clearing the unit
	results, ok = m.results.Get(unit)
	if !ok {
		return
	}

	for _, key := range keys {
		if !invalidator.decisions[key] {
			continue
		}

		result, ok := results.Delete(key)
		if !ok {
			continue
		}

		m.logger.Debug().
			Str("analysis", key.String()).
			Str("unit", unit.Name()).
			Msg("Invalidating analysis")

		release(result)
	}

	if results.Len() == 0 {
		m.results.Delete(unit)
	}
}

func (m *Manager[U, X]) isInvalidated(
	unit U,
	key *Key,
	result any,
	preserved PreservedSet,
	invalidator *Invalidator[U, X],
) bool {
	if nested, ok := result.(NestedResult[U, X]); ok {
		return nested.Invalidate(unit, preserved, invalidator)
	}

	checker := preserved.Checker(key)
	if checker.Preserved() || checker.PreservedSet(m.category) {
		return false
	}

	if invalidatable, ok := result.(Invalidatable[U, X]); ok {
		return invalidatable.Invalidate(unit, preserved, invalidator)
	}

	return true
}

func release(result any) {
	if releaser, ok := result.(Releaser); ok {
		releaser.Release()
	}
}

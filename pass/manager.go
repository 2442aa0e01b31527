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
	"github.com/turbolent/prettier"

	"github.com/onflow/nestpm/analysis"
)

type derivedUnit[U analysis.Unit, X any] struct {
	key     *analysis.Key
	rebuild func(unit U, extra X)
}

// Manager runs a sequence of passes on a unit.
//
// After each pass, the results of the unit which the pass did not preserve are invalidated.
// If a pass deletes the unit, or requests it to be revisited, no further passes are run.
//
// A manager is a pass itself, so pass managers can be nested through adaptors.
type Manager[U analysis.Unit, AM analysis.Cache[U], X any, Upd Skipper] struct {
	name       string
	config     *Config
	passes     []Pass[U, AM, X, Upd]
	derived    *derivedUnit[U, X]
	categories []*analysis.Key
}

// NewManager returns a new, empty pass manager.
// The name is only used for diagnostics.
func NewManager[U analysis.Unit, AM analysis.Cache[U], X any, Upd Skipper](
	name string,
	config *Config,
) *Manager[U, AM, X, Upd] {
	return &Manager[U, AM, X, Upd]{
		name:   name,
		config: ensureConfig(config),
	}
}

// WithDerivedUnit declares that units are derived from a more primitive representation,
// and are described by the analysis with the given key.
// If a pass does not preserve the analysis, the unit is rebuilt in place,
// so the following passes observe the same unit with refreshed content.
func (m *Manager[U, AM, X, Upd]) WithDerivedUnit(key *analysis.Key, rebuild func(unit U, extra X)) *Manager[U, AM, X, Upd] {
	m.derived = &derivedUnit[U, X]{
		key:     key,
		rebuild: rebuild,
	}
	return m
}

// WithPreservedSets declares additional sets of analyses which the manager
// invalidates itself, e.g. all analyses on the nested units.
// They are reported as preserved after a run.
func (m *Manager[U, AM, X, Upd]) WithPreservedSets(sets ...*analysis.Key) *Manager[U, AM, X, Upd] {
	m.categories = append(m.categories, sets...)
	return m
}

// AddPass appends a pass to the sequence.
func (m *Manager[U, AM, X, Upd]) AddPass(pass Pass[U, AM, X, Upd]) *Manager[U, AM, X, Upd] {
	m.passes = append(m.passes, pass)
	return m
}

func (m *Manager[U, AM, X, Upd]) Name() string {
	return m.name
}

func (*Manager[U, AM, X, Upd]) IsRequired() bool {
	return true
}

func (m *Manager[U, AM, X, Upd]) Empty() bool {
	return len(m.passes) == 0
}

// Run runs all passes on the unit, and returns the intersection of their preserved sets.
//
// The results of the unit have already been invalidated after each pass,
// so all analyses on units of type U, and on the declared nested units, are reported as preserved.
func (m *Manager[U, AM, X, Upd]) Run(unit U, manager AM, extra X, updater Upd) analysis.PreservedSet {
	logger := m.config.GetLogger()

	logger.Debug().
		Str("passManager", m.name).
		Str("unit", unit.Name()).
		Msg("Starting pass manager run")

	preserved := analysis.All()

	for _, pass := range m.passes {
		passPreserved, ran := RunPass(m.config, pass, unit, manager, extra, updater)
		if !ran {
			continue
		}

		if updater.SkipCurrentUnit() {
			preserved = preserved.Intersect(passPreserved)
			break
		}

		if m.derived != nil &&
			!passPreserved.Checker(m.derived.key).Preserved() {

			// The unit keeps its identity, so its derived result stays cached
			passPreserved = passPreserved.Preserve(m.derived.key)
			manager.Invalidate(unit, passPreserved)
			m.derived.rebuild(unit, extra)
		} else {
			manager.Invalidate(unit, passPreserved)
		}

		preserved = preserved.Intersect(passPreserved)
	}

	logger.Debug().
		Str("passManager", m.name).
		Str("preserved", preserved.String()).
		Msg("Finished pass manager run")

	return preserved.
		PreserveSet(analysis.AllAnalysesOn[U]()).
		PreserveSet(m.categories...)
}

func (m *Manager[U, AM, X, Upd]) PipelineDoc() prettier.Doc {
	docs := make([]prettier.Doc, 0, len(m.passes))
	for _, pass := range m.passes {
		docs = append(docs, PassDoc(pass))
	}
	return prettier.Join(pipelineSeparatorDoc, docs...)
}

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
)

// ShouldRunOptionalPassFunc decides whether an optional pass is run on the unit.
type ShouldRunOptionalPassFunc func(passName string, unit Named) bool

// BeforePassFunc is called before a pass is run, or instead of running a skipped pass.
type BeforePassFunc func(passName string, unit Named)

// AfterPassFunc is called after a pass was run on the unit.
type AfterPassFunc func(passName string, unit Named, preserved analysis.PreservedSet)

// AfterPassInvalidatedFunc is called after a pass was run
// which deleted the unit or requested it to be revisited.
// The unit must not be accessed anymore, so only its name is passed.
type AfterPassInvalidatedFunc func(passName string, unitName string, preserved analysis.PreservedSet)

// Instrumentation is notified about every pass run, and may veto runs of optional passes.
type Instrumentation struct {
	shouldRunOptionalPass []ShouldRunOptionalPassFunc
	beforeNonSkippedPass  []BeforePassFunc
	beforeSkippedPass     []BeforePassFunc
	afterPass             []AfterPassFunc
	afterPassInvalidated  []AfterPassInvalidatedFunc
}

func (i *Instrumentation) RegisterShouldRunOptionalPassCallback(f ShouldRunOptionalPassFunc) {
	i.shouldRunOptionalPass = append(i.shouldRunOptionalPass, f)
}

func (i *Instrumentation) RegisterBeforeNonSkippedPassCallback(f BeforePassFunc) {
	i.beforeNonSkippedPass = append(i.beforeNonSkippedPass, f)
}

func (i *Instrumentation) RegisterBeforeSkippedPassCallback(f BeforePassFunc) {
	i.beforeSkippedPass = append(i.beforeSkippedPass, f)
}

func (i *Instrumentation) RegisterAfterPassCallback(f AfterPassFunc) {
	i.afterPass = append(i.afterPass, f)
}

func (i *Instrumentation) RegisterAfterPassInvalidatedCallback(f AfterPassInvalidatedFunc) {
	i.afterPassInvalidated = append(i.afterPassInvalidated, f)
}

// runBeforePass returns false if the pass must be skipped.
// Required passes are never skipped.
// All callbacks are called, even if an earlier one already vetoed the run.
func (i *Instrumentation) runBeforePass(passName string, required bool, unit Named) bool {
	shouldRun := true
	if !required {
		for _, callback := range i.shouldRunOptionalPass {
			shouldRun = callback(passName, unit) && shouldRun
		}
	}

	callbacks := i.beforeNonSkippedPass
	if !shouldRun {
		callbacks = i.beforeSkippedPass
	}
	for _, callback := range callbacks {
		callback(passName, unit)
	}

	return shouldRun
}

func (i *Instrumentation) runAfterPass(passName string, unit Named, preserved analysis.PreservedSet) {
	for _, callback := range i.afterPass {
		callback(passName, unit, preserved)
	}
}

func (i *Instrumentation) runAfterPassInvalidated(passName string, unitName string, preserved analysis.PreservedSet) {
	for _, callback := range i.afterPassInvalidated {
		callback(passName, unitName, preserved)
	}
}

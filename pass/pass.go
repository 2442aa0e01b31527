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
	"time"

	"github.com/onflow/nestpm/analysis"
)

// Named is implemented by passes and units.
// Names are only used for diagnostics.
type Named interface {
	Name() string
}

// Skipper is implemented by updaters.
type Skipper interface {
	// SkipCurrentUnit returns true if the current unit was deleted,
	// or must be revisited, and no further passes must run on it
	SkipCurrentUnit() bool
}

// Pass transforms units of type U.
//
// AM is the analysis manager the pass may request results of the unit from,
// X the extra argument, and Upd the updater the pass reports structural changes to.
// The pass returns the set of analyses it preserved.
type Pass[U analysis.Unit, AM any, X any, Upd any] interface {
	Named
	Run(unit U, manager AM, extra X, updater Upd) analysis.PreservedSet
}

// RequiredPass is implemented by passes which must not be skipped by instrumentation,
// e.g. pass managers and adaptors.
type RequiredPass interface {
	IsRequired() bool
}

// IsRequired returns true if the pass must not be skipped by instrumentation.
func IsRequired(pass any) bool {
	required, ok := pass.(RequiredPass)
	return ok && required.IsRequired()
}

// PassFunc is a pass implemented by a function.
type PassFunc[U analysis.Unit, AM any, X any, Upd any] struct {
	PassName string
	Func     func(unit U, manager AM, extra X, updater Upd) analysis.PreservedSet
}

func (p PassFunc[U, AM, X, Upd]) Name() string {
	return p.PassName
}

func (p PassFunc[U, AM, X, Upd]) Run(unit U, manager AM, extra X, updater Upd) analysis.PreservedSet {
	return p.Func(unit, manager, extra, updater)
}

// RunPass runs a single pass on the unit, notifying the instrumentation,
// recording a trace, and profiling the run.
//
// If the instrumentation vetoes the run, the pass is not run,
// and the returned set preserves all analyses.
func RunPass[U analysis.Unit, AM any, X any, Upd Skipper](
	config *Config,
	pass Pass[U, AM, X, Upd],
	unit U,
	manager AM,
	extra X,
	updater Upd,
) (preserved analysis.PreservedSet, ran bool) {

	config = ensureConfig(config)
	instrumentation := config.Instrumentation()

	passName := pass.Name()

	if !instrumentation.runBeforePass(passName, IsRequired(pass), unit) {
		return analysis.All(), false
	}

	// The pass may delete the unit
	unitName := unit.Name()

	profile := config.TimeProfile
	if profile != nil {
		profile.enter(passName)
	}

	var start time.Time
	tracing := config.enabled()
	if tracing {
		start = time.Now()
	}

	preserved = pass.Run(unit, manager, extra, updater)

	skipped := updater.SkipCurrentUnit()

	if tracing {
		config.reportPassTrace(passName, unitName, preserved, skipped, time.Since(start))
	}

	if profile != nil {
		profile.exit()
	}

	if skipped {
		instrumentation.runAfterPassInvalidated(passName, unitName, preserved)
	} else {
		instrumentation.runAfterPass(passName, unit, preserved)
	}

	return preserved, true
}

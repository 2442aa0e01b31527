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

// Package loop runs passes on the loops and loop nests of functions.
//
// Loop passes are run on each loop, innermost loops first.
// Loop nest passes are run on each top-level loop together with all loops nested in it.
// Both share one analysis manager, in which the results of a loop nest
// are cached for its top-level loop.
package loop

import (
	"github.com/onflow/nestpm/analysis"
	"github.com/onflow/nestpm/ir"
	"github.com/onflow/nestpm/pass"
)

// StandardResults are the results of function analyses which loop passes
// and loop analyses may use. Loop passes must preserve them.
type StandardResults struct {
	Function *ir.Function
	DomTree  *ir.DominatorTree
	LoopInfo *ir.LoopInfo
}

// Manager caches the results of analyses on loops and loop nests.
type Manager = analysis.Manager[*ir.Loop, *StandardResults]

type Registry = analysis.Registry[*ir.Loop, *StandardResults]

// Pass transforms a loop.
type Pass = pass.Pass[*ir.Loop, *Manager, *StandardResults, *Updater]

// NestPass transforms a loop nest.
type NestPass = pass.Pass[*Nest, *NestManager, *StandardResults, *Updater]

// NestPassManager runs a sequence of loop nest passes.
type NestPassManager = pass.Manager[*Nest, *NestManager, *StandardResults, *Updater]

// NewManager returns a new loop analysis manager.
// The loop nest analysis is always registered.
func NewManager(config analysis.Config, registry *Registry) *Manager {
	manager := analysis.NewManager(config, registry)
	analysis.Register(manager, NestAnalysis, computeNest)
	return manager
}

// NewNestPassManager returns a new, empty loop nest pass manager.
//
// If a pass does not preserve the loop nest analysis,
// the loop nest is reconstructed in place before the next pass.
func NewNestPassManager(config *pass.Config) *NestPassManager {
	return pass.NewManager[*Nest, *NestManager, *StandardResults, *Updater](
		"LoopNestPassManager",
		config,
	).
		WithDerivedUnit(
			NestAnalysis.Key(),
			func(nest *Nest, _ *StandardResults) {
				nest.Reconstruct()
			},
		).
		WithPreservedSets(analysis.AllAnalysesOn[*ir.Loop]())
}

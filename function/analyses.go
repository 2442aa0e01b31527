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

package function

import (
	"github.com/onflow/nestpm/analysis"
	"github.com/onflow/nestpm/ir"
)

// DominatorTreeAnalysis computes the dominator tree of a function.
var DominatorTreeAnalysis = analysis.NewKind[*ir.Function, analysis.NoExtra, *ir.DominatorTree](
	"DominatorTreeAnalysis",
)

// LoopAnalysis computes the loops of a function.
// It uses the dominator tree.
var LoopAnalysis = analysis.NewKind[*ir.Function, analysis.NoExtra, *ir.LoopInfo](
	"LoopAnalysis",
)

// RegisterStandardAnalyses registers the dominator tree and loop analyses.
func RegisterStandardAnalyses(r analysis.Registrar[*ir.Function, analysis.NoExtra]) {
	analysis.Register(
		r,
		DominatorTreeAnalysis,
		func(function *ir.Function, _ *Manager, _ analysis.NoExtra) *ir.DominatorTree {
			return ir.BuildDominatorTree(function)
		},
	)

	analysis.Register(
		r,
		LoopAnalysis,
		func(function *ir.Function, manager *Manager, extra analysis.NoExtra) *ir.LoopInfo {
			tree := analysis.GetResult(manager, DominatorTreeAnalysis, function, extra)
			return ir.ComputeLoopInfo(function, tree)
		},
	)
}

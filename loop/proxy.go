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

package loop

import (
	"github.com/onflow/nestpm/analysis"
	"github.com/onflow/nestpm/function"
	"github.com/onflow/nestpm/ir"
)

// FunctionProxyResult gives a function access to the analysis manager of its loops.
type FunctionProxyResult = analysis.InnerProxyResult[*ir.Function, analysis.NoExtra, *ir.Loop, *StandardResults]

// OuterProxyResult gives a loop access to the cached results of its function.
type OuterProxyResult = analysis.OuterProxyResult[*ir.Function, analysis.NoExtra, *ir.Loop, *StandardResults]

// ManagerFunctionProxy is the proxy of the loop analysis manager in the function analysis manager.
var ManagerFunctionProxy = analysis.NewKind[*ir.Function, analysis.NoExtra, *FunctionProxyResult](
	"LoopAnalysisManagerFunctionProxy",
)

// FunctionManagerLoopProxy is the proxy of the function analysis manager in the loop analysis manager.
var FunctionManagerLoopProxy = analysis.NewKind[*ir.Loop, *StandardResults, *OuterProxyResult](
	"FunctionAnalysisManagerLoopProxy",
)

// RegisterProxies connects the function and loop analysis managers.
//
// Loop results reference the dominator tree and the loop info of their function,
// so all loop results of a function are cleared when one of them is invalidated.
func RegisterProxies(functionManager *function.Manager, loopManager *Manager) {
	analysis.RegisterInnerProxy(
		functionManager,
		analysis.InnerProxyConfig[*ir.Function, analysis.NoExtra, *ir.Loop, *StandardResults]{
			Kind:    ManagerFunctionProxy,
			Manager: loopManager,
			Units: func(fn *ir.Function, manager *function.Manager, extra analysis.NoExtra) func() []*ir.Loop {
				info := analysis.GetResult(manager, function.LoopAnalysis, fn, extra)
				return info.LoopsInPreorder
			},
			Dependencies: []*analysis.Key{
				function.DominatorTreeAnalysis.Key(),
				function.LoopAnalysis.Key(),
			},
			OuterProxy: FunctionManagerLoopProxy,
		},
	)

	analysis.RegisterOuterProxy(loopManager, FunctionManagerLoopProxy, functionManager)
}

// GetCachedFunctionResult returns the cached result of an analysis of the loop's function,
// and records that the given loop analysis depends on it.
func GetCachedFunctionResult[R any](
	manager *Manager,
	loop *ir.Loop,
	results *StandardResults,
	kind *analysis.Kind[*ir.Function, analysis.NoExtra, R],
	dependent *analysis.Key,
) (result R, ok bool) {
	proxy := analysis.GetResult(manager, FunctionManagerLoopProxy, loop, results)

	result, ok = analysis.GetCachedOuterResult(proxy, kind, results.Function)
	if ok && dependent != nil {
		proxy.RegisterOuterAnalysisInvalidation(kind.Key(), dependent)
	}
	return result, ok
}

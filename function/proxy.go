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

// ModuleProxyResult gives a module access to the analysis manager of its functions.
type ModuleProxyResult = analysis.InnerProxyResult[*ir.Module, analysis.NoExtra, *ir.Function, analysis.NoExtra]

// FunctionProxyResult gives a function access to the cached results of its module.
type FunctionProxyResult = analysis.OuterProxyResult[*ir.Module, analysis.NoExtra, *ir.Function, analysis.NoExtra]

// ManagerModuleProxy is the proxy of the function analysis manager in the module analysis manager.
var ManagerModuleProxy = analysis.NewKind[*ir.Module, analysis.NoExtra, *ModuleProxyResult](
	"FunctionAnalysisManagerModuleProxy",
)

// ModuleManagerFunctionProxy is the proxy of the module analysis manager in the function analysis manager.
var ModuleManagerFunctionProxy = analysis.NewKind[*ir.Function, analysis.NoExtra, *FunctionProxyResult](
	"ModuleAnalysisManagerFunctionProxy",
)

// RegisterProxies connects the module and function analysis managers.
func RegisterProxies(moduleManager *ModuleManager, functionManager *Manager) {
	analysis.RegisterInnerProxy(
		moduleManager,
		analysis.InnerProxyConfig[*ir.Module, analysis.NoExtra, *ir.Function, analysis.NoExtra]{
			Kind:    ManagerModuleProxy,
			Manager: functionManager,
			Units: func(module *ir.Module, _ *ModuleManager, _ analysis.NoExtra) func() []*ir.Function {
				return module.Functions
			},
			OuterProxy: ModuleManagerFunctionProxy,
		},
	)

	analysis.RegisterOuterProxy(functionManager, ModuleManagerFunctionProxy, moduleManager)
}

// GetManager returns the function analysis manager of the module.
func GetManager(moduleManager *ModuleManager, module *ir.Module) *Manager {
	return analysis.GetResult(moduleManager, ManagerModuleProxy, module, analysis.NoExtra{}).Manager()
}

// GetCachedModuleResult returns the cached result of an analysis of the function's module,
// and records that the given function analysis depends on it.
func GetCachedModuleResult[R any](
	manager *Manager,
	function *ir.Function,
	kind *analysis.Kind[*ir.Module, analysis.NoExtra, R],
	dependent *analysis.Key,
) (result R, ok bool) {
	module := function.Module()
	if module == nil {
		return result, false
	}

	proxy := analysis.GetResult(manager, ModuleManagerFunctionProxy, function, analysis.NoExtra{})

	result, ok = analysis.GetCachedOuterResult(proxy, kind, module)
	if ok && dependent != nil {
		proxy.RegisterOuterAnalysisInvalidation(kind.Key(), dependent)
	}
	return result, ok
}

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
	"github.com/turbolent/prettier"

	"github.com/onflow/nestpm/analysis"
	"github.com/onflow/nestpm/ir"
	"github.com/onflow/nestpm/pass"
)

// ModuleToFunctionAdaptor runs a function pass on all function definitions of a module,
// in program order.
type ModuleToFunctionAdaptor struct {
	config *pass.Config
	pass   Pass
}

var _ ModulePass = &ModuleToFunctionAdaptor{}

func NewModuleToFunctionAdaptor(config *pass.Config, p Pass) *ModuleToFunctionAdaptor {
	return &ModuleToFunctionAdaptor{
		config: config,
		pass:   p,
	}
}

func (*ModuleToFunctionAdaptor) Name() string {
	return "ModuleToFunctionPassAdaptor"
}

func (*ModuleToFunctionAdaptor) IsRequired() bool {
	return true
}

func (a *ModuleToFunctionAdaptor) Run(
	module *ir.Module,
	moduleManager *ModuleManager,
	_ analysis.NoExtra,
	moduleUpdater *ModuleUpdater,
) analysis.PreservedSet {

	if moduleUpdater.SkipCurrentUnit() {
		return analysis.All()
	}

	manager := GetManager(moduleManager, module)

	worklist := pass.NewWorklist[*ir.Function]()

	functions := module.Functions()
	for i := len(functions) - 1; i >= 0; i-- {
		function := functions[i]
		if function.IsDeclaration() {
			continue
		}
		worklist.Insert(function)
	}

	updater := pass.NewUpdater[*ir.Function](worklist, manager, nil)

	preserved := pass.Drain(
		a.config,
		a.pass,
		updater,
		manager,
		analysis.NoExtra{},
		pass.Identity[*ir.Function],
	)

	// The function analyses were invalidated after each function pass,
	// only the module analyses must still be invalidated
	return preserved.
		PreserveSet(analysis.AllAnalysesOn[*ir.Function]()).
		Preserve(ManagerModuleProxy.Key())
}

func (a *ModuleToFunctionAdaptor) PipelineDoc() prettier.Doc {
	return pass.AdaptorDoc("function", pass.PassDoc(a.pass))
}

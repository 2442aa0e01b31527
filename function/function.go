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

// Package function runs passes on the functions of a module,
// and provides the standard function analyses.
package function

import (
	"github.com/onflow/nestpm/analysis"
	"github.com/onflow/nestpm/ir"
	"github.com/onflow/nestpm/pass"
)

// Manager caches the results of analyses on functions.
type Manager = analysis.Manager[*ir.Function, analysis.NoExtra]

// Registry collects the analyses on functions.
type Registry = analysis.Registry[*ir.Function, analysis.NoExtra]

// ModuleManager caches the results of analyses on modules.
type ModuleManager = analysis.Manager[*ir.Module, analysis.NoExtra]

type ModuleRegistry = analysis.Registry[*ir.Module, analysis.NoExtra]

type Updater = pass.Updater[*ir.Function]

type ModuleUpdater = pass.Updater[*ir.Module]

// Pass transforms a function.
type Pass = pass.Pass[*ir.Function, *Manager, analysis.NoExtra, *Updater]

type PassManager = pass.Manager[*ir.Function, *Manager, analysis.NoExtra, *Updater]

// ModulePass transforms a module.
type ModulePass = pass.Pass[*ir.Module, *ModuleManager, analysis.NoExtra, *ModuleUpdater]

type ModulePassManager = pass.Manager[*ir.Module, *ModuleManager, analysis.NoExtra, *ModuleUpdater]

func NewManager(config analysis.Config, registry *Registry) *Manager {
	return analysis.NewManager(config, registry)
}

func NewModuleManager(config analysis.Config, registry *ModuleRegistry) *ModuleManager {
	return analysis.NewManager(config, registry)
}

func NewPassManager(config *pass.Config) *PassManager {
	return pass.NewManager[*ir.Function, *Manager, analysis.NoExtra, *Updater](
		"FunctionPassManager",
		config,
	)
}

func NewModulePassManager(config *pass.Config) *ModulePassManager {
	return pass.NewManager[*ir.Module, *ModuleManager, analysis.NoExtra, *ModuleUpdater](
		"ModulePassManager",
		config,
	)
}

// Run runs the module passes on the module.
func Run(passes *ModulePassManager, module *ir.Module, manager *ModuleManager) analysis.PreservedSet {
	updater := pass.NewRootUpdater[*ir.Module](module, manager)
	return passes.Run(module, manager, analysis.NoExtra{}, updater)
}

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

package function_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/onflow/nestpm/analysis"
	"github.com/onflow/nestpm/function"
	"github.com/onflow/nestpm/ir"
	"github.com/onflow/nestpm/ir/irtest"
	"github.com/onflow/nestpm/pass"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type moduleFacts struct {
	functionCount int
}

var moduleFactsAnalysis = analysis.NewKind[*ir.Module, analysis.NoExtra, *moduleFacts]("ModuleFacts")

type functionFacts struct {
	functionCount int
}

var functionFactsAnalysis = analysis.NewKind[*ir.Function, analysis.NoExtra, *functionFacts]("FunctionFacts")

type fixture struct {
	module        *ir.Module
	moduleManager *function.ModuleManager
	manager       *function.Manager
	runs          map[string]int
}

func newFixture() *fixture {
	f := &fixture{
		module: irtest.Module(),
		runs:   map[string]int{},
	}

	registry := analysis.NewRegistry[*ir.Function, analysis.NoExtra]()
	function.RegisterStandardAnalyses(registry)

	analysis.Register(
		registry,
		functionFactsAnalysis,
		func(fn *ir.Function, manager *function.Manager, _ analysis.NoExtra) *functionFacts {
			f.runs["FunctionFacts "+fn.Name()]++

			facts, ok := function.GetCachedModuleResult(
				manager,
				fn,
				moduleFactsAnalysis,
				functionFactsAnalysis.Key(),
			)
			if !ok {
				return &functionFacts{}
			}
			return &functionFacts{
				functionCount: facts.functionCount,
			}
		},
	)

	moduleRegistry := analysis.NewRegistry[*ir.Module, analysis.NoExtra]()
	analysis.Register(
		moduleRegistry,
		moduleFactsAnalysis,
		func(module *ir.Module, _ *function.ModuleManager, _ analysis.NoExtra) *moduleFacts {
			f.runs["ModuleFacts"]++
			return &moduleFacts{
				functionCount: len(module.Functions()),
			}
		},
	)

	f.manager = function.NewManager(analysis.Config{Name: "function"}, registry)
	f.moduleManager = function.NewModuleManager(analysis.Config{Name: "module"}, moduleRegistry)
	function.RegisterProxies(f.moduleManager, f.manager)

	return f
}

func (f *fixture) function(name string) *ir.Function {
	for _, fn := range f.module.Functions() {
		if fn.Name() == name {
			return fn
		}
	}
	return nil
}

func (f *fixture) run(passes ...function.ModulePass) analysis.PreservedSet {
	manager := function.NewModulePassManager(nil)
	for _, p := range passes {
		manager.AddPass(p)
	}
	return function.Run(manager, f.module, f.moduleManager)
}

type functionAction func(fn *ir.Function, manager *function.Manager, updater *function.Updater)

func newFunctionPass(name string, calls *[]string, preserved analysis.PreservedSet, action functionAction) function.Pass {
	return pass.PassFunc[*ir.Function, *function.Manager, analysis.NoExtra, *function.Updater]{
		PassName: name,
		Func: func(fn *ir.Function, manager *function.Manager, _ analysis.NoExtra, updater *function.Updater) analysis.PreservedSet {
			*calls = append(*calls, name+"("+fn.Name()+")")
			if action != nil {
				action(fn, manager, updater)
			}
			return preserved
		},
	}
}

func newModulePass(name string, preserved analysis.PreservedSet) function.ModulePass {
	return pass.PassFunc[*ir.Module, *function.ModuleManager, analysis.NoExtra, *function.ModuleUpdater]{
		PassName: name,
		Func: func(*ir.Module, *function.ModuleManager, analysis.NoExtra, *function.ModuleUpdater) analysis.PreservedSet {
			return preserved
		},
	}
}

func newAdaptor(passes ...function.Pass) *function.ModuleToFunctionAdaptor {
	manager := function.NewPassManager(nil)
	for _, p := range passes {
		manager.AddPass(p)
	}
	return function.NewModuleToFunctionAdaptor(nil, manager)
}

func requestDominatorTree(fn *ir.Function, manager *function.Manager, _ *function.Updater) {
	analysis.GetResult(manager, function.DominatorTreeAnalysis, fn, analysis.NoExtra{})
}

func TestStandardAnalyses(t *testing.T) {

	t.Parallel()

	f := newFixture()
	fn := f.function("f")

	info := analysis.GetResult(f.manager, function.LoopAnalysis, fn, analysis.NoExtra{})
	require.Len(t, info.TopLevelLoops(), 1)
	assert.Equal(t, "loop.0", info.TopLevelLoops()[0].Name())

	tree, ok := analysis.GetCachedResult(f.manager, function.DominatorTreeAnalysis, fn)
	require.True(t, ok)
	assert.Same(t, fn.Block("entry"), tree.Root())

	assert.Same(t, info, analysis.GetResult(f.manager, function.LoopAnalysis, fn, analysis.NoExtra{}))
}

func TestModuleToFunctionAdaptor(t *testing.T) {

	t.Parallel()

	t.Run("order", func(t *testing.T) {

		t.Parallel()

		f := newFixture()
		f.module.AddFunction(ir.NewFunction("declaration"))

		var calls []string
		f.run(
			newAdaptor(
				newFunctionPass("p1", &calls, analysis.All(), nil),
				newFunctionPass("p2", &calls, analysis.All(), nil),
			),
		)

		assert.Equal(t,
			[]string{"p1(f)", "p2(f)", "p1(g)", "p2(g)", "p1(h)", "p2(h)"},
			calls,
		)
	})

	t.Run("function results survive", func(t *testing.T) {

		t.Parallel()

		f := newFixture()

		var calls []string
		preserved := f.run(
			newAdaptor(
				newFunctionPass("p", &calls, analysis.None(), requestDominatorTree),
			),
		)

		assert.True(t, preserved.AllAnalysesInSetPreserved(analysis.AllAnalysesOn[*ir.Function]()))
		assert.True(t, preserved.Checker(function.ManagerModuleProxy.Key()).Preserved())

		// The function pass manager invalidated the trees after the pass
		for _, fn := range f.module.Functions() {
			_, ok := analysis.GetCachedResult(f.manager, function.DominatorTreeAnalysis, fn)
			assert.False(t, ok)
		}

		f.run(
			newAdaptor(
				newFunctionPass("p", &calls, analysis.All(), requestDominatorTree),
			),
		)

		for _, fn := range f.module.Functions() {
			_, ok := analysis.GetCachedResult(f.manager, function.DominatorTreeAnalysis, fn)
			assert.True(t, ok)
		}
	})

	t.Run("deleted function", func(t *testing.T) {

		t.Parallel()

		f := newFixture()

		var calls []string
		f.run(
			newAdaptor(
				newFunctionPass(
					"p1",
					&calls,
					analysis.All(),
					func(fn *ir.Function, manager *function.Manager, updater *function.Updater) {
						requestDominatorTree(fn, manager, updater)
						if fn.Name() == "g" {
							fn.Module().RemoveFunction(fn)
							updater.MarkAsDeleted(fn, "removed by p1")
						}
					},
				),
				newFunctionPass("p2", &calls, analysis.All(), nil),
			),
		)

		assert.Equal(t,
			[]string{"p1(f)", "p2(f)", "p1(g)", "p1(h)", "p2(h)"},
			calls,
		)
		assert.Nil(t, f.function("g"))

		_, ok := analysis.GetCachedResult(f.manager, function.DominatorTreeAnalysis, f.function("f"))
		assert.True(t, ok)
	})

	t.Run("new function", func(t *testing.T) {

		t.Parallel()

		f := newFixture()
		added := ir.BuildFunction("k", ir.Edge{From: "entry", To: "exit"})

		var calls []string
		f.run(
			newAdaptor(
				newFunctionPass(
					"p",
					&calls,
					analysis.All(),
					func(fn *ir.Function, _ *function.Manager, updater *function.Updater) {
						if fn.Name() == "f" {
							fn.Module().AddFunction(added)
							updater.AddNewUnits(added)
						}
					},
				),
			),
		)

		assert.Equal(t, []string{"p(f)", "p(k)", "p(g)", "p(h)"}, calls)
	})

	t.Run("module already skipped", func(t *testing.T) {

		t.Parallel()

		f := newFixture()

		updater := pass.NewRootUpdater[*ir.Module](f.module, f.moduleManager)
		updater.MarkAsDeleted(f.module, "deleted")

		var calls []string
		adaptor := newAdaptor(newFunctionPass("p", &calls, analysis.None(), nil))

		preserved := adaptor.Run(f.module, f.moduleManager, analysis.NoExtra{}, updater)

		assert.True(t, preserved.AreAllPreserved())
		assert.Empty(t, calls)
		assert.True(t, f.manager.Empty())
	})

	t.Run("pipeline", func(t *testing.T) {

		t.Parallel()

		var calls []string
		manager := function.NewModulePassManager(nil).
			AddPass(newModulePass("globalopt", analysis.All())).
			AddPass(
				newAdaptor(
					newFunctionPass("simplify", &calls, analysis.All(), nil),
					newFunctionPass("licm", &calls, analysis.All(), nil),
				),
			)

		assert.Equal(t,
			"globalopt, function(simplify, licm)",
			pass.PipelineString(manager, 80),
		)
	})
}

func TestModuleInvalidation(t *testing.T) {

	t.Parallel()

	// computeAll fills the caches of all function definitions
	computeAll := func(f *fixture) {
		analysis.GetResult(f.moduleManager, moduleFactsAnalysis, f.module, analysis.NoExtra{})
		for _, fn := range f.module.Functions() {
			analysis.GetResult(f.manager, function.DominatorTreeAnalysis, fn, analysis.NoExtra{})
			analysis.GetResult(f.manager, functionFactsAnalysis, fn, analysis.NoExtra{})
		}
	}

	t.Run("proxy abandoned", func(t *testing.T) {

		t.Parallel()

		f := newFixture()
		function.GetManager(f.moduleManager, f.module)
		computeAll(f)

		f.run(newModulePass("p", analysis.None()))

		assert.True(t, f.manager.Empty())

		_, ok := analysis.GetCachedResult(f.moduleManager, function.ManagerModuleProxy, f.module)
		assert.False(t, ok)
	})

	t.Run("proxy preserved", func(t *testing.T) {

		t.Parallel()

		f := newFixture()
		function.GetManager(f.moduleManager, f.module)
		computeAll(f)

		f.run(newModulePass("p", analysis.None().Preserve(function.ManagerModuleProxy.Key())))

		for _, fn := range f.module.Functions() {
			_, ok := analysis.GetCachedResult(f.manager, function.DominatorTreeAnalysis, fn)
			assert.False(t, ok)
		}

		_, ok := analysis.GetCachedResult(f.moduleManager, function.ManagerModuleProxy, f.module)
		assert.True(t, ok)
	})

	t.Run("function analyses preserved", func(t *testing.T) {

		t.Parallel()

		f := newFixture()
		function.GetManager(f.moduleManager, f.module)
		computeAll(f)

		f.run(
			newModulePass(
				"p",
				analysis.None().
					Preserve(function.ManagerModuleProxy.Key()).
					PreserveSet(analysis.AllAnalysesOn[*ir.Function]()),
			),
		)

		// The module analysis was invalidated, so are the function analyses depending on it
		_, ok := analysis.GetCachedResult(f.moduleManager, moduleFactsAnalysis, f.module)
		assert.False(t, ok)

		for _, fn := range f.module.Functions() {
			_, ok := analysis.GetCachedResult(f.manager, function.DominatorTreeAnalysis, fn)
			assert.True(t, ok)

			_, ok = analysis.GetCachedResult(f.manager, functionFactsAnalysis, fn)
			assert.False(t, ok)
		}

		assert.Equal(t, 1, f.runs["FunctionFacts f"])
		facts := analysis.GetResult(f.manager, functionFactsAnalysis, f.function("f"), analysis.NoExtra{})
		assert.Equal(t, 2, f.runs["FunctionFacts f"])

		// The module analysis is not computed from a function
		assert.Equal(t, 0, facts.functionCount)
	})

	t.Run("all preserved", func(t *testing.T) {

		t.Parallel()

		f := newFixture()
		function.GetManager(f.moduleManager, f.module)
		computeAll(f)

		f.run(newModulePass("p", analysis.All()))

		for _, fn := range f.module.Functions() {
			facts, ok := analysis.GetCachedResult(f.manager, functionFactsAnalysis, fn)
			require.True(t, ok)
			assert.Equal(t, 3, facts.functionCount)
		}
	})
}

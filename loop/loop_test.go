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

package loop_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/onflow/nestpm/analysis"
	"github.com/onflow/nestpm/errors"
	"github.com/onflow/nestpm/function"
	"github.com/onflow/nestpm/ir"
	"github.com/onflow/nestpm/ir/irtest"
	"github.com/onflow/nestpm/loop"
	"github.com/onflow/nestpm/pass"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type functionFacts struct {
	blockCount int
}

var functionFactsAnalysis = analysis.NewKind[*ir.Function, analysis.NoExtra, *functionFacts]("FunctionFacts")

type loopFacts struct {
	depth int
}

var loopFactsAnalysis = analysis.NewKind[*ir.Loop, *loop.StandardResults, *loopFacts]("LoopFacts")

type outerFacts struct {
	blockCount int
	found      bool
}

var outerFactsAnalysis = analysis.NewKind[*ir.Loop, *loop.StandardResults, *outerFacts]("OuterFacts")

type fixture struct {
	module          *ir.Module
	moduleManager   *function.ModuleManager
	functionManager *function.Manager
	manager         *loop.Manager
	runs            map[string]int
}

func newFixture() *fixture {
	f := &fixture{
		module: irtest.Module(),
		runs:   map[string]int{},
	}

	functionRegistry := analysis.NewRegistry[*ir.Function, analysis.NoExtra]()
	function.RegisterStandardAnalyses(functionRegistry)
	analysis.Register(
		functionRegistry,
		functionFactsAnalysis,
		func(fn *ir.Function, _ *function.Manager, _ analysis.NoExtra) *functionFacts {
			f.runs["FunctionFacts "+fn.Name()]++
			return &functionFacts{
				blockCount: len(fn.Blocks()),
			}
		},
	)

	registry := analysis.NewRegistry[*ir.Loop, *loop.StandardResults]()
	analysis.Register(
		registry,
		loopFactsAnalysis,
		func(l *ir.Loop, _ *loop.Manager, _ *loop.StandardResults) *loopFacts {
			f.runs["LoopFacts "+l.Name()]++
			return &loopFacts{
				depth: l.Depth(),
			}
		},
	)
	analysis.Register(
		registry,
		outerFactsAnalysis,
		func(l *ir.Loop, manager *loop.Manager, results *loop.StandardResults) *outerFacts {
			f.runs["OuterFacts "+l.Name()]++

			facts, ok := loop.GetCachedFunctionResult(
				manager,
				l,
				results,
				functionFactsAnalysis,
				outerFactsAnalysis.Key(),
			)
			if !ok {
				return &outerFacts{}
			}
			return &outerFacts{
				blockCount: facts.blockCount,
				found:      true,
			}
		},
	)

	f.moduleManager = function.NewModuleManager(analysis.Config{Name: "module"}, nil)
	f.functionManager = function.NewManager(analysis.Config{Name: "function"}, functionRegistry)
	f.manager = loop.NewManager(analysis.Config{Name: "loop"}, registry)

	function.RegisterProxies(f.moduleManager, f.functionManager)
	loop.RegisterProxies(f.functionManager, f.manager)

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

// loop returns the loop of the function with the given header
func (f *fixture) loop(functionName string, name string) *ir.Loop {
	fn := f.function(functionName)
	info := analysis.GetResult(f.functionManager, function.LoopAnalysis, fn, analysis.NoExtra{})
	for _, l := range info.LoopsInPreorder() {
		if l.Name() == name {
			return l
		}
	}
	return nil
}

func (f *fixture) run(passes ...function.Pass) {
	functionPasses := function.NewPassManager(nil)
	for _, p := range passes {
		functionPasses.AddPass(p)
	}

	modulePasses := function.NewModulePassManager(nil).
		AddPass(function.NewModuleToFunctionAdaptor(nil, functionPasses))

	function.Run(modulePasses, f.module, f.moduleManager)
}

func (f *fixture) cachedLoopFacts(functionName string, name string) bool {
	_, ok := analysis.GetCachedResult(f.manager, loopFactsAnalysis, f.loop(functionName, name))
	return ok
}

type loopAction func(l *ir.Loop, manager *loop.Manager, results *loop.StandardResults, updater *loop.Updater)

func newLoopPass(name string, calls *[]string, preserved analysis.PreservedSet, action loopAction) loop.Pass {
	return pass.PassFunc[*ir.Loop, *loop.Manager, *loop.StandardResults, *loop.Updater]{
		PassName: name,
		Func: func(
			l *ir.Loop,
			manager *loop.Manager,
			results *loop.StandardResults,
			updater *loop.Updater,
		) analysis.PreservedSet {
			*calls = append(*calls, name+"("+l.Name()+")")
			if action != nil {
				action(l, manager, results, updater)
			}
			return preserved
		},
	}
}

type nestAction func(nest *loop.Nest, manager *loop.NestManager, results *loop.StandardResults, updater *loop.Updater)

func newNestPass(name string, calls *[]string, preserved analysis.PreservedSet, action nestAction) loop.NestPass {
	return pass.PassFunc[*loop.Nest, *loop.NestManager, *loop.StandardResults, *loop.Updater]{
		PassName: name,
		Func: func(
			nest *loop.Nest,
			manager *loop.NestManager,
			results *loop.StandardResults,
			updater *loop.Updater,
		) analysis.PreservedSet {
			*calls = append(*calls, name+"("+nest.Name()+")")
			if action != nil {
				action(nest, manager, results, updater)
			}
			return preserved
		},
	}
}

func requestLoopFacts(l *ir.Loop, manager *loop.Manager, results *loop.StandardResults, _ *loop.Updater) {
	analysis.GetResult(manager, loopFactsAnalysis, l, results)
}

func newNestAdaptor(passes ...loop.NestPass) *loop.FunctionToNestAdaptor {
	manager := loop.NewNestPassManager(nil)
	for _, p := range passes {
		manager.AddPass(p)
	}
	return loop.NewFunctionToNestAdaptor(nil, manager, nil)
}

func newLoopAdaptor(config *pass.Config, passes ...loop.Pass) *loop.FunctionToLoopAdaptor {
	manager := loop.NewPassManager(config)
	for _, p := range passes {
		manager.AddPass(p)
	}
	return loop.NewFunctionToLoopAdaptor(config, manager, nil)
}

func TestNest(t *testing.T) {

	t.Parallel()

	t.Run("nested loops", func(t *testing.T) {

		t.Parallel()

		f := newFixture()

		nest := loop.NewNest(f.loop("f", "loop.0"))

		assert.Equal(t, "loop.0", nest.Name())
		assert.Equal(t,
			[]string{"loop.0", "loop.0.0", "loop.0.1"},
			irtest.LoopNames(nest.Loops()),
		)
		assert.Equal(t, 2, nest.Depth())
		assert.False(t, nest.IsPerfect())
		assert.Equal(t,
			[]string{"loop.0.0", "loop.0.1"},
			irtest.LoopNames(nest.LoopsAtDepth(2)),
		)
	})

	t.Run("perfect nest", func(t *testing.T) {

		t.Parallel()

		f := newFixture()

		nest := loop.NewNest(f.loop("g", "loop.g.1"))
		assert.Equal(t, 2, nest.Depth())
		assert.True(t, nest.IsPerfect())

		single := loop.NewNest(f.loop("g", "loop.g.0"))
		assert.Equal(t, 1, single.Depth())
		assert.True(t, single.IsPerfect())
	})

	t.Run("reconstruct", func(t *testing.T) {

		t.Parallel()

		f := newFixture()
		info := analysis.GetResult(f.functionManager, function.LoopAnalysis, f.function("f"), analysis.NoExtra{})

		nest := loop.NewNest(f.loop("f", "loop.0"))
		loops := nest.Loops()

		info.Erase(f.loop("f", "loop.0.1"))
		nest.Reconstruct()

		assert.Equal(t, []string{"loop.0", "loop.0.0"}, irtest.LoopNames(nest.Loops()))

		// Previously returned loops are unaffected
		assert.Equal(t, []string{"loop.0", "loop.0.0", "loop.0.1"}, irtest.LoopNames(loops))
	})

	t.Run("analysis of nested loop", func(t *testing.T) {

		t.Parallel()

		f := newFixture()

		assert.PanicsWithValue(t,
			errors.NotTopLevelError{
				Unit: "loop.0.0",
			},
			func() {
				analysis.GetResult(f.manager, loop.NestAnalysis, f.loop("f", "loop.0.0"), &loop.StandardResults{})
			},
		)
	})
}

func TestNestManager(t *testing.T) {

	t.Parallel()

	f := newFixture()
	fn := f.function("f")

	results := &loop.StandardResults{
		Function: fn,
		LoopInfo: analysis.GetResult(f.functionManager, function.LoopAnalysis, fn, analysis.NoExtra{}),
	}

	nestManager := loop.NewNestManager(f.manager)
	assert.Same(t, f.manager, nestManager.LoopManager())
	assert.True(t, nestManager.Empty())

	root := f.loop("f", "loop.0")
	nest := nestManager.GetLoopNest(root, results)
	assert.Same(t, nest, nestManager.GetLoopNest(root, results))

	for _, l := range nest.Loops() {
		analysis.GetResult(f.manager, loopFactsAnalysis, l, results)
	}

	// Invalidating the nest invalidates all its loops
	nestManager.Invalidate(nest, analysis.None().Preserve(loop.NestAnalysis.Key()))

	for _, l := range nest.Loops() {
		_, ok := analysis.GetCachedResult(f.manager, loopFactsAnalysis, l)
		assert.False(t, ok, l.Name())
	}

	cached, ok := analysis.GetCachedResult(f.manager, loop.NestAnalysis, root)
	require.True(t, ok)
	assert.Same(t, nest, cached)

	nestManager.Clear(nest, "deleted")
	assert.True(t, nestManager.Empty())
}

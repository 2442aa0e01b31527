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
	"fmt"
	"slices"

	"github.com/turbolent/prettier"

	"github.com/onflow/nestpm/analysis"
	"github.com/onflow/nestpm/errors"
	"github.com/onflow/nestpm/function"
	"github.com/onflow/nestpm/ir"
	"github.com/onflow/nestpm/pass"
)

type functionAdaptor struct {
	config  *pass.Config
	prelude *function.PassManager
}

// prepare runs the prelude function passes, which may e.g. bring loops into a canonical form,
// and returns the standard results of the function.
// It returns false if the prelude deleted the function, or the function has no loops.
func (a functionAdaptor) prepare(
	fn *ir.Function,
	manager *function.Manager,
	updater *function.Updater,
) (
	results *StandardResults,
	preserved analysis.PreservedSet,
	ok bool,
) {
	preserved = analysis.All()

	if a.prelude != nil && !a.prelude.Empty() {
		preserved, _ = pass.RunPass(a.config, a.prelude, fn, manager, analysis.NoExtra{}, updater)
		if updater.SkipCurrentUnit() {
			return nil, preserved, false
		}
	}

	info := analysis.GetResult(manager, function.LoopAnalysis, fn, analysis.NoExtra{})
	if info.Empty() {
		return nil, preserved, false
	}

	results = &StandardResults{
		Function: fn,
		DomTree:  analysis.GetResult(manager, function.DominatorTreeAnalysis, fn, analysis.NoExtra{}),
		LoopInfo: info,
	}

	return results, preserved, true
}

// loopManager returns the loop analysis manager of the function.
// The proxy must be cached before any loop result, so invalidations of the function reach the loops.
func (functionAdaptor) loopManager(fn *ir.Function, manager *function.Manager) *Manager {
	return analysis.GetResult(manager, ManagerFunctionProxy, fn, analysis.NoExtra{}).Manager()
}

func (functionAdaptor) finish(preserved analysis.PreservedSet) analysis.PreservedSet {
	// Loop passes must preserve the standard analyses,
	// and the loop results were invalidated after each pass
	return preserved.
		PreserveSet(analysis.AllAnalysesOn[*ir.Loop]()).
		Preserve(
			ManagerFunctionProxy.Key(),
			function.DominatorTreeAnalysis.Key(),
			function.LoopAnalysis.Key(),
		)
}

// FunctionToNestAdaptor runs a loop nest pass on the loop nests of a function, in program order.
type FunctionToNestAdaptor struct {
	functionAdaptor
	pass NestPass
}

var _ function.Pass = &FunctionToNestAdaptor{}

// NewFunctionToNestAdaptor returns an adaptor for the loop nest pass.
// The prelude, if given, is run on the function before its loops are computed.
func NewFunctionToNestAdaptor(config *pass.Config, p NestPass, prelude *function.PassManager) *FunctionToNestAdaptor {
	return &FunctionToNestAdaptor{
		functionAdaptor: functionAdaptor{
			config:  config,
			prelude: prelude,
		},
		pass: p,
	}
}

func (*FunctionToNestAdaptor) Name() string {
	return "FunctionToLoopNestPassAdaptor"
}

func (*FunctionToNestAdaptor) IsRequired() bool {
	return true
}

func (a *FunctionToNestAdaptor) Run(
	fn *ir.Function,
	functionManager *function.Manager,
	_ analysis.NoExtra,
	functionUpdater *function.Updater,
) analysis.PreservedSet {

	if functionUpdater.SkipCurrentUnit() {
		return analysis.All()
	}

	results, preserved, ok := a.prepare(fn, functionManager, functionUpdater)
	if !ok {
		return preserved
	}

	manager := a.loopManager(fn, functionManager)

	nestManager := NewNestManager(manager)

	worklist := pass.NewWorklist[*ir.Loop]()
	topLevel := results.LoopInfo.TopLevelLoops()
	for i := len(topLevel) - 1; i >= 0; i-- {
		worklist.Insert(topLevel[i])
	}

	updater := newUpdater(a.config, worklist, manager, true)

	nestsPreserved := pass.Drain(
		a.config,
		a.pass,
		updater,
		nestManager,
		results,
		func(root *ir.Loop) *Nest {
			return nestManager.GetLoopNest(root, results)
		},
	)

	return a.finish(preserved.Intersect(nestsPreserved))
}

func (a *FunctionToNestAdaptor) PipelineDoc() prettier.Doc {
	return pass.AdaptorDoc("loop-nest", pass.PassDoc(a.pass))
}

// FunctionToLoopAdaptor runs a loop pass on all loops of a function.
// The loops of each top-level loop are processed innermost first,
// and top-level loops in program order.
type FunctionToLoopAdaptor struct {
	functionAdaptor
	pass Pass
}

var _ function.Pass = &FunctionToLoopAdaptor{}

// NewFunctionToLoopAdaptor returns an adaptor for the loop pass.
// The prelude, if given, is run on the function before its loops are computed.
func NewFunctionToLoopAdaptor(config *pass.Config, p Pass, prelude *function.PassManager) *FunctionToLoopAdaptor {
	return &FunctionToLoopAdaptor{
		functionAdaptor: functionAdaptor{
			config:  config,
			prelude: prelude,
		},
		pass: p,
	}
}

func (*FunctionToLoopAdaptor) Name() string {
	return "FunctionToLoopPassAdaptor"
}

func (*FunctionToLoopAdaptor) IsRequired() bool {
	return true
}

func (a *FunctionToLoopAdaptor) Run(
	fn *ir.Function,
	functionManager *function.Manager,
	_ analysis.NoExtra,
	functionUpdater *function.Updater,
) analysis.PreservedSet {

	if functionUpdater.SkipCurrentUnit() {
		return analysis.All()
	}

	results, preserved, ok := a.prepare(fn, functionManager, functionUpdater)
	if !ok {
		return preserved
	}

	manager := a.loopManager(fn, functionManager)

	worklist := pass.NewWorklist[*ir.Loop]()
	topLevel := slices.Clone(results.LoopInfo.TopLevelLoops())
	slices.Reverse(topLevel)
	appendLoopsToWorklist(topLevel, worklist)

	updater := newUpdater(a.config, worklist, manager, false)

	loopsPreserved := pass.Drain(
		a.config,
		verifiedLoopPass(a.config, a.pass),
		updater,
		manager,
		results,
		pass.Identity[*ir.Loop],
	)

	return a.finish(preserved.Intersect(loopsPreserved))
}

func (a *FunctionToLoopAdaptor) PipelineDoc() prettier.Doc {
	return pass.AdaptorDoc("loop", pass.PassDoc(a.pass))
}

// NestToLoopAdaptor runs a loop pass on all loops of a loop nest, innermost loops first.
// If the top-level loop is deleted, the loop nest is deleted.
type NestToLoopAdaptor struct {
	config *pass.Config
	pass   Pass
}

var _ NestPass = &NestToLoopAdaptor{}

func NewNestToLoopAdaptor(config *pass.Config, p Pass) *NestToLoopAdaptor {
	return &NestToLoopAdaptor{
		config: config,
		pass:   p,
	}
}

func (*NestToLoopAdaptor) Name() string {
	return "LoopNestToLoopPassAdaptor"
}

func (*NestToLoopAdaptor) IsRequired() bool {
	return true
}

func (a *NestToLoopAdaptor) Run(
	nest *Nest,
	nestManager *NestManager,
	results *StandardResults,
	nestUpdater *Updater,
) analysis.PreservedSet {

	if nestUpdater.SkipCurrentUnit() {
		return analysis.All()
	}

	manager := nestManager.LoopManager()

	worklist := pass.NewWorklist[*ir.Loop]()
	appendLoopsToWorklist([]*ir.Loop{nest.Root()}, worklist)

	updater := newUpdater(a.config, worklist, manager, false)
	updater.root = nest.Root()

	preserved := pass.Drain(
		a.config,
		verifiedLoopPass(a.config, a.pass),
		updater,
		manager,
		results,
		pass.Identity[*ir.Loop],
	)

	if updater.rootDeleted {
		nestUpdater.MarkLoopNestAsDeleted(nest, updater.deletedReason)
	}

	return preserved.PreserveSet(analysis.AllAnalysesOn[*ir.Loop]())
}

func (a *NestToLoopAdaptor) PipelineDoc() prettier.Doc {
	return pass.AdaptorDoc("loop", pass.PassDoc(a.pass))
}

// verifiedLoopPass returns the loop pass,
// or a pass which verifies the loop structure after each run, if enabled.
func verifiedLoopPass(config *pass.Config, p Pass) Pass {
	if config == nil || !config.VerifyStructure {
		return p
	}
	return verifyingPass{
		pass: p,
	}
}

type verifyingPass struct {
	pass Pass
}

var _ Pass = verifyingPass{}

func (p verifyingPass) Name() string {
	return p.pass.Name()
}

func (p verifyingPass) IsRequired() bool {
	return pass.IsRequired(p.pass)
}

func (p verifyingPass) PipelineDoc() prettier.Doc {
	return pass.PassDoc(p.pass)
}

func (p verifyingPass) Run(
	loop *ir.Loop,
	manager *Manager,
	results *StandardResults,
	updater *Updater,
) analysis.PreservedSet {
	loopName := loop.Name()
	preserved := p.pass.Run(loop, manager, results, updater)
	verifyStructure(p.pass.Name(), loopName, results, updater)
	return preserved
}

// verifyStructure panics with a StructureError if the loop info is inconsistent,
// or if a loop that was marked as deleted is still part of it.
func verifyStructure(passName string, loopName string, results *StandardResults, updater *Updater) {
	deleted := updater.deleted
	updater.deleted = nil

	err := results.LoopInfo.Verify()
	if err == nil {
		reachable := results.LoopInfo.LoopsInPreorder()
		for _, loop := range deleted {
			if slices.Contains(reachable, loop) {
				err = fmt.Errorf("loop %s was marked as deleted but is still reachable", loop.Name())
				break
			}
		}
	}

	if err != nil {
		panic(errors.StructureError{
			Pass: passName,
			Unit: loopName,
			Err:  err,
		})
	}
}

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
	"github.com/bits-and-blooms/bitset"
	"github.com/turbolent/prettier"

	"github.com/onflow/nestpm/analysis"
	"github.com/onflow/nestpm/ir"
	"github.com/onflow/nestpm/pass"
)

// PassManager runs a sequence of loop passes and loop nest passes on a loop.
//
// Loop nest passes are only run on top-level loops, on the loop nest of the loop.
// The loop nest is built when the first loop nest pass is run,
// and reconstructed in place if a pass did not preserve the loop nest analysis,
// so the cached loop nest keeps its identity.
type PassManager struct {
	config     *pass.Config
	loopPasses []Pass
	nestPasses []NestPass
	// isNestPass has a bit set for each position of a loop nest pass in the sequence
	isNestPass *bitset.BitSet
	length     uint
}

var _ Pass = &PassManager{}

func NewPassManager(config *pass.Config) *PassManager {
	return &PassManager{
		config:     config,
		isNestPass: bitset.New(0),
	}
}

// AddPass appends a loop pass to the sequence.
func (m *PassManager) AddPass(p Pass) *PassManager {
	m.loopPasses = append(m.loopPasses, p)
	m.length++
	return m
}

// AddNestPass appends a loop nest pass to the sequence.
func (m *PassManager) AddNestPass(p NestPass) *PassManager {
	m.isNestPass.Set(m.length)
	m.nestPasses = append(m.nestPasses, p)
	m.length++
	return m
}

func (*PassManager) Name() string {
	return "LoopPassManager"
}

func (*PassManager) IsRequired() bool {
	return true
}

func (m *PassManager) Empty() bool {
	return m.length == 0
}

// IsLoopNestPassManager returns true if the sequence only consists of loop nest passes.
func (m *PassManager) IsLoopNestPassManager() bool {
	return len(m.loopPasses) == 0 && len(m.nestPasses) > 0
}

func (m *PassManager) Run(
	loop *ir.Loop,
	manager *Manager,
	results *StandardResults,
	updater *Updater,
) analysis.PreservedSet {

	logger := m.config.GetLogger()

	logger.Debug().
		Str("passManager", m.Name()).
		Str("unit", loop.Name()).
		Msg("Starting pass manager run")

	nestManager := NewNestManager(manager)

	var nest *Nest
	nestValid := false

	preserved := analysis.All()

	var loopIndex, nestIndex int

	for i := uint(0); i < m.length; i++ {
		var passPreserved analysis.PreservedSet
		var ran bool

		isNestPass := m.isNestPass.Test(i)

		if isNestPass {
			nestPass := m.nestPasses[nestIndex]
			nestIndex++

			if !loop.IsOutermost() {
				continue
			}

			if nest == nil {
				nest = nestManager.GetLoopNest(loop, results)
			} else if !nestValid {
				nest.Reconstruct()
			}
			nestValid = true

			passPreserved, ran = pass.RunPass(m.config, nestPass, nest, nestManager, results, updater)
		} else {
			loopPass := m.loopPasses[loopIndex]
			loopIndex++

			passPreserved, ran = pass.RunPass(m.config, loopPass, loop, manager, results, updater)
		}

		if !ran {
			continue
		}

		preserved = preserved.Intersect(passPreserved)

		if updater.SkipCurrentUnit() {
			break
		}

		invalidated := passPreserved
		if nest != nil && !passPreserved.Checker(NestAnalysis.Key()).Preserved() {
			// The cached loop nest is reconstructed in place
			invalidated = invalidated.Preserve(NestAnalysis.Key())
			nestValid = false
		}

		if isNestPass {
			nestManager.Invalidate(nest, invalidated)
		} else {
			manager.Invalidate(loop, invalidated)
		}
	}

	if nest != nil && !nestValid && !updater.SkipCurrentUnit() {
		nest.Reconstruct()
	}

	logger.Debug().
		Str("passManager", m.Name()).
		Str("preserved", preserved.String()).
		Msg("Finished pass manager run")

	// The results of the loop were invalidated after each pass,
	// and the passes did not change other loops
	return preserved.PreserveSet(analysis.AllAnalysesOn[*ir.Loop]())
}

func (m *PassManager) PipelineDoc() prettier.Doc {
	docs := make([]prettier.Doc, 0, m.length)

	var loopIndex, nestIndex int
	for i := uint(0); i < m.length; i++ {
		if m.isNestPass.Test(i) {
			docs = append(docs, pass.PassDoc(m.nestPasses[nestIndex]))
			nestIndex++
		} else {
			docs = append(docs, pass.PassDoc(m.loopPasses[loopIndex]))
			loopIndex++
		}
	}

	return prettier.Join(
		prettier.Concat{
			prettier.Text(","),
			prettier.Line{},
		},
		docs...,
	)
}

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
	"github.com/onflow/nestpm/errors"
	"github.com/onflow/nestpm/ir"
)

// Nest is a top-level loop together with all loops nested in it.
type Nest struct {
	root  *ir.Loop
	loops []*ir.Loop
	depth int
}

// NewNest returns the loop nest of the given top-level loop.
func NewNest(root *ir.Loop) *Nest {
	nest := &Nest{
		root: root,
	}
	nest.Reconstruct()
	return nest
}

// Name returns the name of the top-level loop.
func (n *Nest) Name() string {
	return n.root.Name()
}

func (n *Nest) String() string {
	return n.Name()
}

// Root returns the top-level loop of the nest.
func (n *Nest) Root() *ir.Loop {
	return n.root
}

// Loops returns all loops of the nest in breadth-first order, the top-level loop first.
func (n *Nest) Loops() []*ir.Loop {
	return n.loops
}

// Depth returns the number of nesting levels of the nest.
func (n *Nest) Depth() int {
	return n.depth
}

// LoopsAtDepth returns the loops of the nest at the given nesting level,
// starting at 1 for the top-level loop.
func (n *Nest) LoopsAtDepth(depth int) []*ir.Loop {
	var loops []*ir.Loop
	rootDepth := n.root.Depth()
	for _, loop := range n.loops {
		if loop.Depth()-rootDepth+1 == depth {
			loops = append(loops, loop)
		}
	}
	return loops
}

// IsPerfect returns true if each loop of the nest, except the innermost one,
// contains exactly one loop.
func (n *Nest) IsPerfect() bool {
	return len(n.loops) == n.depth
}

// Reconstruct recomputes the loops of the nest, after the loops were changed.
// The nest keeps its identity.
func (n *Nest) Reconstruct() {
	n.loops = []*ir.Loop{n.root}
	n.depth = 1

	rootDepth := n.root.Depth()

	for i := 0; i < len(n.loops); i++ {
		loop := n.loops[i]
		depth := loop.Depth() - rootDepth + 1
		if depth > n.depth {
			n.depth = depth
		}
		n.loops = append(n.loops, loop.SubLoops()...)
	}
}

// NestAnalysis computes the loop nest of a top-level loop.
var NestAnalysis = analysis.NewKind[*ir.Loop, *StandardResults, *Nest]("LoopNestAnalysis")

func computeNest(root *ir.Loop, _ *Manager, _ *StandardResults) *Nest {
	if !root.IsOutermost() {
		panic(errors.NotTopLevelError{
			Unit: root.Name(),
		})
	}
	return NewNest(root)
}

// NestManager gives loop nest passes access to the loop analysis manager.
// Invalidating or clearing a loop nest applies to all its loops.
type NestManager struct {
	loops *Manager
}

var _ analysis.Cache[*Nest] = &NestManager{}

func NewNestManager(loops *Manager) *NestManager {
	return &NestManager{
		loops: loops,
	}
}

// LoopManager returns the analysis manager of the loops.
func (m *NestManager) LoopManager() *Manager {
	return m.loops
}

// GetLoopNest returns the cached loop nest of the top-level loop, computing it if needed.
func (m *NestManager) GetLoopNest(root *ir.Loop, results *StandardResults) *Nest {
	return analysis.GetResult(m.loops, NestAnalysis, root, results)
}

// Invalidate invalidates the results of all loops of the nest, innermost loops first.
func (m *NestManager) Invalidate(nest *Nest, preserved analysis.PreservedSet) {
	loops := nest.Loops()
	for i := len(loops) - 1; i >= 0; i-- {
		m.loops.Invalidate(loops[i], preserved)
	}
}

// Clear erases the results of all loops of the nest.
func (m *NestManager) Clear(nest *Nest, reason string) {
	for _, loop := range nest.Loops() {
		m.loops.Clear(loop, reason)
	}
}

func (m *NestManager) ClearAll() {
	m.loops.ClearAll()
}

func (m *NestManager) Empty() bool {
	return m.loops.Empty()
}

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

package ir

import (
	"slices"
)

// Loop is a natural loop: a header block which dominates all blocks of the loop,
// and which is the target of at least one back edge.
// Loops are named after their header.
type Loop struct {
	header   *Block
	blocks   []*Block
	parent   *Loop
	subLoops []*Loop
	erased   bool
}

// NewLoop returns a new loop with the given header,
// which is not yet part of any loop info.
func NewLoop(header *Block, blocks ...*Block) *Loop {
	loop := &Loop{
		header: header,
		blocks: []*Block{header},
	}
	for _, block := range blocks {
		loop.AddBlock(block)
	}
	return loop
}

func (l *Loop) Name() string {
	return l.header.name
}

func (l *Loop) String() string {
	return l.Name()
}

func (l *Loop) Header() *Block {
	return l.header
}

// Blocks returns the blocks of the loop, including the blocks of its subloops.
// The header is the first block.
func (l *Loop) Blocks() []*Block {
	return l.blocks
}

// AddBlock adds a block to the loop.
func (l *Loop) AddBlock(block *Block) {
	if l.ContainsBlock(block) {
		return
	}
	l.blocks = append(l.blocks, block)
}

func (l *Loop) ContainsBlock(block *Block) bool {
	return slices.Contains(l.blocks, block)
}

// Parent returns the loop immediately containing this loop,
// or nil if the loop is a top-level loop.
func (l *Loop) Parent() *Loop {
	return l.parent
}

// IsOutermost returns true if the loop is a top-level loop.
func (l *Loop) IsOutermost() bool {
	return l.parent == nil
}

// Outermost returns the top-level loop containing this loop.
func (l *Loop) Outermost() *Loop {
	loop := l
	for loop.parent != nil {
		loop = loop.parent
	}
	return loop
}

// SubLoops returns the loops immediately contained in this loop, in program order.
func (l *Loop) SubLoops() []*Loop {
	return l.subLoops
}

// IsInnermost returns true if the loop contains no other loops.
func (l *Loop) IsInnermost() bool {
	return len(l.subLoops) == 0
}

// Depth returns the nesting depth of the loop. Top-level loops have depth 1.
func (l *Loop) Depth() int {
	depth := 1
	for loop := l.parent; loop != nil; loop = loop.parent {
		depth++
	}
	return depth
}

// Contains returns true if the other loop is this loop or nested in it.
func (l *Loop) Contains(other *Loop) bool {
	for loop := other; loop != nil; loop = loop.parent {
		if loop == l {
			return true
		}
	}
	return false
}

// IsInvalid returns true if the loop was erased from its loop info.
func (l *Loop) IsInvalid() bool {
	return l.erased
}

// AddChildLoop makes the given loop a subloop of this loop.
// The child must not have a parent.
func (l *Loop) AddChildLoop(child *Loop) {
	child.parent = l
	l.subLoops = append(l.subLoops, child)
	for _, block := range child.blocks {
		l.AddBlock(block)
	}
}

// RemoveChildLoop detaches the given subloop from this loop.
// The blocks of the child stay in this loop.
func (l *Loop) RemoveChildLoop(child *Loop) {
	index := slices.Index(l.subLoops, child)
	if index < 0 {
		return
	}
	l.subLoops = slices.Delete(l.subLoops, index, index+1)
	child.parent = nil
}

// LoopsInPreorder returns this loop and all loops nested in it,
// each loop before its subloops, and subloops in program order.
func (l *Loop) LoopsInPreorder() []*Loop {
	var loops []*Loop
	var visit func(loop *Loop)
	visit = func(loop *Loop) {
		loops = append(loops, loop)
		for _, subLoop := range loop.subLoops {
			visit(subLoop)
		}
	}
	visit(l)
	return loops
}

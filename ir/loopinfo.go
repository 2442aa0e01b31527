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
	"fmt"
	"slices"
)

// LoopInfo is the loop forest of a function.
type LoopInfo struct {
	topLevel   []*Loop
	blockLoops map[*Block]*Loop
}

// ComputeLoopInfo finds the natural loops of the function.
//
// Each reachable block which dominates one of its predecessors is a loop header.
// Loops are nested by containment, and top-level loops and subloops
// are ordered by the position of their header in the function.
func ComputeLoopInfo(function *Function, tree *DominatorTree) *LoopInfo {
	info := &LoopInfo{
		blockLoops: map[*Block]*Loop{},
	}

	var loops []*Loop

	for _, header := range function.blocks {
		if !tree.IsReachable(header) {
			continue
		}

		var latches []*Block
		for _, pred := range header.predecessors {
			if tree.Dominates(header, pred) {
				latches = append(latches, pred)
			}
		}
		if len(latches) == 0 {
			continue
		}

		loops = append(loops, naturalLoop(header, latches, tree))
	}

	// Natural loops with different headers are either disjoint or nested,
	// and a nested loop is strictly smaller than the loop containing it

	bySize := slices.Clone(loops)
	slices.SortStableFunc(bySize, func(a, b *Loop) int {
		return len(a.blocks) - len(b.blocks)
	})

	for i, loop := range bySize {
		for _, candidate := range bySize[i+1:] {
			if candidate.ContainsBlock(loop.header) {
				loop.parent = candidate
				break
			}
		}

		for _, block := range loop.blocks {
			if _, ok := info.blockLoops[block]; !ok {
				info.blockLoops[block] = loop
			}
		}
	}

	for _, loop := range loops {
		if loop.parent == nil {
			info.topLevel = append(info.topLevel, loop)
		} else {
			loop.parent.subLoops = append(loop.parent.subLoops, loop)
		}
	}

	return info
}

func naturalLoop(header *Block, latches []*Block, tree *DominatorTree) *Loop {
	body := map[*Block]struct{}{
		header: {},
	}

	worklist := slices.Clone(latches)
	for len(worklist) > 0 {
		block := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		if _, ok := body[block]; ok {
			continue
		}
		body[block] = struct{}{}

		for _, pred := range block.predecessors {
			if tree.IsReachable(pred) {
				worklist = append(worklist, pred)
			}
		}
	}

	blocks := make([]*Block, 0, len(body))
	for block := range body { //nolint:maprange
		if block != header {
			blocks = append(blocks, block)
		}
	}
	slices.SortFunc(blocks, func(a, b *Block) int {
		return a.index - b.index
	})

	return &Loop{
		header: header,
		blocks: append([]*Block{header}, blocks...),
	}
}

// TopLevelLoops returns the loops which are not nested in another loop, in program order.
func (li *LoopInfo) TopLevelLoops() []*Loop {
	return li.topLevel
}

// Empty returns true if the function has no loops.
func (li *LoopInfo) Empty() bool {
	return len(li.topLevel) == 0
}

// LoopsInPreorder returns all loops, each loop before its subloops,
// and top-level loops and subloops in program order.
func (li *LoopInfo) LoopsInPreorder() []*Loop {
	var loops []*Loop
	for _, loop := range li.topLevel {
		loops = append(loops, loop.LoopsInPreorder()...)
	}
	return loops
}

// LoopFor returns the innermost loop containing the block, or nil.
func (li *LoopInfo) LoopFor(block *Block) *Loop {
	return li.blockLoops[block]
}

// AddTopLevelLoop adds a new loop, with all its subloops, as the last top-level loop.
func (li *LoopInfo) AddTopLevelLoop(loop *Loop) {
	loop.parent = nil
	li.topLevel = append(li.topLevel, loop)
	li.mapBlocks(loop)
}

// AddChildLoop adds a new loop, with all its subloops, as the last subloop of the parent.
func (li *LoopInfo) AddChildLoop(parent *Loop, loop *Loop) {
	parent.AddChildLoop(loop)
	for ancestor := parent.parent; ancestor != nil; ancestor = ancestor.parent {
		for _, block := range loop.blocks {
			ancestor.AddBlock(block)
		}
	}
	li.mapBlocks(loop)
}

func (li *LoopInfo) mapBlocks(loop *Loop) {
	// parents are visited before their subloops, so the innermost loop wins
	for _, nested := range loop.LoopsInPreorder() {
		for _, block := range nested.blocks {
			li.blockLoops[block] = nested
		}
	}
}

// Erase removes the loop from the loop forest.
// Its subloops take its place in its parent, or become top-level loops,
// and its blocks become blocks of its parent.
// The loop is marked as invalid.
func (li *LoopInfo) Erase(loop *Loop) {
	parent := loop.parent

	replace := func(loops []*Loop) []*Loop {
		index := slices.Index(loops, loop)
		if index < 0 {
			return loops
		}
		return slices.Replace(loops, index, index+1, loop.subLoops...)
	}

	if parent == nil {
		li.topLevel = replace(li.topLevel)
	} else {
		parent.subLoops = replace(parent.subLoops)
	}

	for _, subLoop := range loop.subLoops {
		subLoop.parent = parent
	}

	for _, block := range loop.blocks {
		if li.blockLoops[block] != loop {
			continue
		}
		if parent == nil {
			delete(li.blockLoops, block)
		} else {
			li.blockLoops[block] = parent
		}
	}

	loop.parent = nil
	loop.subLoops = nil
	loop.erased = true
}

// Verify checks that the loop forest is consistent:
// parent links match the nesting, subloops are contained in their parents,
// and no erased loop is reachable.
func (li *LoopInfo) Verify() error {
	seen := map[*Loop]struct{}{}

	var verify func(loop *Loop, parent *Loop) error
	verify = func(loop *Loop, parent *Loop) error {
		if loop.erased {
			return fmt.Errorf("loop %s was erased but is still reachable", loop.Name())
		}
		if _, ok := seen[loop]; ok {
			return fmt.Errorf("loop %s is reachable more than once", loop.Name())
		}
		seen[loop] = struct{}{}

		if loop.parent != parent {
			return fmt.Errorf("loop %s has an invalid parent", loop.Name())
		}
		if len(loop.blocks) == 0 || loop.blocks[0] != loop.header {
			return fmt.Errorf("loop %s does not start with its header", loop.Name())
		}
		if parent != nil {
			for _, block := range loop.blocks {
				if !parent.ContainsBlock(block) {
					return fmt.Errorf(
						"block %s of loop %s is not contained in parent loop %s",
						block.Name(),
						loop.Name(),
						parent.Name(),
					)
				}
			}
		}

		for _, subLoop := range loop.subLoops {
			if err := verify(subLoop, loop); err != nil {
				return err
			}
		}
		return nil
	}

	for _, loop := range li.topLevel {
		if err := verify(loop, nil); err != nil {
			return err
		}
	}

	for block, loop := range li.blockLoops { //nolint:maprange
		if _, ok := seen[loop]; !ok {
			return fmt.Errorf("block %s belongs to unreachable loop %s", block.Name(), loop.Name())
		}
		if !loop.ContainsBlock(block) {
			return fmt.Errorf("block %s is mapped to loop %s which does not contain it", block.Name(), loop.Name())
		}
	}

	return nil
}

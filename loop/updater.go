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
	"github.com/onflow/nestpm/errors"
	"github.com/onflow/nestpm/ir"
	"github.com/onflow/nestpm/pass"
)

// Updater is passed to loop passes and loop nest passes.
//
// In loop nest mode the worklist contains top-level loops,
// and a loop nest is processed for each of them.
// Otherwise the worklist contains loops, which are processed innermost first.
type Updater struct {
	*pass.Updater[*ir.Loop]
	worklist *pass.Worklist[*ir.Loop]
	manager  *Manager
	nestMode bool
	// verify is set if the loop structure is verified after each loop pass
	verify bool
	// deleted are the loops marked as deleted since the last structure verification
	deleted []*ir.Loop
	// root is the top-level loop of the nest the loops belong to, if any
	root          *ir.Loop
	rootDeleted   bool
	deletedReason string
}

func newUpdater(config *pass.Config, worklist *pass.Worklist[*ir.Loop], manager *Manager, nestMode bool) *Updater {
	return &Updater{
		Updater:  pass.NewUpdater[*ir.Loop](worklist, manager, (*ir.Loop).IsOutermost),
		worklist: worklist,
		manager:  manager,
		nestMode: nestMode,
		verify:   config != nil && config.VerifyStructure,
	}
}

// appendLoopsToWorklist inserts the loops and all loops nested in them,
// so that they are popped innermost first, and subloops in program order.
// Loops which come later in the given slice are popped first.
func appendLoopsToWorklist(loops []*ir.Loop, worklist *pass.Worklist[*ir.Loop]) {
	for _, root := range loops {
		var preorder []*ir.Loop
		stack := []*ir.Loop{root}
		for len(stack) > 0 {
			loop := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			stack = append(stack, loop.SubLoops()...)
			preorder = append(preorder, loop)
		}
		worklist.Insert(preorder...)
	}
}

// IsLoopNestMode returns true if the passes are loop nest passes.
func (u *Updater) IsLoopNestMode() bool {
	return u.nestMode
}

// SkipCurrentLoop returns true if no further passes must be run on the current loop or loop nest.
func (u *Updater) SkipCurrentLoop() bool {
	return u.SkipCurrentUnit()
}

// MarkLoopAsDeleted reports that the loop was deleted.
// It must be called before the loop is erased from the loop info.
//
// The loop must be the current loop, or a loop nested in it.
// If it is the current loop, no further passes are run on it.
// In loop nest mode, deleting the current loop deletes its whole loop nest.
func (u *Updater) MarkLoopAsDeleted(loop *ir.Loop, reason string) {
	current := u.CurrentUnit()

	switch {
	case loop == current && u.nestMode:
		u.markLoopsAsDeleted(loop, loop.LoopsInPreorder(), reason)
		return
	case loop == current:
		u.Updater.MarkAsDeleted(loop, reason)
	case current.Contains(loop):
		u.manager.Clear(loop, reason)
	default:
		panic(errors.UnitMismatchError{
			Operation: "MarkLoopAsDeleted",
			Expected:  current.Name(),
			Actual:    loop.Name(),
		})
	}

	u.trackDeleted(loop)

	if loop == u.root {
		u.rootDeleted = true
		u.deletedReason = reason
	}
}

// MarkLoopNestAsDeleted reports that the current loop nest was deleted.
// The results of all its loops are cleared, and no further passes are run on it.
func (u *Updater) MarkLoopNestAsDeleted(nest *Nest, reason string) {
	u.markLoopsAsDeleted(nest.Root(), nest.Loops(), reason)
}

func (u *Updater) markLoopsAsDeleted(root *ir.Loop, loops []*ir.Loop, reason string) {
	u.Updater.MarkAsDeleted(root, reason)

	for _, loop := range loops {
		if loop != root {
			u.manager.Clear(loop, reason)
		}
		u.trackDeleted(loop)
	}
}

func (u *Updater) trackDeleted(loop *ir.Loop) {
	if u.verify {
		u.deleted = append(u.deleted, loop)
	}
}

// MarkAsDeleted reports that the current loop was deleted, see MarkLoopAsDeleted.
func (u *Updater) MarkAsDeleted(loop *ir.Loop, reason string) {
	u.MarkLoopAsDeleted(loop, reason)
}

// AddNewUnits reports new loops with the same parent as the current loop, see AddSiblingLoops.
func (u *Updater) AddNewUnits(loops ...*ir.Loop) {
	u.AddSiblingLoops(loops...)
}

// RevisitCurrentLoop stops running passes on the current loop or loop nest,
// and runs all passes on it again before the loops already in the worklist.
func (u *Updater) RevisitCurrentLoop() {
	u.RevisitCurrentUnit()
}

// AddChildLoops reports new loops nested in the current loop.
// They are processed next, and the current loop is revisited after them.
// Loop nest passes cannot add child loops, as the nest is processed as a whole.
func (u *Updater) AddChildLoops(children ...*ir.Loop) {
	if u.nestMode {
		panic(errors.NewUnexpectedError("cannot add child loops in loop nest mode"))
	}

	current := u.CurrentUnit()
	for _, child := range children {
		if child.Parent() != current {
			panic(errors.UnitMismatchError{
				Operation: "AddChildLoops",
				Expected:  current.Name(),
				Actual:    child.Name(),
			})
		}
	}

	u.RevisitCurrentUnit()
	appendLoopsToWorklist(children, u.worklist)
}

// AddSiblingLoops reports new loops with the same parent as the current loop.
// They are processed after the current loop.
// In loop nest mode, the siblings are new top-level loops.
func (u *Updater) AddSiblingLoops(siblings ...*ir.Loop) {
	current := u.CurrentUnit()
	for _, sibling := range siblings {
		if sibling.Parent() != current.Parent() {
			panic(errors.UnitMismatchError{
				Operation: "AddSiblingLoops",
				Expected:  current.Name(),
				Actual:    sibling.Name(),
			})
		}
	}

	if u.nestMode {
		u.Updater.AddNewUnits(siblings...)
		return
	}
	appendLoopsToWorklist(siblings, u.worklist)
}

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

// Package irtest provides functions with well-known loop structures for tests.
package irtest

import (
	"github.com/onflow/nestpm/ir"
)

// NestedLoops returns a function f with one top-level loop containing two sibling loops:
//
//	loop.0
//	  loop.0.0
//	  loop.0.1
func NestedLoops() *ir.Function {
	return ir.BuildFunction(
		"f",
		ir.Edge{From: "entry", To: "loop.0"},
		ir.Edge{From: "loop.0", To: "loop.0.0.ph"},
		ir.Edge{From: "loop.0", To: "end"},
		ir.Edge{From: "loop.0.0.ph", To: "loop.0.0"},
		ir.Edge{From: "loop.0.0", To: "loop.0.0"},
		ir.Edge{From: "loop.0.0", To: "loop.0.1.ph"},
		ir.Edge{From: "loop.0.1.ph", To: "loop.0.1"},
		ir.Edge{From: "loop.0.1", To: "loop.0.1"},
		ir.Edge{From: "loop.0.1", To: "loop.0.latch"},
		ir.Edge{From: "loop.0.latch", To: "loop.0"},
	)
}

// SequentialLoops returns a function g with two top-level loops, the second one containing a loop:
//
//	loop.g.0
//	loop.g.1
//	  loop.g.1.0
func SequentialLoops() *ir.Function {
	return ir.BuildFunction(
		"g",
		ir.Edge{From: "entry", To: "loop.g.0"},
		ir.Edge{From: "loop.g.0", To: "loop.g.0"},
		ir.Edge{From: "loop.g.0", To: "loop.g.1.ph"},
		ir.Edge{From: "loop.g.1.ph", To: "loop.g.1"},
		ir.Edge{From: "loop.g.1", To: "loop.g.1.0.ph"},
		ir.Edge{From: "loop.g.1", To: "end"},
		ir.Edge{From: "loop.g.1.0.ph", To: "loop.g.1.0"},
		ir.Edge{From: "loop.g.1.0", To: "loop.g.1.0"},
		ir.Edge{From: "loop.g.1.0", To: "loop.g.1.latch"},
		ir.Edge{From: "loop.g.1.latch", To: "loop.g.1"},
	)
}

// StraightLine returns a function h without loops.
func StraightLine() *ir.Function {
	return ir.BuildFunction(
		"h",
		ir.Edge{From: "entry", To: "exit"},
	)
}

// Module returns a module with the functions f, g and h.
func Module() *ir.Module {
	return ir.NewModule(
		"module",
		NestedLoops(),
		SequentialLoops(),
		StraightLine(),
	)
}

// LoopNames returns the names of the given loops.
func LoopNames(loops []*ir.Loop) []string {
	names := make([]string, 0, len(loops))
	for _, loop := range loops {
		names = append(names, loop.Name())
	}
	return names
}

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

// Package ir contains the program structure passes operate on:
// modules of functions, whose control flow graphs of blocks contain loops.
package ir

// Module is a collection of functions.
type Module struct {
	name      string
	functions []*Function
}

func NewModule(name string, functions ...*Function) *Module {
	module := &Module{
		name: name,
	}
	for _, function := range functions {
		module.AddFunction(function)
	}
	return module
}

func (m *Module) Name() string {
	return m.name
}

// Functions returns the functions of the module in program order.
func (m *Module) Functions() []*Function {
	return m.functions
}

func (m *Module) AddFunction(function *Function) {
	function.module = m
	m.functions = append(m.functions, function)
}

// RemoveFunction removes the function from the module.
func (m *Module) RemoveFunction(function *Function) {
	for i, f := range m.functions {
		if f == function {
			m.functions = append(m.functions[:i:i], m.functions[i+1:]...)
			function.module = nil
			return
		}
	}
}

// Function is a control flow graph of blocks.
// The first block is the entry block.
type Function struct {
	name   string
	module *Module
	blocks []*Block
}

func NewFunction(name string) *Function {
	return &Function{
		name: name,
	}
}

func (f *Function) Name() string {
	return f.name
}

// Module returns the module containing the function, or nil.
func (f *Function) Module() *Module {
	return f.module
}

// IsDeclaration returns true if the function has no body.
func (f *Function) IsDeclaration() bool {
	return len(f.blocks) == 0
}

// Blocks returns the blocks of the function in program order.
func (f *Function) Blocks() []*Block {
	return f.blocks
}

// Entry returns the entry block, or nil if the function is a declaration.
func (f *Function) Entry() *Block {
	if len(f.blocks) == 0 {
		return nil
	}
	return f.blocks[0]
}

// AddBlock appends a new block to the function.
func (f *Function) AddBlock(name string) *Block {
	block := &Block{
		name:  name,
		index: len(f.blocks),
	}
	f.blocks = append(f.blocks, block)
	return block
}

// Block returns the block with the given name, or nil.
func (f *Function) Block(name string) *Block {
	for _, block := range f.blocks {
		if block.name == name {
			return block
		}
	}
	return nil
}

// Block is a basic block of a function.
type Block struct {
	name         string
	index        int
	successors   []*Block
	predecessors []*Block
}

func (b *Block) Name() string {
	return b.name
}

// Index returns the position of the block in its function.
func (b *Block) Index() int {
	return b.index
}

func (b *Block) Successors() []*Block {
	return b.successors
}

func (b *Block) Predecessors() []*Block {
	return b.predecessors
}

// AddEdge adds a control flow edge from one block to another.
func AddEdge(from *Block, to *Block) {
	from.successors = append(from.successors, to)
	to.predecessors = append(to.predecessors, from)
}

// RemoveEdge removes a control flow edge, if it exists.
func RemoveEdge(from *Block, to *Block) {
	from.successors = removeBlock(from.successors, to)
	to.predecessors = removeBlock(to.predecessors, from)
}

func removeBlock(blocks []*Block, block *Block) []*Block {
	for i, b := range blocks {
		if b == block {
			return append(blocks[:i:i], blocks[i+1:]...)
		}
	}
	return blocks
}

// Edge is a control flow edge between two named blocks.
type Edge struct {
	From string
	To   string
}

// BuildFunction creates a function from a list of edges.
// Blocks are created in the order they are first mentioned,
// so the source of the first edge is the entry block.
func BuildFunction(name string, edges ...Edge) *Function {
	function := NewFunction(name)

	block := func(name string) *Block {
		if block := function.Block(name); block != nil {
			return block
		}
		return function.AddBlock(name)
	}

	for _, edge := range edges {
		from := block(edge.From)
		to := block(edge.To)
		AddEdge(from, to)
	}

	return function
}

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

// Dominators are computed with the Lengauer-Tarjan algorithm,
// see https://doi.org/10.1145/357062.357071

type ltNode struct {
	semi     int
	block    *Block
	dom      *ltNode
	label    *ltNode
	parent   *ltNode
	ancestor *ltNode
	preds    []*ltNode
	bucket   []*ltNode
}

type lengauerTarjan struct {
	nodes  []*ltNode
	vertex map[*Block]int
}

func (lt *lengauerTarjan) dfs(block *Block) {
	i := len(lt.nodes)
	lt.vertex[block] = i

	node := &ltNode{
		semi:  i,
		block: block,
	}
	node.label = node
	lt.nodes = append(lt.nodes, node)

	for _, successor := range block.successors {
		index, ok := lt.vertex[successor]
		if !ok {
			lt.dfs(successor)
			index = lt.vertex[successor]
			lt.nodes[index].parent = node
		}

		succ := lt.nodes[index]
		succ.preds = append(succ.preds, node)
	}
}

func (lt *lengauerTarjan) eval(node *ltNode) *ltNode {
	if node.ancestor == nil {
		return node
	}
	lt.compress(node)
	return node.label
}

func (lt *lengauerTarjan) compress(node *ltNode) {
	if node.ancestor.ancestor == nil {
		return
	}
	lt.compress(node.ancestor)
	if node.ancestor.label.semi < node.label.semi {
		node.label = node.ancestor.label
	}
	node.ancestor = node.ancestor.ancestor
}

// DominatorTree is the dominator tree of the reachable blocks of a function.
type DominatorTree struct {
	root     *Block
	idom     map[*Block]*Block
	children map[*Block][]*Block
}

// BuildDominatorTree computes the dominator tree of the function.
func BuildDominatorTree(function *Function) *DominatorTree {
	tree := &DominatorTree{
		root:     function.Entry(),
		idom:     map[*Block]*Block{},
		children: map[*Block][]*Block{},
	}

	if tree.root == nil {
		return tree
	}

	lt := &lengauerTarjan{
		vertex: map[*Block]int{},
	}
	lt.dfs(tree.root)

	// Compute semidominators in decreasing DFS order,
	// and implicitly define immediate dominators

	for i := len(lt.nodes) - 1; i > 0; i-- {
		node := lt.nodes[i]

		for _, pred := range node.preds {
			if evaluated := lt.eval(pred); evaluated.semi < node.semi {
				node.semi = evaluated.semi
			}
		}

		node.ancestor = node.parent
		semi := lt.nodes[node.semi]
		semi.bucket = append(semi.bucket, node)

		parent := node.parent
		for _, v := range parent.bucket {
			if evaluated := lt.eval(v); evaluated.semi < v.semi {
				v.dom = evaluated
			} else {
				v.dom = parent
			}
		}
		parent.bucket = nil
	}

	// Explicitly define immediate dominators in increasing DFS order

	for _, node := range lt.nodes[1:] {
		if node.dom != lt.nodes[node.semi] {
			node.dom = node.dom.dom
		}
	}

	for _, node := range lt.nodes[1:] {
		tree.idom[node.block] = node.dom.block
		tree.children[node.dom.block] = append(tree.children[node.dom.block], node.block)
	}

	return tree
}

func (t *DominatorTree) Root() *Block {
	return t.root
}

// IsReachable returns true if the block is reachable from the entry block.
func (t *DominatorTree) IsReachable(block *Block) bool {
	if block == nil {
		return false
	}
	if block == t.root {
		return true
	}
	_, ok := t.idom[block]
	return ok
}

// ImmediateDominator returns the immediate dominator of the block,
// or nil for the entry block and unreachable blocks.
func (t *DominatorTree) ImmediateDominator(block *Block) *Block {
	return t.idom[block]
}

// Children returns the blocks immediately dominated by the block.
func (t *DominatorTree) Children(block *Block) []*Block {
	return t.children[block]
}

// Dominates returns true if every path from the entry block to b passes through a.
// Every reachable block dominates itself.
func (t *DominatorTree) Dominates(a *Block, b *Block) bool {
	if !t.IsReachable(a) || !t.IsReachable(b) {
		return false
	}
	for block := b; block != nil; block = t.idom[block] {
		if block == a {
			return true
		}
	}
	return false
}

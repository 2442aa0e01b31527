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

package pass

import (
	"github.com/turbolent/prettier"

	"github.com/onflow/nestpm/analysis"
)

// Drain runs the pass on the units of the updater's worklist, until the worklist is empty.
//
// Units are popped from the back of the worklist.
// Worklist entries of type W are resolved to the unit of type U the pass runs on,
// e.g. the root loop of a loop nest to the loop nest.
//
// The results of a unit are invalidated with the set the pass preserved,
// unless the pass deleted the unit or requested it to be revisited.
// The intersection of all preserved sets is returned.
func Drain[W analysis.Unit, U analysis.Unit, AM analysis.Cache[U], X any, Upd WorklistUpdater[W]](
	config *Config,
	pass Pass[U, AM, X, Upd],
	updater Upd,
	manager AM,
	extra X,
	resolve func(unit W) U,
) analysis.PreservedSet {

	base := updater.base()
	worklist := base.worklist

	preserved := analysis.All()

	for {
		next, ok := worklist.Pop()
		if !ok {
			break
		}

		base.Reset(next)

		unit := resolve(next)

		passPreserved, ran := RunPass(config, pass, unit, manager, extra, updater)
		if !ran {
			continue
		}

		if !updater.SkipCurrentUnit() {
			manager.Invalidate(unit, passPreserved)
		}

		// Even if the unit was deleted, the pass may have changed other parts of the program
		preserved = preserved.Intersect(passPreserved)
	}

	return preserved
}

// Identity resolves worklist entries to themselves.
func Identity[U any](unit U) U {
	return unit
}

// AdaptorDoc returns the pipeline document of an adaptor,
// which runs the nested pipeline on the units of the given scope.
func AdaptorDoc(scope string, nested prettier.Doc) prettier.Doc {
	return prettier.Concat{
		prettier.Text(scope),
		prettier.WrapParentheses(
			nested,
			prettier.SoftLine{},
		),
	}
}

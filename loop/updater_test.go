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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/onflow/nestpm/analysis"
	"github.com/onflow/nestpm/ir"
	"github.com/onflow/nestpm/pass"
)

func TestUpdaterDeletedLoops(t *testing.T) {

	t.Parallel()

	test := func(config *pass.Config, expected []string) {

		fn := ir.NewFunction("f")
		root := ir.NewLoop(fn.AddBlock("loop.0"))
		child := ir.NewLoop(fn.AddBlock("loop.0.0"))
		root.AddChildLoop(child)

		manager := NewManager(analysis.Config{Name: "loop"}, nil)
		updater := newUpdater(config, pass.NewWorklist[*ir.Loop](), manager, false)
		updater.Reset(root)

		updater.MarkLoopAsDeleted(child, "deleted")
		updater.MarkLoopAsDeleted(root, "deleted")

		assert.True(t, updater.SkipCurrentLoop())

		var names []string
		for _, loop := range updater.deleted {
			names = append(names, loop.Name())
		}
		assert.Equal(t, expected, names)
	}

	t.Run("without verification", func(t *testing.T) {
		t.Parallel()

		test(nil, nil)
		test(pass.NewConfig(), nil)
	})

	t.Run("with verification", func(t *testing.T) {
		t.Parallel()

		test(
			pass.NewConfig().WithStructureVerification(),
			[]string{"loop.0.0", "loop.0"},
		)
	})
}

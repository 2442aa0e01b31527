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

package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsInternalError(t *testing.T) {

	t.Parallel()

	t.Run("direct", func(t *testing.T) {
		t.Parallel()

		assert.True(t, IsInternalError(DuplicateRegistrationError{
			Analysis: "DominatorTreeAnalysis",
			Manager:  "function",
		}))
		assert.True(t, IsInternalError(NewUnreachableError()))
	})

	t.Run("wrapped", func(t *testing.T) {
		t.Parallel()

		err := StructureError{
			Pass: "LoopDeletion",
			Unit: "loop.0",
			Err:  fmt.Errorf("dangling child"),
		}
		assert.True(t, IsInternalError(fmt.Errorf("pipeline failed: %w", err)))
		assert.EqualError(t, err, "invalid structure of loop.0 after pass LoopDeletion: dangling child")
	})

	t.Run("external", func(t *testing.T) {
		t.Parallel()

		assert.False(t, IsInternalError(fmt.Errorf("some failure")))
	})
}

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
	"strings"

	"github.com/turbolent/prettier"
)

// PipelinePrinter is implemented by passes which contain other passes,
// e.g. pass managers and adaptors.
type PipelinePrinter interface {
	PipelineDoc() prettier.Doc
}

var pipelineSeparatorDoc prettier.Doc = prettier.Concat{
	prettier.Text(","),
	prettier.Line{},
}

// PassDoc returns the pipeline document of the pass:
// its nested pipeline, if it has one, or its name.
func PassDoc(pass Named) prettier.Doc {
	if printer, ok := pass.(PipelinePrinter); ok {
		return printer.PipelineDoc()
	}
	return prettier.Text(pass.Name())
}

// PipelineString returns the textual description of the pipeline,
// e.g. "function(loop-nest(unroll, loop(licm)))".
// Pipelines which do not fit the width are broken into multiple lines.
func PipelineString(pass Named, maxLineWidth int) string {
	var b strings.Builder
	prettier.Prettier(
		&b,
		prettier.Group{
			Doc: PassDoc(pass),
		},
		maxLineWidth,
		"    ",
	)
	return b.String()
}

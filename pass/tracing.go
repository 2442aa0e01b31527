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
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onflow/nestpm/analysis"
)

// OnRecordTraceFunc is a function that records a trace.
type OnRecordTraceFunc func(
	operationName string,
	duration time.Duration,
	attrs []attribute.KeyValue,
)

// Tracer reports the duration of every pass run.
type Tracer struct {
	OnRecordTrace  OnRecordTraceFunc
	TracingEnabled bool
}

const (
	tracingPassPrefix = "pass."

	tracingUnitAttribute      = "unit"
	tracingPreservedAttribute = "preserved"
	tracingSkippedAttribute   = "unitSkipped"
)

func (t Tracer) enabled() bool {
	return t.TracingEnabled && t.OnRecordTrace != nil
}

func (t Tracer) reportPassTrace(
	passName string,
	unitName string,
	preserved analysis.PreservedSet,
	unitSkipped bool,
	duration time.Duration,
) {
	t.OnRecordTrace(
		tracingPassPrefix+passName,
		duration,
		[]attribute.KeyValue{
			attribute.String(tracingUnitAttribute, unitName),
			attribute.String(tracingPreservedAttribute, preserved.String()),
			attribute.Bool(tracingSkippedAttribute, unitSkipped),
		},
	)
}

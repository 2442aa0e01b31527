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
	"slices"
	"strings"
	"time"

	pprof "github.com/google/pprof/profile"
)

type profileScope struct {
	name     string
	start    time.Time
	children time.Duration
}

type scopeUsage struct {
	stack    []string
	self     time.Duration
	runCount int64
}

// TimeProfile collects the time spent in nested pass scopes.
// Time is attributed to the innermost scope, per stack of enclosing scopes,
// e.g. a loop pass run inside the loop adaptor of a function pass manager.
type TimeProfile struct {
	now    func() time.Time
	scopes []*profileScope
	usages map[string]*scopeUsage
}

func NewTimeProfile() *TimeProfile {
	return &TimeProfile{
		now:    time.Now,
		usages: map[string]*scopeUsage{},
	}
}

func (p *TimeProfile) enter(name string) {
	p.scopes = append(p.scopes, &profileScope{
		name:  name,
		start: p.now(),
	})
}

func (p *TimeProfile) exit() {
	last := len(p.scopes) - 1
	scope := p.scopes[last]

	elapsed := p.now().Sub(scope.start)

	stack := make([]string, 0, len(p.scopes))
	for _, s := range p.scopes {
		stack = append(stack, s.name)
	}

	p.scopes = p.scopes[:last]
	if last > 0 {
		p.scopes[last-1].children += elapsed
	}

	aggregateKey := strings.Join(stack, "\x00")
	usage, ok := p.usages[aggregateKey]
	if !ok {
		usage = &scopeUsage{
			stack: stack,
		}
		p.usages[aggregateKey] = usage
	}
	usage.self += elapsed - scope.children
	usage.runCount++
}

// Reset discards all collected usages.
func (p *TimeProfile) Reset() {
	p.scopes = nil
	p.usages = map[string]*scopeUsage{}
}

// Export returns the collected usages as a pprof profile,
// with one function per pass name and one sample per stack of scopes.
func (p *TimeProfile) Export() (*pprof.Profile, error) {
	exporter := &timeProfileExporter{
		profile:   &pprof.Profile{},
		locations: map[string]*pprof.Location{},
	}
	exporter.profile.SampleType = []*pprof.ValueType{
		{
			Type: "time",
			Unit: "nanoseconds",
		},
		{
			Type: "runs",
			Unit: "count",
		},
	}

	// Get aggregate keys in a stable order
	var aggregateKeys []string
	for aggregateKey := range p.usages { //nolint:maprange
		aggregateKeys = append(aggregateKeys, aggregateKey)
	}
	slices.Sort(aggregateKeys)

	for _, aggregateKey := range aggregateKeys {
		usage := p.usages[aggregateKey]

		// Leaf first
		sampleLocations := make([]*pprof.Location, 0, len(usage.stack))
		for i := len(usage.stack) - 1; i >= 0; i-- {
			sampleLocations = append(sampleLocations, exporter.location(usage.stack[i]))
		}

		exporter.profile.Sample = append(
			exporter.profile.Sample,
			&pprof.Sample{
				Location: sampleLocations,
				Value: []int64{
					usage.self.Nanoseconds(),
					usage.runCount,
				},
			},
		)
	}

	if err := exporter.profile.CheckValid(); err != nil {
		return nil, err
	}

	return exporter.profile, nil
}

type timeProfileExporter struct {
	profile   *pprof.Profile
	locations map[string]*pprof.Location
}

func (e *timeProfileExporter) location(name string) *pprof.Location {
	location, ok := e.locations[name]
	if ok {
		return location
	}

	function := &pprof.Function{
		// ID must be non-zero
		ID:   uint64(len(e.profile.Function) + 1),
		Name: name,
	}
	e.profile.Function = append(e.profile.Function, function)

	location = &pprof.Location{
		// ID must be non-zero
		ID: uint64(len(e.profile.Location) + 1),
		Line: []pprof.Line{
			{
				Function: function,
			},
		},
	}
	e.profile.Location = append(e.profile.Location, location)
	e.locations[name] = location

	return location
}

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

package analysis

import (
	"fmt"
	"reflect"
	"sync"
)

// Key identifies an analysis kind, or a named set of analyses.
// Keys are compared by identity: two keys with the same name are distinct.
type Key struct {
	name string
}

// NewKey returns a new key with the given diagnostic name.
func NewKey(name string) *Key {
	return &Key{name: name}
}

func (k *Key) String() string {
	if k == nil {
		return "<nil>"
	}
	return k.name
}

// Unit is a piece of the program that passes run on and analyses are computed for,
// e.g. a function or a loop. Units are compared by identity.
type Unit interface {
	comparable
	Name() string
}

// NoExtra is the extra argument type of analyses which need nothing besides the unit.
type NoExtra = struct{}

// Kind is the typed handle of an analysis kind.
// U is the unit type, X the type of the extra argument
// passed to the analysis, and R the type of its result.
type Kind[U Unit, X any, R any] struct {
	key *Key
}

// NewKind returns a new analysis kind with the given name.
func NewKind[U Unit, X any, R any](name string) *Kind[U, X, R] {
	return &Kind[U, X, R]{
		key: NewKey(name),
	}
}

func (k *Kind[U, X, R]) Key() *Key {
	return k.key
}

func (k *Kind[U, X, R]) Name() string {
	return k.key.name
}

var categories sync.Map // reflect.Type -> *Key

// AllAnalysesOn returns the key of the set of all analyses on units of type U.
func AllAnalysesOn[U any]() *Key {
	unitType := reflect.TypeFor[U]()
	if key, ok := categories.Load(unitType); ok {
		return key.(*Key)
	}
	key, _ := categories.LoadOrStore(
		unitType,
		NewKey(fmt.Sprintf("AllAnalysesOn<%s>", unitType)),
	)
	return key.(*Key)
}

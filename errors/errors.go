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
	"runtime/debug"

	"golang.org/x/xerrors"
)

// InternalError is an implementation error, e.g an unreachable code path (UnreachableError),
// or a violation of the contract between passes, analyses and their managers.
//
// InternalError s must always be thrown and not be caught (recovered), i.e. be propagated up the call stack.
type InternalError interface {
	error
	IsInternalError()
}

// UnreachableError

// UnreachableError is an internal error which should have never occurred
// due to a programming error in the pass infrastructure.
type UnreachableError struct {
	Stack []byte
}

var _ InternalError = UnreachableError{}

func (e UnreachableError) Error() string {
	return fmt.Sprintf("unreachable\n%s", e.Stack)
}

func (e UnreachableError) IsInternalError() {}

func NewUnreachableError() *UnreachableError {
	return &UnreachableError{Stack: debug.Stack()}
}

// UnexpectedError is the default implementation of InternalError interface.
// It's a generic error that wraps an implementation error.
type UnexpectedError struct {
	Err error
}

var _ InternalError = UnexpectedError{}

func NewUnexpectedError(message string, arg ...any) UnexpectedError {
	return UnexpectedError{
		Err: fmt.Errorf(message, arg...),
	}
}

func (e UnexpectedError) Unwrap() error {
	return e.Err
}

func (e UnexpectedError) Error() string {
	return e.Err.Error()
}

func (e UnexpectedError) IsInternalError() {}

// DuplicateRegistrationError is reported when an analysis kind
// is registered twice with the same analysis manager.
type DuplicateRegistrationError struct {
	Analysis string
	Manager  string
}

var _ InternalError = DuplicateRegistrationError{}

func (e DuplicateRegistrationError) Error() string {
	return fmt.Sprintf(
		"analysis %s is already registered with the %s analysis manager",
		e.Analysis,
		e.Manager,
	)
}

func (e DuplicateRegistrationError) IsInternalError() {}

// RegistrationClosedError is reported when an analysis kind is registered
// after the analysis manager already computed results.
type RegistrationClosedError struct {
	Analysis string
	Manager  string
}

var _ InternalError = RegistrationClosedError{}

func (e RegistrationClosedError) Error() string {
	return fmt.Sprintf(
		"cannot register analysis %s: the %s analysis manager is already in use",
		e.Analysis,
		e.Manager,
	)
}

func (e RegistrationClosedError) IsInternalError() {}

// UnregisteredAnalysisError is reported when a result is requested
// for an analysis kind which was never registered.
type UnregisteredAnalysisError struct {
	Analysis string
	Manager  string
}

var _ InternalError = UnregisteredAnalysisError{}

func (e UnregisteredAnalysisError) Error() string {
	return fmt.Sprintf(
		"analysis %s is not registered with the %s analysis manager",
		e.Analysis,
		e.Manager,
	)
}

func (e UnregisteredAnalysisError) IsInternalError() {}

// CyclicAnalysisError is reported when computing an analysis
// requires the result of the same analysis on the same unit.
type CyclicAnalysisError struct {
	Analysis string
	Unit     string
}

var _ InternalError = CyclicAnalysisError{}

func (e CyclicAnalysisError) Error() string {
	return fmt.Sprintf(
		"cyclic dependency: analysis %s on %s requires itself",
		e.Analysis,
		e.Unit,
	)
}

func (e CyclicAnalysisError) IsInternalError() {}

// UnitMismatchError is reported when an updater operation which is only
// valid for the unit currently being processed is applied to another unit.
type UnitMismatchError struct {
	Operation string
	Expected  string
	Actual    string
}

var _ InternalError = UnitMismatchError{}

func (e UnitMismatchError) Error() string {
	return fmt.Sprintf(
		"cannot %s %s: only the current unit %s can be updated",
		e.Operation,
		e.Actual,
		e.Expected,
	)
}

func (e UnitMismatchError) IsInternalError() {}

// NotTopLevelError is reported when a unit which has a parent
// is added to a worklist that only accepts top-level units.
type NotTopLevelError struct {
	Unit string
}

var _ InternalError = NotTopLevelError{}

func (e NotTopLevelError) Error() string {
	return fmt.Sprintf("cannot add %s: not a top-level unit", e.Unit)
}

func (e NotTopLevelError) IsInternalError() {}

// StructureError is reported when the structure of a unit
// is found to be inconsistent after a pass modified it.
type StructureError struct {
	Pass string
	Unit string
	Err  error
}

var _ InternalError = StructureError{}

func (e StructureError) Unwrap() error {
	return e.Err
}

func (e StructureError) Error() string {
	return fmt.Sprintf(
		"invalid structure of %s after pass %s: %s",
		e.Unit,
		e.Pass,
		e.Err.Error(),
	)
}

func (e StructureError) IsInternalError() {}

// IsInternalError Checks whether a given error was caused by an InternalError.
// An error in an internal error, if it has at-least one InternalError in the error chain.
func IsInternalError(err error) bool {
	switch err := err.(type) {
	case InternalError:
		return true
	case xerrors.Wrapper:
		return IsInternalError(err.Unwrap())
	default:
		return false
	}
}

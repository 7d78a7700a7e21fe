// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package orchestrator

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures. Each kind is itself an error, so
// errors.Is(err, ErrConfiguration) reports the class of err.
type ErrorKind string

const (
	// ErrConfiguration: a named compute or dataset is absent, or a step
	// definition is missing or malformed.
	ErrConfiguration ErrorKind = "configuration error"
	// ErrAuthentication: no valid credential, or the identity is not allowed.
	ErrAuthentication ErrorKind = "authentication error"
	// ErrSubmission: the platform rejected the job.
	ErrSubmission ErrorKind = "submission error"
	// ErrExecution: the job ran and did not complete.
	ErrExecution ErrorKind = "execution error"
)

func (k ErrorKind) Error() string {
	return string(k)
}

// Error is a classified failure of operation Op.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind of e.
func (e *Error) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

// Wrap classifies err as kind unless it already carries a kind.
func Wrap(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := KindOf(err); ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

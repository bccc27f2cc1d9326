// This file is part of Palo.
//
// Palo is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Palo is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Palo.  If not, see <https://www.gnu.org/licenses/>.

// Package palotest provides small, dependency-free assertion helpers for
// use in _test.go files across the module. It intentionally mirrors the
// shape of a typical local "test" helper package rather than pulling in an
// assertion framework.
package palotest

import "testing"

// ExpectEquality fails the test if got != want, reporting both values.
func ExpectEquality[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("unexpected value: got %v, want %v", got, want)
	}
}

// ExpectSuccess fails the test if err is non-nil.
func ExpectSuccess(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// ExpectFailure fails the test if err is nil.
func ExpectFailure(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Errorf("expected an error but got none")
	}
}

// Copyright 2018 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package process

import "testing"

func TestZeroStateIsReady(t *testing.T) {
	var s State
	if s.Kind() != Ready {
		t.Fatalf("zero State kind = %v, want Ready", s.Kind())
	}
}

func TestWaitProcStateCarriesChildID(t *testing.T) {
	s := WaitProcState(99)
	if s.Kind() != WaitProc {
		t.Fatalf("kind = %v, want WaitProc", s.Kind())
	}
	if s.ChildID() != 99 {
		t.Fatalf("ChildID() = %d, want 99", s.ChildID())
	}
}

func TestWaitingStateRequiresPoll(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("WaitingState(nil) did not panic")
		}
	}()
	WaitingState(nil)
}

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

package drivers

import "testing"

func TestControllerPendingRequiresEnable(t *testing.T) {
	c := NewController()
	c.Raise(Timer1)
	if c.IsPending(string(Timer1)) {
		t.Fatalf("IsPending = true before Enable, want false")
	}
	c.Enable(string(Timer1))
	if !c.IsPending(string(Timer1)) {
		t.Fatalf("IsPending = false after Enable with a raised source, want true")
	}
}

func TestControllerClearDropsPending(t *testing.T) {
	c := NewController()
	c.Enable(string(Timer1))
	c.Raise(Timer1)
	c.Clear(Timer1)
	if c.IsPending(string(Timer1)) {
		t.Fatalf("IsPending = true after Clear, want false")
	}
}

func TestControllerRaiseDoesNotAutoClear(t *testing.T) {
	c := NewController()
	c.Enable(string(Timer1))
	c.Raise(Timer1)
	if !c.IsPending(string(Timer1)) {
		t.Fatalf("IsPending = false on first check, want true")
	}
	if !c.IsPending(string(Timer1)) {
		t.Fatalf("IsPending = false on second check, want IsPending to not clear the bit itself")
	}
}

// Copyright (c) 2026, The Karamove Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import "fmt"

// States are the states of the [Controller] state machine.
//
//	Idle --(manual trigger | timer fires)--> Scanning
//	Scanning --(no new files)--> Idle
//	Scanning --(new file for the active object)--> Applying
//	Applying --(ingest, bind and persist succeed)--> Idle
//	Scanning | Applying --(any step fails)--> Error --> Idle
//
// Object management and resets happen in Idle and return to Idle.
type States int32

const (
	Idle States = iota
	Scanning
	Applying
	Error
)

func (s States) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Scanning:
		return "Scanning"
	case Applying:
		return "Applying"
	case Error:
		return "Error"
	}
	return fmt.Sprintf("States(%d)", int32(s))
}

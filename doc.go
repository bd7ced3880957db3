// Package coreemu provides the value types shared by a network-emulation
// session manager: node classes, positions, link parameters, the options
// store, and the error taxonomy every component reports through.
//
// The orchestration logic that mutates these values lives in the session
// package; this package only holds what every component, including the
// collaborators a caller injects through a session.Session, needs to agree
// on.
package coreemu

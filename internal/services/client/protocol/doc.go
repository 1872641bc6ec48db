// Package protocol defines the wire contract between the client and the
// rules engine: request/response envelopes for the four RPCs, the command
// model returned by the engine, and the player actions sent to it.
//
// Commands and actions are closed sum types. Each variant is its own Go
// type; on the wire they use externally tagged JSON, one key naming the
// variant:
//
//	{"Wait": {"milliseconds_value": 300}}
//	{"DisplayGameMessage": "YourTurn"}
//
// A CommandSequence is an ordered list of CommandGroups. Groups apply in
// order; the commands of a group start together and the group finishes when
// all of them have.
package protocol

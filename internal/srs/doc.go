// Package srs implements the SM-2-family spaced repetition update rule.
//
// The package is a pure computation layer: a Scheduler turns a card's
// ReviewRecord plus a Grade into the next ReviewRecord, including the
// state transition, ease and interval update, and next due date. It
// performs no I/O and reads no global clock; callers inject the current
// time on every call.
package srs

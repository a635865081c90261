// Package harness provides a scenario-driven conformance framework for
// the emission engine.
//
// A scenario is a YAML file describing a deployment plus a sequence of
// steps: advance the clock, attempt an issuance, move or burn units,
// snapshot the schedule state. The harness runs each scenario against a
// real engine over a fresh in-memory database and records every outcome
// as one line of a trace. Traces are compared against golden files, so
// a behavioral change anywhere in the engine, store, or ledger shows up
// as a readable diff.
//
// Determinism: scenarios run with a fixed deployment time, a fake clock
// advanced only by explicit steps, and sequential record IDs. The same
// scenario always produces a byte-identical trace.
package harness

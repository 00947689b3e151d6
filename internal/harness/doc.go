// Package harness runs YAML scenarios against a fresh engine.
//
// A scenario seeds genesis, executes and queries a list of steps with
// optional expectations, then evaluates assertions over the trace and the
// final state. Every run uses an in-memory SQLite store and deterministic
// request ids, so traces are reproducible and can be compared against
// golden files.
//
//	name: deposit_withdraw
//	description: funds round-trip through the contract
//	genesis:
//	  owner: gallery
//	  accounts: {alice: 1000ucosm}
//	steps:
//	  - sender: alice
//	    funds: 300ucosm
//	    execute: {deposit: {}}
//	    expect: {case: Success, attributes: {balance: "300"}}
//	assertions:
//	  - type: check
//	    expr: balance("alice") == "300"
package harness

// Package engine is the arthouse host runtime.
//
// The engine owns everything the ledger treats as external: decoding
// requests, moving attached native funds, carrying out BankSend effects,
// committing each invocation's writes atomically and journaling every
// invocation with its completion.
//
// ARCHITECTURE:
//
// Single writer:
// Execute, Genesis and the Run loop serialize on one mutex, so the ledger
// never sees concurrent invocations. Submit is the only entry point that
// may be called from any goroutine without waiting for the writer.
//
// Invocation flow:
//  1. Decode the message; undecodable requests are rejected before a seq
//     is assigned and are not journaled.
//  2. Stamp the invocation with the next logical seq and its content id.
//  3. Run bank and ledger against a kv.Cache over the backend.
//  4. On success commit the cache's batch with the journal entry; on a
//     contract error discard the batch and journal the failure.
//  5. Infrastructure errors journal nothing and release the seq.
//
// Ordering is by seq only. No wall-clock value enters state or ids.
package engine

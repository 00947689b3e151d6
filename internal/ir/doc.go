// Package ir defines the journal record types for arthouse and the
// canonical value model their ids are computed over.
//
// ir imports nothing internal. Values are restricted to strings, int64,
// bools, arrays and objects: floats and null cannot be represented, so
// every record has exactly one canonical encoding.
package ir

// Package mock provides test doubles for the ai service interfaces.
//
// The mocks are deterministic by default (the embedder derives vectors
// from an FNV hash of the input, so equal texts always embed equally)
// and support behavior injection through function fields for error-path
// testing.
package mock

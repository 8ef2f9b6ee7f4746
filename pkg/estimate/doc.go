// Package estimate counts tokens for quota accounting.
//
// Counts come from the model's BPE encoding via tiktoken when the
// encoding can be loaded, and from a 4-characters-per-token
// approximation otherwise. Either way the result is an estimate to
// charge against token ceilings before a request is sent, not an exact
// bill.
package estimate

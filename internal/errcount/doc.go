// Package errcount tracks how many runs in a row each domain has failed.
//
// The Counter is loaded from a Store when a run starts, updated once per
// link after probing (a success resets the domain to zero, a failure adds
// one) and written back at the end. Persistence is best effort: a Store that
// cannot be read yields an empty map, and a failed save is only logged.
package errcount

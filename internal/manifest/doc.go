// Package manifest fetches the remote friend link list and turns each
// positional [name, url, favicon] record into an Entry.
package manifest

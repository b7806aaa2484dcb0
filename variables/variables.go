// Package variables implements the translator's flat, insertion-ordered
// name-to-address table.
package variables

import (
	"fmt"
	"regexp"
)

var namePattern = regexp.MustCompile(`^[a-z_][a-z_0-9]*$`)

// Index is an append-only name -> address table. Addresses are allocated
// from a monotonic counter starting at the value passed to New.
type Index struct {
	next      int
	addresses map[string]int
	names     []string
}

// New returns an Index whose first allocation begins at start.
func New(start int) *Index {
	return &Index{next: start, addresses: make(map[string]int)}
}

func valid(name string) bool {
	return namePattern.MatchString(name)
}

// Register returns name's address, allocating a fresh one on first sight.
// Re-registering an already-known name returns its existing address.
func (ix *Index) Register(name string) (int, error) {
	if !valid(name) {
		return 0, fmt.Errorf("Unsupported variable name: '%s'", name)
	}
	if addr, ok := ix.addresses[name]; ok {
		return addr, nil
	}
	addr := ix.next
	ix.next++
	ix.addresses[name] = addr
	ix.names = append(ix.names, name)
	return addr, nil
}

// Read returns the address of an already-registered name.
func (ix *Index) Read(name string) (int, error) {
	if !valid(name) {
		return 0, fmt.Errorf("Unsupported variable name: '%s'", name)
	}
	addr, ok := ix.addresses[name]
	if !ok {
		return 0, fmt.Errorf("Variable '%s' is not defined", name)
	}
	return addr, nil
}

// Names returns registered variable names in first-seen order.
func (ix *Index) Names() []string {
	out := make([]string, len(ix.names))
	copy(out, ix.names)
	return out
}

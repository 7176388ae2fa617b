// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ember

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/exp/maps"
)

// registry is a thread-safe, case-insensitive name-to-value table shared by
// the Interpreter and Processor factory registries: both need the same
// register-once/look-up-by-name/list-all behavior, differing only in what T
// is and in how a naming collision is reported to the caller.
type registry[T any] struct {
	mu      sync.Mutex
	entries map[string]T
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{entries: map[string]T{}}
}

// register binds name to value, failing if name (case-insensitively) is
// already bound.
func (r *registry[T]) register(name string, value T) error {
	key := strings.ToLower(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, found := r.entries[key]; found {
		return fmt.Errorf("invalid initialization: multiple factories registered for `%s`", key)
	}
	r.entries[key] = value
	return nil
}

func (r *registry[T]) get(name string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.entries[strings.ToLower(name)]
	return v, ok
}

func (r *registry[T]) all() map[string]T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.entries)
}

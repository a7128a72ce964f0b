// Package memorytest provides in-process implementations of the store ports
// for service tests. They honour the same contracts as the Postgres
// repositories; production code never imports this package.
package memorytest

import (
	"sync"
)

type faults struct {
	mu   sync.Mutex
	errs map[string]error
}

// FailOn makes every later call of op return err. A nil err clears it.
func (f *faults) FailOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs == nil {
		f.errs = map[string]error{}
	}
	if err == nil {
		delete(f.errs, op)
		return
	}
	f.errs[op] = err
}

func (f *faults) fault(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[op]
}

package pico

import (
	"sync"

	"github.com/picoforge/go-picorepl/repl"
)

// outputRelay fans incoming fragments out to registered observers.
//
// The mutex is held across delivery, so registry mutation never races an
// in-flight dispatch and an unsubscribe is effective before the next
// fragment. The flip side is the documented observer contract: observers
// must not block, or they stall the reader.
type outputRelay struct {
	mu        sync.Mutex
	nextID    int
	order     []int
	observers map[int]OutputObserver
}

func newOutputRelay() *outputRelay {
	return &outputRelay{observers: make(map[int]OutputObserver)}
}

// subscribe registers fn and returns its subscription id.
func (r *outputRelay) subscribe(fn OutputObserver) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.observers[id] = fn
	r.order = append(r.order, id)
	return id
}

// unsubscribe removes the observer with the given id. Unknown ids are
// ignored.
func (r *outputRelay) unsubscribe(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.observers[id]; !ok {
		return
	}
	delete(r.observers, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// dispatch delivers frag to every observer in registration order.
func (r *outputRelay) dispatch(frag repl.Fragment) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		r.observers[id](frag)
	}
}

// Package registry holds the in-memory set of registered bots.
package registry

import (
	"errors"
	"sync"
)

// ErrDuplicateID is returned by Register when a bot with the same ID exists.
var ErrDuplicateID = errors.New("bot with this ID already exists")

// Bot pairs a text generation prompt with a posting interval.
type Bot struct {
	ID                  int64  `json:"id"`
	Name                string `json:"name"`
	Prompt              string `json:"prompt"`
	PostIntervalMinutes int    `json:"post_interval_minutes"`
}

// Registry is an insertion-ordered collection of bots keyed by ID.
// It is safe for concurrent use. Contents are not persisted.
type Registry struct {
	mu    sync.RWMutex
	byID  map[int64]int
	order []Bot
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byID: make(map[int64]int),
	}
}

// List returns all registered bots in insertion order. The result is a copy
// and is never nil.
func (r *Registry) List() []Bot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bots := make([]Bot, len(r.order))
	copy(bots, r.order)
	return bots
}

// Register appends bot unless its ID is already present, in which case the
// registry is left unchanged and ErrDuplicateID is returned.
func (r *Registry) Register(bot Bot) (Bot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[bot.ID]; exists {
		return Bot{}, ErrDuplicateID
	}

	r.byID[bot.ID] = len(r.order)
	r.order = append(r.order, bot)
	return bot, nil
}

// Get returns the bot registered under id.
func (r *Registry) Get(id int64) (Bot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byID[id]
	if !ok {
		return Bot{}, false
	}
	return r.order[idx], true
}

// Len reports the number of registered bots.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Remove drops the bot registered under id, preserving the order of the
// rest. It backs out a registration whose schedule could not be created.
func (r *Registry) Remove(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.byID[id]
	if !ok {
		return false
	}

	r.order = append(r.order[:idx], r.order[idx+1:]...)
	delete(r.byID, id)
	for i := idx; i < len(r.order); i++ {
		r.byID[r.order[i].ID] = i
	}
	return true
}

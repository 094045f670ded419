package storage

import (
	"context"
	"sync"

	"github.com/Veraticus/budgetbot/internal/rules"
)

// MemoryRepository keeps the encoded rule document in memory. It goes through
// the same codec as the durable repositories, so a loaded rule set never
// aliases a saved one.
type MemoryRepository struct {
	data []byte
	mu   sync.Mutex
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Load decodes the stored document, or returns an empty rule set.
func (r *MemoryRepository) Load(ctx context.Context) (*rules.RuleSet, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.data == nil {
		return rules.NewRuleSet(), nil
	}
	return rules.Decode(r.data)
}

// Save encodes and stores the rule set.
func (r *MemoryRepository) Save(ctx context.Context, rs *rules.RuleSet) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRuleSet(rs); err != nil {
		return err
	}

	data, err := rules.Encode(rs)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = data
	return nil
}

// Document returns a copy of the stored document.
func (r *MemoryRepository) Document() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.data == nil {
		return nil
	}
	out := make([]byte, len(r.data))
	copy(out, r.data)
	return out
}

// SetDocument replaces the stored document, corrupt or not.
func (r *MemoryRepository) SetDocument(data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = data
}

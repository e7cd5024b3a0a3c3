package book

import (
	"sort"

	"github.com/PxPatel/clob-exchange/internal/types"
)

// Registry maps order id to the live record. Terminal orders are removed.
type Registry struct {
	orders map[uint64]*types.Order
}

func NewRegistry() *Registry {
	return &Registry{orders: make(map[uint64]*types.Order)}
}

func (r *Registry) Add(o *types.Order) error {
	if _, ok := r.orders[o.ID]; ok {
		return ErrDuplicateOrder
	}
	r.orders[o.ID] = o
	return nil
}

func (r *Registry) Get(id uint64) (*types.Order, bool) {
	o, ok := r.orders[id]
	return o, ok
}

func (r *Registry) Delete(id uint64) {
	delete(r.orders, id)
}

func (r *Registry) Len() int { return len(r.orders) }

// All returns the live orders sorted by id.
func (r *Registry) All() []*types.Order {
	out := make([]*types.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

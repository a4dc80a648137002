package workflow

import (
	"github.com/garyjia/procurement-flow/internal/domain/entity"
	domainwf "github.com/garyjia/procurement-flow/internal/domain/workflow"
)

// itemSet holds working copies of a request's line items and tracks which ones changed
type itemSet struct {
	order   []*entity.LineItem
	byID    map[string]*entity.LineItem
	touched map[string]bool
}

func newItemSet(items []*entity.LineItem) *itemSet {
	set := &itemSet{
		order:   make([]*entity.LineItem, 0, len(items)),
		byID:    make(map[string]*entity.LineItem, len(items)),
		touched: make(map[string]bool),
	}
	for _, it := range items {
		cp := *it
		set.order = append(set.order, &cp)
		set.byID[cp.ID] = &cp
	}
	return set
}

func (s *itemSet) get(id string) (*entity.LineItem, error) {
	it, ok := s.byID[id]
	if !ok {
		return nil, domainwf.Missing("line item %s not found", id)
	}
	return it, nil
}

func (s *itemSet) touch(id string) {
	s.touched[id] = true
}

func (s *itemSet) all() []*entity.LineItem {
	return s.order
}

// changed returns the modified items in their original order
func (s *itemSet) changed() []*entity.LineItem {
	var out []*entity.LineItem
	for _, it := range s.order {
		if s.touched[it.ID] {
			out = append(out, it)
		}
	}
	return out
}

// setValidated writes validated quantities. Every value must lie in [0, requested].
func (s *itemSet) setValidated(quantities map[string]float64) error {
	// Check everything first so a bad entry leaves no item half-updated.
	for id, q := range quantities {
		it, err := s.get(id)
		if err != nil {
			return err
		}
		if !isQuantity(q) || q < 0 || q > it.RequestedQty {
			return domainwf.Invalid("validated quantity %v of item %s must be between 0 and %v", q, id, it.RequestedQty)
		}
	}
	for id, q := range quantities {
		s.byID[id].ValidatedQty = floatPtr(q)
		s.touch(id)
	}
	return nil
}

// setReceived writes received quantities. Every line item needs a non-negative value.
func (s *itemSet) setReceived(quantities map[string]float64) error {
	for id := range quantities {
		if _, err := s.get(id); err != nil {
			return err
		}
	}
	for _, it := range s.order {
		q, ok := quantities[it.ID]
		if !ok {
			return domainwf.Invalid("received quantity missing for item %s", it.ID)
		}
		if !isQuantity(q) || q < 0 {
			return domainwf.Invalid("received quantity %v of item %s must be a non-negative number", q, it.ID)
		}
	}
	for _, it := range s.order {
		it.ReceivedQty = floatPtr(quantities[it.ID])
		s.touch(it.ID)
	}
	return nil
}

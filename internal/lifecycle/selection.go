package lifecycle

import "fmt"

// SelectionSet is the cart a client builds while browsing the catalog:
// selected item ids in selection order, each paired with a quantity.
type SelectionSet struct {
	order []string
	qty   map[string]int
}

func NewSelectionSet() *SelectionSet {
	return &SelectionSet{qty: make(map[string]int)}
}

// SelectionFromRequest rebuilds a selection from a submitted id list and
// quantity map. Both sides must name exactly the same items.
func SelectionFromRequest(ids []string, quantities map[string]int) (*SelectionSet, error) {
	var ve ValidationErrors
	s := NewSelectionSet()
	for _, id := range ids {
		if id == "" {
			ve.Add("selection", "item id must not be empty")
			continue
		}
		if s.Contains(id) {
			ve.Add("selection", fmt.Sprintf("item %s selected twice", id))
			continue
		}
		q, ok := quantities[id]
		if !ok {
			ve.Add("quantities", fmt.Sprintf("missing quantity for item %s", id))
			continue
		}
		s.order = append(s.order, id)
		s.qty[id] = q
	}
	for id := range quantities {
		if !s.Contains(id) && !contains(ids, id) {
			ve.Add("quantities", fmt.Sprintf("quantity given for unselected item %s", id))
		}
	}
	if err := ve.errOrNil(); err != nil {
		return nil, err
	}
	return s, nil
}

// Toggle adds the item with quantity 1 or removes it together with its
// quantity. It returns whether the item is selected afterwards.
func (s *SelectionSet) Toggle(itemID string) bool {
	if s.Contains(itemID) {
		s.Remove(itemID)
		return false
	}
	s.order = append(s.order, itemID)
	s.qty[itemID] = 1
	return true
}

func (s *SelectionSet) Remove(itemID string) {
	if !s.Contains(itemID) {
		return
	}
	delete(s.qty, itemID)
	for i, id := range s.order {
		if id == itemID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// SetQuantity changes the quantity of an already selected item.
func (s *SelectionSet) SetQuantity(itemID string, quantity int) error {
	if !s.Contains(itemID) {
		return fmt.Errorf("%w: item %s is not selected", ErrConflict, itemID)
	}
	s.qty[itemID] = quantity
	return nil
}

func (s *SelectionSet) Contains(itemID string) bool {
	_, ok := s.qty[itemID]
	return ok
}

func (s *SelectionSet) Quantity(itemID string) int {
	return s.qty[itemID]
}

func (s *SelectionSet) Len() int {
	return len(s.order)
}

func (s *SelectionSet) Clear() {
	s.order = nil
	s.qty = make(map[string]int)
}

// Lines converts the selection into RFQ lines in selection order.
func (s *SelectionSet) Lines() []Line {
	lines := make([]Line, 0, len(s.order))
	for _, id := range s.order {
		lines = append(lines, Line{ItemID: id, Quantity: s.qty[id]})
	}
	return lines
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

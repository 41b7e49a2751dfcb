package lifecycle

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"marketplace/models"
)

var errInjected = errors.New("injected failure")

// memStore is an in-memory Store. Atomic snapshots every table and restores
// the snapshot when fn fails, which is enough to observe rollback behaviour.
type memStore struct {
	items      map[string]models.Item
	rfqs       map[string]models.RFQ
	rfqItems   []models.RFQItem
	quotes     map[string]models.Quote
	quoteItems []models.QuoteItem
	orders     map[string]models.Order
	history    []models.OrderStatusChange
	ratings    map[string]models.Rating
	counters   map[string]int
	supRating  map[string]decimal.Decimal

	failOn string
}

func newMemStore() *memStore {
	return &memStore{
		items:     map[string]models.Item{},
		rfqs:      map[string]models.RFQ{},
		quotes:    map[string]models.Quote{},
		orders:    map[string]models.Order{},
		ratings:   map[string]models.Rating{},
		counters:  map[string]int{},
		supRating: map[string]decimal.Decimal{},
	}
}

type memSnapshot struct {
	rfqs       map[string]models.RFQ
	rfqItems   []models.RFQItem
	quotes     map[string]models.Quote
	quoteItems []models.QuoteItem
	orders     map[string]models.Order
	history    []models.OrderStatusChange
	ratings    map[string]models.Rating
	counters   map[string]int
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (m *memStore) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	snap := memSnapshot{
		rfqs:       copyMap(m.rfqs),
		rfqItems:   append([]models.RFQItem(nil), m.rfqItems...),
		quotes:     copyMap(m.quotes),
		quoteItems: append([]models.QuoteItem(nil), m.quoteItems...),
		orders:     copyMap(m.orders),
		history:    append([]models.OrderStatusChange(nil), m.history...),
		ratings:    copyMap(m.ratings),
		counters:   copyMap(m.counters),
	}
	if err := fn(m); err != nil {
		m.rfqs, m.rfqItems = snap.rfqs, snap.rfqItems
		m.quotes, m.quoteItems = snap.quotes, snap.quoteItems
		m.orders, m.history = snap.orders, snap.history
		m.ratings, m.counters = snap.ratings, snap.counters
		return err
	}
	return nil
}

func (m *memStore) fail(op string) error {
	if m.failOn == op {
		return errInjected
	}
	return nil
}

func (m *memStore) GetItems(ctx context.Context, ids []string) ([]models.Item, error) {
	var out []models.Item
	for _, id := range ids {
		if it, ok := m.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memStore) ApprovedItemIDs(ctx context.Context, supplierID string) ([]string, error) {
	var out []string
	for _, it := range m.items {
		if it.SupplierID == supplierID && it.Status == models.ItemApproved {
			out = append(out, it.ID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStore) CreateRFQ(ctx context.Context, rfq *models.RFQ) error {
	if err := m.fail("CreateRFQ"); err != nil {
		return err
	}
	r := *rfq
	r.Items, r.Quotes = nil, nil
	m.rfqs[r.ID] = r
	return nil
}

func (m *memStore) CreateRFQItems(ctx context.Context, items []models.RFQItem) error {
	if err := m.fail("CreateRFQItems"); err != nil {
		return err
	}
	m.rfqItems = append(m.rfqItems, items...)
	return nil
}

func (m *memStore) GetRFQ(ctx context.Context, id string, lock bool) (*models.RFQ, error) {
	r, ok := m.rfqs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *memStore) ListRFQItems(ctx context.Context, rfqID string) ([]models.RFQItem, error) {
	var out []models.RFQItem
	for _, it := range m.rfqItems {
		if it.RFQID == rfqID {
			it.ItemSupplierID = m.items[it.ItemID].SupplierID
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memStore) SetRFQStatus(ctx context.Context, id string, from []models.RFQStatus, to models.RFQStatus) (bool, error) {
	if err := m.fail("SetRFQStatus"); err != nil {
		return false, err
	}
	r, ok := m.rfqs[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if r.Status == f {
			r.Status = to
			r.Version++
			m.rfqs[id] = r
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ListOpenRFQsWithItems(ctx context.Context, itemIDs []string) ([]models.RFQ, error) {
	want := map[string]bool{}
	for _, id := range itemIDs {
		want[id] = true
	}
	var out []models.RFQ
	for _, r := range m.rfqs {
		if r.Status != models.RFQOpen {
			continue
		}
		items, _ := m.ListRFQItems(ctx, r.ID)
		hit := false
		for _, it := range items {
			if want[it.ItemID] {
				hit = true
			}
		}
		if hit {
			r.Items = items
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) QuotedRFQIDs(ctx context.Context, supplierID string) ([]string, error) {
	var out []string
	for _, q := range m.quotes {
		if q.SupplierID == supplierID {
			out = append(out, q.RFQID)
		}
	}
	return out, nil
}

func (m *memStore) CreateQuote(ctx context.Context, q *models.Quote) error {
	if err := m.fail("CreateQuote"); err != nil {
		return err
	}
	for _, existing := range m.quotes {
		if existing.RFQID == q.RFQID && existing.SupplierID == q.SupplierID {
			return ErrDuplicateQuote
		}
	}
	c := *q
	c.Items = nil
	m.quotes[c.ID] = c
	return nil
}

func (m *memStore) CreateQuoteItems(ctx context.Context, items []models.QuoteItem) error {
	if err := m.fail("CreateQuoteItems"); err != nil {
		return err
	}
	m.quoteItems = append(m.quoteItems, items...)
	return nil
}

func (m *memStore) GetQuote(ctx context.Context, id string, lock bool) (*models.Quote, error) {
	q, ok := m.quotes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &q, nil
}

func (m *memStore) ListQuotes(ctx context.Context, rfqID string) ([]models.Quote, error) {
	var out []models.Quote
	for _, q := range m.quotes {
		if q.RFQID == rfqID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListQuoteItems(ctx context.Context, quoteID string) ([]models.QuoteItem, error) {
	var out []models.QuoteItem
	for _, it := range m.quoteItems {
		if it.QuoteID == quoteID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memStore) SetQuoteStatus(ctx context.Context, id string, from, to models.QuoteStatus) (bool, error) {
	if err := m.fail("SetQuoteStatus"); err != nil {
		return false, err
	}
	q, ok := m.quotes[id]
	if !ok || q.Status != from {
		return false, nil
	}
	q.Status = to
	q.Version++
	m.quotes[id] = q
	return true, nil
}

func (m *memStore) RejectQuotes(ctx context.Context, ids []string) (int64, error) {
	if err := m.fail("RejectQuotes"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range ids {
		q, ok := m.quotes[id]
		if ok && q.Status == models.QuotePending {
			q.Status = models.QuoteRejected
			q.Version++
			m.quotes[id] = q
			n++
		}
	}
	return n, nil
}

func (m *memStore) CreateOrder(ctx context.Context, o *models.Order) error {
	if err := m.fail("CreateOrder"); err != nil {
		return err
	}
	for _, existing := range m.orders {
		if existing.RFQID == o.RFQID {
			return ErrConflict
		}
	}
	m.orders[o.ID] = *o
	return nil
}

func (m *memStore) GetOrder(ctx context.Context, id string, lock bool) (*models.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (m *memStore) UpdateOrderStatus(ctx context.Context, o *models.Order, from models.OrderStatus) (bool, error) {
	if err := m.fail("UpdateOrderStatus"); err != nil {
		return false, err
	}
	cur, ok := m.orders[o.ID]
	if !ok || cur.Status != from {
		return false, nil
	}
	c := *o
	c.Version = cur.Version + 1
	m.orders[o.ID] = c
	return true, nil
}

func (m *memStore) AddOrderStatusChange(ctx context.Context, c *models.OrderStatusChange) error {
	if err := m.fail("AddOrderStatusChange"); err != nil {
		return err
	}
	c.ID = int64(len(m.history) + 1)
	m.history = append(m.history, *c)
	return nil
}

func (m *memStore) IncrementOrderCounters(ctx context.Context, userIDs ...string) error {
	for _, id := range userIDs {
		m.counters[id]++
	}
	return nil
}

func (m *memStore) CreateRating(ctx context.Context, r *models.Rating) error {
	for _, existing := range m.ratings {
		if existing.OrderID == r.OrderID {
			return ErrConflict
		}
	}
	m.ratings[r.ID] = *r
	return nil
}

func (m *memStore) RefreshSupplierRating(ctx context.Context, supplierID string) error {
	sum, n := 0, 0
	for _, r := range m.ratings {
		if r.SupplierID == supplierID {
			sum += r.Score
			n++
		}
	}
	if n > 0 {
		m.supRating[supplierID] = decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(n))).Round(2)
	}
	return nil
}

func (m *memStore) ExpireRFQs(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for id, r := range m.rfqs {
		if (r.Status == models.RFQOpen || r.Status == models.RFQQuoted) && r.Deadline != nil && r.Deadline.Before(now) {
			r.Status = models.RFQExpired
			m.rfqs[id] = r
			n++
		}
	}
	return n, nil
}

func (m *memStore) ExpireQuotes(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for id, q := range m.quotes {
		if q.Status == models.QuotePending && q.ValidUntil.Before(now) {
			q.Status = models.QuoteExpired
			m.quotes[id] = q
			n++
		}
	}
	return n, nil
}

// recordingNotifier keeps every notification it was asked to deliver.
type recordingNotifier struct {
	sent []models.Notification
}

func (r *recordingNotifier) Notify(ctx context.Context, n models.Notification) {
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) to(userID string) []models.Notification {
	var out []models.Notification
	for _, n := range r.sent {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// Package memory provides the authoritative in-memory implementation of the
// inventory store, used directly for tests and ephemeral runs and embedded by
// the durable backends.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"labstock/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Item aliases domain.Item for in-memory persistence operations.
	Item = domain.Item
	// Category aliases domain.Category.
	Category = domain.Category
	// Settings aliases domain.Settings.
	Settings = domain.Settings
	// Snapshot aliases domain.Snapshot.
	Snapshot = domain.Snapshot
)

type state struct {
	items    map[Category][]Item
	settings Settings
}

func newState() state {
	items := make(map[Category][]Item, len(domain.Categories))
	for _, c := range domain.Categories {
		items[c] = nil
	}
	return state{items: items, settings: domain.DefaultSettings()}
}

func (s state) clone() state {
	cloned := state{items: make(map[Category][]Item, len(s.items)), settings: s.settings}
	for c, list := range s.items {
		out := make([]Item, 0, len(list))
		for _, it := range list {
			out = append(out, domain.CloneItem(it))
		}
		cloned.items[c] = out
	}
	return cloned
}

// Store is an in-memory transactional inventory store. All mutations run
// against a cloned state that replaces the committed state only when the
// transaction function returns nil.
type Store struct {
	mu    sync.RWMutex
	state state
	newID func() string
}

// NewStore constructs an empty store seeded with default settings.
func NewStore() *Store {
	return &Store{state: newState(), newID: uuid.NewString}
}

// Transaction represents a mutation set applied to a cloned store state.
type Transaction struct {
	store *Store
	state state
}

var _ domain.Transaction = (*Transaction)(nil)

// RunInTransaction executes fn within a transactional copy of the store
// state. Any error from fn discards the copy, so a rejected operation leaves
// no trace.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Transaction{store: s, state: s.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

// View executes fn against a read-only snapshot of committed state.
func (s *Store) View(ctx context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(&view{state: &snapshot})
}

func validateItem(c Category, it Item) error {
	if strings.TrimSpace(it.Name) == "" {
		return domain.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if it.Purchase != "" && domain.IsFutureDate(it.Purchase) {
		return domain.ValidationError{Field: "purchase", Reason: "must not be in the future"}
	}
	if c == domain.CategoryChemicals {
		if it.State != "" && !it.State.Valid() {
			return domain.ValidationError{Field: "state", Reason: fmt.Sprintf("unknown state %q", it.State)}
		}
		if it.Unit != "" && !it.Unit.Valid() {
			return domain.ValidationError{Field: "unit", Reason: fmt.Sprintf("unknown unit %q", it.Unit)}
		}
		if it.Expiry != "" && it.Purchase != "" && domain.IsBeforeDate(it.Expiry, it.Purchase) {
			return domain.ValidationError{Field: "expiry", Reason: "must not be before the purchase date"}
		}
	} else {
		if it.Status != "" && !it.Status.Valid() {
			return domain.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", it.Status)}
		}
		if it.Quantity != float64(int64(it.Quantity)) {
			return domain.ValidationError{Field: "quantity", Reason: "must be a whole number"}
		}
	}
	return nil
}

func (tx *Transaction) collection(c Category) ([]Item, error) {
	if !c.Valid() {
		return nil, domain.NotFoundError{Entity: "category", ID: string(c)}
	}
	return tx.state.items[c], nil
}

func (tx *Transaction) locate(c Category, id string) ([]Item, int, error) {
	list, err := tx.collection(c)
	if err != nil {
		return nil, 0, err
	}
	for i := range list {
		if list[i].ID == id {
			return list, i, nil
		}
	}
	return nil, 0, domain.NotFoundError{Entity: "item", ID: id}
}

// CreateItem validates and appends a new item to the named collection,
// assigning it a fresh identifier and an empty audit log.
func (tx *Transaction) CreateItem(c Category, it Item) (Item, error) {
	list, err := tx.collection(c)
	if err != nil {
		return Item{}, err
	}
	if err := validateItem(c, it); err != nil {
		return Item{}, err
	}
	if it.ID == "" {
		it.ID = tx.store.newID()
	}
	it.ConsumptionLog = nil
	it.DamageLog = nil
	tx.state.items[c] = append(list, domain.CloneItem(it))
	return domain.CloneItem(it), nil
}

// UpdateItem mutates the item with the given ID in place, preserving its
// identifier and audit log sequence across the edit.
func (tx *Transaction) UpdateItem(c Category, id string, mutator func(*Item) error) (Item, error) {
	list, i, err := tx.locate(c, id)
	if err != nil {
		return Item{}, err
	}
	current := domain.CloneItem(list[i])
	if err := mutator(&current); err != nil {
		return Item{}, err
	}
	current.ID = id
	current.ConsumptionLog = append([]domain.LogEntry(nil), list[i].ConsumptionLog...)
	current.DamageLog = append([]domain.LogEntry(nil), list[i].DamageLog...)
	if err := validateItem(c, current); err != nil {
		return Item{}, err
	}
	list[i] = domain.CloneItem(current)
	return current, nil
}

// DeleteItem removes the item with the given ID, preserving the order of the
// remaining items. The item's audit log is removed with it.
func (tx *Transaction) DeleteItem(c Category, id string) error {
	list, i, err := tx.locate(c, id)
	if err != nil {
		return err
	}
	tx.state.items[c] = append(list[:i], list[i+1:]...)
	return nil
}

// resolveEventDate applies the soft date policy for consumption and damage
// events: blank means today, and a future date is silently replaced with
// today rather than rejected so an urgent action is never blocked on a typo.
func resolveEventDate(date string) string {
	if strings.TrimSpace(date) == "" {
		return domain.TodayString()
	}
	if domain.IsFutureDate(date) {
		return domain.TodayString()
	}
	return date
}

func (tx *Transaction) deplete(c Category, id string, amount float64, date string, damage bool) (Item, error) {
	if amount <= 0 {
		return Item{}, domain.ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	// Non-chemical stock is counted, not measured; a fractional event would
	// leave a non-whole balance behind.
	if c != domain.CategoryChemicals && amount != float64(int64(amount)) {
		return Item{}, domain.ValidationError{Field: "amount", Reason: "must be a whole number"}
	}
	list, i, err := tx.locate(c, id)
	if err != nil {
		return Item{}, err
	}
	it := domain.CloneItem(list[i])
	before := it.Quantity
	after := before - amount
	if after < 0 {
		after = 0
	}
	it.Quantity = after
	entry := domain.LogEntry{Date: resolveEventDate(date), Amount: amount, Original: before, Balance: after}
	if damage {
		it.DamageLog = append(it.DamageLog, entry)
	} else {
		it.ConsumptionLog = append(it.ConsumptionLog, entry)
	}
	list[i] = domain.CloneItem(it)
	return it, nil
}

// Consume depletes quantity by a fractional amount and appends to the
// consumption log. The balance never goes below zero.
func (tx *Transaction) Consume(c Category, id string, amount float64, date string) (Item, error) {
	return tx.deplete(c, id, amount, date, false)
}

// RecordDamage depletes quantity by a whole amount and appends to the damage
// log, under the same clamping and date rules as Consume.
func (tx *Transaction) RecordDamage(c Category, id string, amount int, date string) (Item, error) {
	return tx.deplete(c, id, float64(amount), date, true)
}

// UpdateSettings mutates the process-wide settings record.
func (tx *Transaction) UpdateSettings(mutator func(*Settings) error) (Settings, error) {
	current := tx.state.settings
	if err := mutator(&current); err != nil {
		return Settings{}, err
	}
	tx.state.settings = current
	return current, nil
}

// FindItem retrieves an item by ID from the transactional state.
func (tx *Transaction) FindItem(c Category, id string) (Item, bool) {
	_, i, err := tx.locate(c, id)
	if err != nil {
		return Item{}, false
	}
	return domain.CloneItem(tx.state.items[c][i]), true
}

// view implements domain.TransactionView over a cloned state.
type view struct {
	state *state
}

var _ domain.TransactionView = (*view)(nil)

func (v *view) ListItems(c Category) []Item        { return listItems(v.state, c) }
func (v *view) Search(q string) []domain.SearchHit { return search(v.state, q) }
func (v *view) Settings() Settings                 { return v.state.settings }

func (v *view) FindItem(c Category, id string) (Item, bool) {
	for _, it := range v.state.items[c] {
		if it.ID == id {
			return domain.CloneItem(it), true
		}
	}
	return Item{}, false
}

func listItems(s *state, c Category) []Item {
	out := make([]Item, 0, len(s.items[c]))
	for _, it := range s.items[c] {
		out = append(out, domain.CloneItem(it))
	}
	return out
}

// search performs a case-insensitive substring match across every text field
// of every item in every category, in display order.
func search(s *state, query string) []domain.SearchHit {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var hits []domain.SearchHit
	for _, c := range domain.Categories {
		for _, it := range s.items[c] {
			if itemMatches(it, q) {
				hits = append(hits, domain.SearchHit{Category: c, Item: domain.CloneItem(it)})
			}
		}
	}
	return hits
}

func itemMatches(it Item, q string) bool {
	fields := []string{
		it.Name,
		it.Location,
		it.Purchase,
		it.Expiry,
		it.Specs,
		string(it.State),
		string(it.Unit),
		string(it.Status),
		fmt.Sprintf("%g", it.Quantity),
	}
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Read helpers over committed state ------------------------------------------

// GetItem retrieves an item by ID from committed state.
func (s *Store) GetItem(c Category, id string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.state.items[c] {
		if it.ID == id {
			return domain.CloneItem(it), true
		}
	}
	return Item{}, false
}

// ListItems returns the committed collection for a category in insertion order.
func (s *Store) ListItems(c Category) []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listItems(&s.state, c)
}

// Search matches query against committed state across all categories.
func (s *Store) Search(query string) []domain.SearchHit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return search(&s.state, query)
}

// Settings returns the committed settings record.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.settings
}

// ExportState returns a deep copy of the full committed state for persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{Settings: s.state.settings}
	for _, c := range domain.Categories {
		snap.SetCollection(c, listItems(&s.state, c))
	}
	return snap
}

// ImportState replaces committed state with the given snapshot. A snapshot
// missing the settings record entirely hydrates to full defaults, and a blank
// PIN hydrates to the default PIN so a protected action can never become
// unguarded through a partial record.
func (s *Store) ImportState(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := newState()
	for _, c := range domain.Categories {
		list := snap.Collection(c)
		out := make([]Item, 0, len(list))
		for _, it := range list {
			if it.ID == "" {
				it.ID = s.newID()
			}
			out = append(out, domain.CloneItem(it))
		}
		next.items[c] = out
	}
	next.settings = snap.Settings
	if next.settings == (Settings{}) {
		next.settings = domain.DefaultSettings()
	}
	if next.settings.PIN == "" {
		next.settings.PIN = domain.DefaultPIN
	}
	s.state = next
}

package domain

import "context"

// Transaction exposes the inventory mutations a persistence implementation
// must support within an atomic scope. Every method validates before mutating
// and leaves state untouched on error.
type Transaction interface {
	CreateItem(c Category, it Item) (Item, error)
	UpdateItem(c Category, id string, mutator func(*Item) error) (Item, error)
	DeleteItem(c Category, id string) error
	Consume(c Category, id string, amount float64, date string) (Item, error)
	RecordDamage(c Category, id string, amount int, date string) (Item, error)
	UpdateSettings(mutator func(*Settings) error) (Settings, error)
	FindItem(c Category, id string) (Item, bool)
}

// TransactionView provides read-only access to a consistent state snapshot.
type TransactionView interface {
	ListItems(c Category) []Item
	FindItem(c Category, id string) (Item, bool)
	Search(query string) []SearchHit
	Settings() Settings
}

// PersistentStore is the load/save contract over durable backends. Durable
// implementations snapshot the full state after every successful transaction;
// the read side always serves committed state.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) error
	View(ctx context.Context, fn func(TransactionView) error) error
	GetItem(c Category, id string) (Item, bool)
	ListItems(c Category) []Item
	Search(query string) []SearchHit
	Settings() Settings
	ExportState() Snapshot
	ImportState(Snapshot)
}

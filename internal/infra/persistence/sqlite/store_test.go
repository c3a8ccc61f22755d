package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"labstock/pkg/domain"
)

func TestStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labstock.db")
	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	var created domain.Item
	err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var txErr error
		created, txErr = tx.CreateItem(domain.CategoryChemicals, domain.Item{
			Name: "acetone", Quantity: 500, Unit: domain.UnitMilliliter, State: domain.StateLiquid,
		})
		return txErr
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, txErr := tx.Consume(domain.CategoryChemicals, created.ID, 50, "10/06/2024"); txErr != nil {
			return txErr
		}
		_, txErr := tx.UpdateSettings(func(s *domain.Settings) error {
			s.LowThreshold = 25
			return nil
		})
		return txErr
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	if reopened.RecoveredCorrupt() {
		t.Fatalf("clean snapshot must not report corruption")
	}

	got, ok := reopened.GetItem(domain.CategoryChemicals, created.ID)
	if !ok {
		t.Fatalf("item lost across reload")
	}
	if got.Quantity != 450 || len(got.ConsumptionLog) != 1 {
		t.Fatalf("state not restored: %+v", got)
	}
	if got.ConsumptionLog[0].Date != "10/06/2024" || got.ConsumptionLog[0].Balance != 450 {
		t.Fatalf("log entry not restored: %+v", got.ConsumptionLog[0])
	}
	if reopened.Settings().LowThreshold != 25 {
		t.Fatalf("settings not restored: %+v", reopened.Settings())
	}
}

func TestStoreRejectedTransactionNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labstock.db")
	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, txErr := tx.CreateItem(domain.CategoryChemicals, domain.Item{Name: ""})
		return txErr
	})
	if err == nil {
		t.Fatalf("expected validation failure")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	if n := len(reopened.ListItems(domain.CategoryChemicals)); n != 0 {
		t.Fatalf("rejected create must not be persisted, found %d items", n)
	}
}

func TestStoreRecoversFromCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labstock.db")
	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, txErr := tx.CreateItem(domain.CategoryChemicals, domain.Item{Name: "acetone", Quantity: 100})
		return txErr
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.DB().Exec(`UPDATE state SET payload = X'00FF' WHERE bucket = 'chemicals'`); err != nil {
		t.Fatalf("corrupt payload: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen must not fail on a corrupt snapshot: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	if !reopened.RecoveredCorrupt() {
		t.Fatalf("corrupt snapshot must be reported")
	}
	if n := len(reopened.ListItems(domain.CategoryChemicals)); n != 0 {
		t.Fatalf("corrupt snapshot must hydrate to empty state, found %d items", n)
	}
	if reopened.Settings() != domain.DefaultSettings() {
		t.Fatalf("corrupt snapshot must hydrate default settings: %+v", reopened.Settings())
	}
}

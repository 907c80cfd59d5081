package store

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/cafesync/internal/domain"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// openTwice opens two handles on the same file, standing in for two
// processes sharing the state.
func openTwice(t *testing.T) (*Store, *Store) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shared.db")
	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open() first handle failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	b, err := Open(path)
	if err != nil {
		t.Fatalf("Open() second handle failed: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return a, b
}

func pendingJSON(t *testing.T, name string) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(domain.PendingOrder{
		CustomerName: name,
		Items:        []domain.LineItem{{Name: "Kopi Susu", Quantity: 1, UnitPrice: 18000}},
		TotalAmount:  18000,
	})
	if err != nil {
		t.Fatalf("marshal pending order: %v", err)
	}
	return raw
}

func historyEntry(name string, at time.Time) domain.HistoryEntry {
	return domain.HistoryEntry{
		Order:       domain.PendingOrder{CustomerName: name, TotalAmount: 1000},
		Fingerprint: "cafe" + hex.EncodeToString([]byte(name)),
		ProcessedAt: at,
	}
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		t.Fatalf("table_info(%s): %v", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan column: %v", err)
		}
		cols = append(cols, name)
	}
	return cols
}

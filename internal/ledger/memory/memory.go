package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"smartspend/internal/core"
	"smartspend/internal/ledger"
)

var (
	_ ledger.TransactionWriter = (*Store)(nil)
	_ ledger.TransactionSource = (*Store)(nil)
	_ ledger.UserRegistrar     = (*Store)(nil)
)

// SeedFile is the optional JSON file read by NewFromFiles.
const SeedFile = "seed_transactions.json"

type Store struct {
	mu    sync.Mutex
	items map[core.Kind][]core.Transaction
	users map[string]core.User // keyed by lower-case email
	seq   int
}

func New() *Store {
	return &Store{
		items: make(map[core.Kind][]core.Transaction),
		users: make(map[string]core.User),
	}
}

type seed struct {
	Earnings []core.Transaction `json:"earnings"`
	Spending []core.Transaction `json:"spending"`
}

// NewFromFiles builds a store seeded from base/seed_transactions.json when
// present. Invalid seed rows are kept, with a warning, so the chart rejects
// them instead of summing around them.
func NewFromFiles(base string) *Store {
	s := New()
	data, err := os.ReadFile(filepath.Join(base, SeedFile))
	if err != nil {
		return s
	}
	var sd seed
	if err := json.Unmarshal(data, &sd); err != nil {
		slog.Warn("Ignoring malformed seed file", "path", filepath.Join(base, SeedFile), "error", err)
		return s
	}
	load := func(kind core.Kind, txs []core.Transaction) {
		for i, tx := range txs {
			if err := tx.Validate(); err != nil {
				slog.Warn("Invalid seed transaction", "kind", kind, "index", i, "error", err)
			}
			s.items[kind] = append(s.items[kind], tx)
		}
	}
	load(core.Earning, sd.Earnings)
	load(core.Spending, sd.Spending)
	return s
}

// Submit stores the transaction and returns a synthetic reference.
func (s *Store) Submit(_ context.Context, kind core.Kind, tx core.Transaction) (string, error) {
	if err := kind.Validate(); err != nil {
		return "", err
	}
	if err := tx.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[kind] = append(s.items[kind], tx)
	s.seq++
	return fmt.Sprintf("mem:%d", s.seq), nil
}

// ListTransactions returns a copy of the stored transactions of kind.
func (s *Store) ListTransactions(_ context.Context, kind core.Kind) ([]core.Transaction, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction{}, s.items[kind]...), nil
}

func (s *Store) RegisterUser(_ context.Context, u core.User) (string, error) {
	key := strings.ToLower(strings.TrimSpace(u.Email))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.users[key]; taken {
		return "", core.ErrEmailTaken
	}
	s.users[key] = u
	return "mem:user:" + u.ID, nil
}

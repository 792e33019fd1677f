// Package firestore stores transactions and users in Cloud Firestore, one
// collection per transaction kind.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"smartspend/internal/core"
	"smartspend/internal/ledger"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
)

var (
	_ ledger.TransactionWriter = (*Store)(nil)
	_ ledger.TransactionSource = (*Store)(nil)
	_ ledger.UserRegistrar     = (*Store)(nil)
)

const (
	earningsCollection = "earnings"
	spendingCollection = "spending"
	usersCollection    = "users"
)

// transactionDoc is the persisted shape of a transaction.
type transactionDoc struct {
	Year        int       `firestore:"year"`
	Month       int       `firestore:"month"`
	Day         int       `firestore:"day"`
	Amount      float64   `firestore:"amount"`
	Description string    `firestore:"description"`
	CreatedAt   time.Time `firestore:"createdAt"`
}

type userDoc struct {
	Name         string    `firestore:"name"`
	Email        string    `firestore:"email"`
	PasswordHash string    `firestore:"passwordHash"`
	CreatedAt    time.Time `firestore:"createdAt"`
}

// Store implements the ledger ports on top of a Firestore client.
type Store struct {
	client *firestore.Client
	now    func() time.Time
}

// New creates a Firestore client for projectID and wraps it in a Store.
func New(ctx context.Context, projectID string) (*Store, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, errors.New("missing firestore project ID")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client. The Store takes ownership of it.
func NewWithClient(client *firestore.Client) *Store {
	return &Store{client: client, now: time.Now}
}

// Close releases the underlying client.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func collectionFor(kind core.Kind) (string, error) {
	switch kind {
	case core.Earning:
		return earningsCollection, nil
	case core.Spending:
		return spendingCollection, nil
	}
	return "", kind.Validate()
}

func toDoc(tx core.Transaction, createdAt time.Time) transactionDoc {
	return transactionDoc{
		Year:        tx.Year,
		Month:       tx.Month,
		Day:         tx.Day,
		Amount:      tx.Amount,
		Description: tx.Description,
		CreatedAt:   createdAt.UTC(),
	}
}

func fromDoc(d transactionDoc) core.Transaction {
	return core.Transaction{
		Year:        d.Year,
		Month:       d.Month,
		Day:         d.Day,
		Amount:      d.Amount,
		Description: d.Description,
	}
}

// Submit writes the transaction under a fresh UUID and returns
// "collection/id" as its reference.
func (s *Store) Submit(ctx context.Context, kind core.Kind, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	collection, err := collectionFor(kind)
	if err != nil {
		return "", err
	}
	if s.client == nil {
		return "", errors.New("firestore client not initialized")
	}

	id := uuid.NewString()
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, toDoc(tx, s.now())); err != nil {
		return "", fmt.Errorf("write %s/%s: %w", collection, id, err)
	}
	ref := collection + "/" + id
	slog.InfoContext(ctx, "Transaction stored in Firestore", "kind", kind, "ref", ref)
	return ref, nil
}

// ListTransactions returns every stored transaction of kind in creation order.
// Undecodable documents are skipped; decoded ones are returned as stored, even
// when invalid, so the chart reports them.
func (s *Store) ListTransactions(ctx context.Context, kind core.Kind) ([]core.Transaction, error) {
	collection, err := collectionFor(kind)
	if err != nil {
		return nil, err
	}
	if s.client == nil {
		return nil, errors.New("firestore client not initialized")
	}

	docs, err := s.client.Collection(collection).OrderBy("createdAt", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}

	out := make([]core.Transaction, 0, len(docs))
	for _, doc := range docs {
		var d transactionDoc
		if err := doc.DataTo(&d); err != nil {
			slog.WarnContext(ctx, "Skipping undecodable document", "collection", collection, "id", doc.Ref.ID, "error", err)
			continue
		}
		tx := fromDoc(d)
		if err := tx.Validate(); err != nil {
			slog.WarnContext(ctx, "Invalid transaction document", "collection", collection, "id", doc.Ref.ID, "error", err)
		}
		out = append(out, tx)
	}
	return out, nil
}

// RegisterUser stores the user keyed by its ID. A user with the same
// (case-insensitive) email yields core.ErrEmailTaken.
func (s *Store) RegisterUser(ctx context.Context, u core.User) (string, error) {
	if s.client == nil {
		return "", errors.New("firestore client not initialized")
	}
	email := strings.ToLower(strings.TrimSpace(u.Email))
	users := s.client.Collection(usersCollection)

	existing, err := users.Where("email", "==", email).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if len(existing) > 0 {
		return "", core.ErrEmailTaken
	}

	doc := userDoc{Name: u.Name, Email: email, PasswordHash: u.PasswordHash, CreatedAt: u.CreatedAt.UTC()}
	if _, err := users.Doc(u.ID).Set(ctx, doc); err != nil {
		return "", fmt.Errorf("write user: %w", err)
	}
	return usersCollection + "/" + u.ID, nil
}

// Package mongo implements the store ports on MongoDB. The persisted
// document shapes (user, amount, category, date, note, type; budgets
// keyed by email with limit, threshold, updatedAt) match the data the
// service has always written, so existing collections keep working.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// Store wraps the MongoDB collections backing the ledger.
type Store struct {
	client  *mongo.Client
	txs     *mongo.Collection
	budgets *mongo.Collection
	audit   *mongo.Collection
}

// New connects, pings, and binds the collections.
func New(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	db := client.Database(dbName)
	slog.InfoContext(ctx, "Connected to MongoDB", "database", dbName)
	return &Store{
		client:  client,
		txs:     db.Collection("transactions"),
		budgets: db.Collection("budgets"),
		audit:   db.Collection("ledger_events"),
	}, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping reports whether the deployment is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// txDoc is the stored transaction shape. Kind is omitempty on read so
// legacy documents without a type field decode to "" and get backfilled.
type txDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Owner    string             `bson:"user"`
	Amount   float64            `bson:"amount"`
	Category string             `bson:"category"`
	Date     string             `bson:"date"`
	Note     string             `bson:"note"`
	Kind     string             `bson:"type,omitempty"`
}

func (d txDoc) toCore() core.Transaction {
	return core.Transaction{
		ID:         d.ID.Hex(),
		Owner:      d.Owner,
		Amount:     d.Amount,
		Category:   d.Category,
		OccurredOn: d.Date,
		Note:       d.Note,
		Kind:       core.BackfillKind(core.Kind(d.Kind)),
	}
}

type budgetDoc struct {
	Owner     string    `bson:"email"`
	Limit     float64   `bson:"limit"`
	Threshold float64   `bson:"threshold"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// Insert implements store.LedgerStore.
func (s *Store) Insert(ctx context.Context, tx core.Transaction) (string, error) {
	doc := txDoc{
		Owner:    tx.Owner,
		Amount:   tx.Amount,
		Category: tx.Category,
		Date:     tx.OccurredOn,
		Note:     tx.Note,
		Kind:     string(tx.Kind),
	}
	res, err := s.txs.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert transaction: unexpected id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

// FindByOwner implements store.LedgerStore.
func (s *Store) FindByOwner(ctx context.Context, owner string) ([]core.Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := s.txs.Find(ctx, bson.M{"user": owner}, opts)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	return drain(ctx, cursor)
}

// FindOne implements store.LedgerStore. An id that is not a valid
// ObjectID hex cannot match anything and maps to ErrNotFound.
func (s *Store) FindOne(ctx context.Context, owner, id string) (core.Transaction, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return core.Transaction{}, core.ErrNotFound
	}
	var doc txDoc
	err = s.txs.FindOne(ctx, bson.M{"_id": oid, "user": owner}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("find transaction: %w", err)
	}
	return doc.toCore(), nil
}

// UpdateFields implements store.LedgerStore. Ownership rides in the
// same filter as the id, so the matched count is the whole answer.
func (s *Store) UpdateFields(ctx context.Context, owner, id string, fields map[string]any) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, nil
	}
	res, err := s.txs.UpdateOne(ctx, bson.M{"_id": oid, "user": owner}, bson.M{"$set": fields})
	if err != nil {
		return 0, fmt.Errorf("update transaction: %w", err)
	}
	return res.MatchedCount, nil
}

// Delete implements store.LedgerStore.
func (s *Store) Delete(ctx context.Context, owner, id string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, nil
	}
	res, err := s.txs.DeleteOne(ctx, bson.M{"_id": oid, "user": owner})
	if err != nil {
		return 0, fmt.Errorf("delete transaction: %w", err)
	}
	return res.DeletedCount, nil
}

// FindByOwnerAndDatePrefix implements store.LedgerStore. The stored
// date is a plain string, so month filtering is an anchored regex, not
// a calendar range.
func (s *Store) FindByOwnerAndDatePrefix(ctx context.Context, owner, prefix string) ([]core.Transaction, error) {
	filter := bson.M{
		"user": owner,
		"date": primitive.Regex{Pattern: "^" + prefix},
	}
	cursor, err := s.txs.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find transactions by month: %w", err)
	}
	return drain(ctx, cursor)
}

// ForEachByOwner implements store.LedgerStore, yielding documents as
// the cursor produces them.
func (s *Store) ForEachByOwner(ctx context.Context, owner string, kind core.Kind, fn func(core.Transaction) error) error {
	filter := bson.M{"user": owner}
	if kind == core.Income || kind == core.Expense {
		filter["type"] = string(kind)
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := s.txs.Find(ctx, filter, opts)
	if err != nil {
		return fmt.Errorf("find transactions: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc txDoc
		if err := cursor.Decode(&doc); err != nil {
			return fmt.Errorf("decode transaction: %w", err)
		}
		if err := fn(doc.toCore()); err != nil {
			return err
		}
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("iterate transactions: %w", err)
	}
	return nil
}

func drain(ctx context.Context, cursor *mongo.Cursor) ([]core.Transaction, error) {
	defer cursor.Close(ctx)
	var out []core.Transaction
	for cursor.Next(ctx) {
		var doc txDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode transaction: %w", err)
		}
		out = append(out, doc.toCore())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// Budgets returns the budget-policy view of the store.
func (s *Store) Budgets() store.BudgetStore { return budgetView{s} }

type budgetView struct{ s *Store }

func (v budgetView) FindOne(ctx context.Context, owner string) (core.BudgetPolicy, bool, error) {
	return v.s.findOneBudget(ctx, owner)
}

func (v budgetView) Upsert(ctx context.Context, p core.BudgetPolicy) error {
	return v.s.upsertBudget(ctx, p)
}

func (s *Store) findOneBudget(ctx context.Context, owner string) (core.BudgetPolicy, bool, error) {
	var doc budgetDoc
	err := s.budgets.FindOne(ctx, bson.M{"email": owner}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.BudgetPolicy{}, false, nil
	}
	if err != nil {
		return core.BudgetPolicy{}, false, fmt.Errorf("find budget: %w", err)
	}
	return core.BudgetPolicy{
		Owner:     doc.Owner,
		Limit:     doc.Limit,
		Threshold: doc.Threshold,
		UpdatedAt: doc.UpdatedAt,
	}, true, nil
}

func (s *Store) upsertBudget(ctx context.Context, p core.BudgetPolicy) error {
	update := bson.M{"$set": bson.M{
		"limit":     p.Limit,
		"threshold": p.Threshold,
		"updatedAt": p.UpdatedAt,
	}}
	opts := options.Update().SetUpsert(true)
	if _, err := s.budgets.UpdateOne(ctx, bson.M{"email": p.Owner}, update, opts); err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	return nil
}

// AppendAudit implements store.AuditStore.
func (s *Store) AppendAudit(ctx context.Context, e store.AuditEntry) error {
	doc := bson.M{
		"op":    e.Op,
		"txId":  e.TxID,
		"owner": e.Owner,
		"at":    e.At,
	}
	if _, err := s.audit.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

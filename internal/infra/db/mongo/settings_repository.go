package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hotelcore/internal/domain/policy"
)

const settingsID = "inventory_policy"

// SettingsStore keeps the two policy flags in a singleton document. Missing
// document means defaults (both false).
type SettingsStore struct {
	col *mongo.Collection
}

func NewSettingsStore(db *mongo.Database) *SettingsStore {
	return &SettingsStore{col: db.Collection("settings")}
}

func (s *SettingsStore) Load(ctx context.Context) (policy.Policy, error) {
	var doc struct {
		RequireInspectedToSell bool `bson:"require_inspected_to_sell"`
		EventClosesInventory   bool `bson:"event_closes_inventory"`
	}
	err := s.col.FindOne(ctx, bson.M{"_id": settingsID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return policy.Policy{}, nil
		}
		return policy.Policy{}, err
	}
	return policy.Policy{
		RequireInspectedToSell: doc.RequireInspectedToSell,
		EventClosesInventory:   doc.EventClosesInventory,
	}, nil
}

func (s *SettingsStore) Save(ctx context.Context, p policy.Policy) error {
	update := bson.M{"$set": bson.M{
		"require_inspected_to_sell": p.RequireInspectedToSell,
		"event_closes_inventory":    p.EventClosesInventory,
	}}
	opts := options.Update().SetUpsert(true)
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": settingsID}, update, opts)
	return err
}

var _ policy.Store = (*SettingsStore)(nil)

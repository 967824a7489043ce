package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainroom "hotelcore/internal/domain/room"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type RoomRepository struct {
	col *mongo.Collection
}

func NewRoomRepository(db *mongo.Database) *RoomRepository {
	col := db.Collection("rooms")
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "room_number", Value: 1}, {Key: "floor", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &RoomRepository{col: col}
}

func (r *RoomRepository) ByID(ctx context.Context, id domainroom.RoomID) (*domainroom.Room, error) {
	var doc roomDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainroom.ErrRoomNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *RoomRepository) ByNumber(ctx context.Context, roomNumber string, floor int) (*domainroom.Room, error) {
	var doc roomDocument
	if err := r.col.FindOne(ctx, bson.M{"room_number": roomNumber, "floor": floor}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainroom.ErrRoomNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *RoomRepository) Save(ctx context.Context, rm *domainroom.Room) error {
	doc := newRoomDocument(rm)
	filter := bson.M{"_id": doc.ID, "version": rm.Version}
	doc.Version = rm.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	rm.Version = doc.Version
	return nil
}

func (r *RoomRepository) List(ctx context.Context, filter domainroom.ListFilter) ([]*domainroom.Room, error) {
	query := bson.M{}
	if filter.Floor != nil {
		query["floor"] = *filter.Floor
	}
	if filter.RoomType != "" {
		query["room_type"] = filter.RoomType
	}
	if len(filter.States) > 0 {
		states := make([]string, 0, len(filter.States))
		for _, s := range filter.States {
			states = append(states, string(s))
		}
		query["state"] = bson.M{"$in": states}
	}
	opts := options.Find().SetSort(bson.D{{Key: "floor", Value: 1}, {Key: "room_number", Value: 1}})
	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []*domainroom.Room
	for cursor.Next(ctx) {
		var doc roomDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type roomDocument struct {
	ID                  string `bson:"_id"`
	RoomNumber          string `bson:"room_number"`
	Floor               int    `bson:"floor"`
	RoomType            string `bson:"room_type"`
	MaxOccupancy        int    `bson:"max_occupancy"`
	State               string `bson:"state"`
	MaintenanceRequired bool   `bson:"maintenance_required"`
	LastStatusChange    int64  `bson:"last_status_change"`
	StatusChangeReason  string `bson:"status_change_reason"`
	BlockingType        string `bson:"blocking_type"`
	BlockingReason      string `bson:"blocking_reason"`
	CreatedAt           int64  `bson:"created_at"`
	UpdatedAt           int64  `bson:"updated_at"`
	Version             int64  `bson:"version"`
}

func newRoomDocument(rm *domainroom.Room) roomDocument {
	return roomDocument{
		ID:                  string(rm.ID),
		RoomNumber:          rm.RoomNumber,
		Floor:               rm.Floor,
		RoomType:            rm.RoomType,
		MaxOccupancy:        rm.MaxOccupancy,
		State:               string(rm.State),
		MaintenanceRequired: rm.MaintenanceRequired,
		LastStatusChange:    rm.LastStatusChange.UnixMilli(),
		StatusChangeReason:  rm.StatusChangeReason,
		BlockingType:        rm.BlockingType,
		BlockingReason:      rm.BlockingReason,
		CreatedAt:           rm.CreatedAt.UnixMilli(),
		UpdatedAt:           rm.UpdatedAt.UnixMilli(),
		Version:             rm.Version,
	}
}

func (d roomDocument) toAggregate() *domainroom.Room {
	return &domainroom.Room{
		ID:                  domainroom.RoomID(d.ID),
		RoomNumber:          d.RoomNumber,
		Floor:               d.Floor,
		RoomType:            d.RoomType,
		MaxOccupancy:        d.MaxOccupancy,
		State:               domainroom.State(d.State),
		MaintenanceRequired: d.MaintenanceRequired,
		LastStatusChange:    timestampToTime(d.LastStatusChange),
		StatusChangeReason:  d.StatusChangeReason,
		BlockingType:        d.BlockingType,
		BlockingReason:      d.BlockingReason,
		CreatedAt:           timestampToTime(d.CreatedAt),
		UpdatedAt:           timestampToTime(d.UpdatedAt),
		Version:             d.Version,
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainroom.Repository = (*RoomRepository)(nil)

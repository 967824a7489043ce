package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainblocking "hotelcore/internal/domain/blocking"
	"hotelcore/internal/domain/shared/daterange"
)

type BlockingRepository struct {
	col *mongo.Collection
}

func NewBlockingRepository(db *mongo.Database) *BlockingRepository {
	col := db.Collection("room_blockings")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "status", Value: 1}, {Key: "start_date", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &BlockingRepository{col: col}
}

func (r *BlockingRepository) ByID(ctx context.Context, id domainblocking.IntervalID) (*domainblocking.Interval, error) {
	var doc blockingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainblocking.ErrIntervalNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BlockingRepository) Save(ctx context.Context, b *domainblocking.Interval) error {
	doc := newBlockingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
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
	b.Version = doc.Version
	return nil
}

func (r *BlockingRepository) ByRoom(ctx context.Context, roomID string) ([]*domainblocking.Interval, error) {
	return r.find(ctx, bson.M{"room_id": roomID})
}

func (r *BlockingRepository) Overlapping(ctx context.Context, roomID string, span daterange.Span, statuses []domainblocking.Status, excludeID domainblocking.IntervalID) ([]*domainblocking.Interval, error) {
	query := bson.M{
		"room_id":    roomID,
		"start_date": bson.M{"$lte": span.End.UnixMilli()},
		"end_date":   bson.M{"$gte": span.Start.UnixMilli()},
	}
	if len(statuses) > 0 {
		vals := make([]string, 0, len(statuses))
		for _, s := range statuses {
			vals = append(vals, string(s))
		}
		query["status"] = bson.M{"$in": vals}
	}
	if excludeID != "" {
		query["_id"] = bson.M{"$ne": string(excludeID)}
	}
	return r.find(ctx, query)
}

func (r *BlockingRepository) DueForActivation(ctx context.Context, asOf time.Time) ([]*domainblocking.Interval, error) {
	ms := asOf.UnixMilli()
	return r.find(ctx, bson.M{
		"status":     string(domainblocking.StatusPlanned),
		"start_date": bson.M{"$lte": ms},
		"end_date":   bson.M{"$gte": ms},
	})
}

func (r *BlockingRepository) DueForCompletion(ctx context.Context, asOf time.Time) ([]*domainblocking.Interval, error) {
	return r.find(ctx, bson.M{
		"status":   string(domainblocking.StatusActive),
		"end_date": bson.M{"$lt": asOf.UnixMilli()},
	})
}

func (r *BlockingRepository) find(ctx context.Context, query bson.M) ([]*domainblocking.Interval, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "end_date", Value: 1}})
	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []*domainblocking.Interval
	for cursor.Next(ctx) {
		var doc blockingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type blockingDocument struct {
	ID              string `bson:"_id"`
	RoomID          string `bson:"room_id"`
	Name            string `bson:"name"`
	Type            string `bson:"blocking_type"`
	Status          string `bson:"status"`
	StartDate       int64  `bson:"start_date"`
	EndDate         int64  `bson:"end_date"`
	Reason          string `bson:"reason"`
	ResponsibleUser string `bson:"responsible_user"`
	CreatedAt       int64  `bson:"created_at"`
	UpdatedAt       int64  `bson:"updated_at"`
	Version         int64  `bson:"version"`
}

func newBlockingDocument(b *domainblocking.Interval) blockingDocument {
	return blockingDocument{
		ID:              string(b.ID),
		RoomID:          b.RoomID,
		Name:            b.Name,
		Type:            string(b.Type),
		Status:          string(b.Status),
		StartDate:       b.Span.Start.UnixMilli(),
		EndDate:         b.Span.End.UnixMilli(),
		Reason:          b.Reason,
		ResponsibleUser: b.ResponsibleUser,
		CreatedAt:       b.CreatedAt.UnixMilli(),
		UpdatedAt:       b.UpdatedAt.UnixMilli(),
		Version:         b.Version,
	}
}

func (d blockingDocument) toAggregate() *domainblocking.Interval {
	return &domainblocking.Interval{
		ID:              domainblocking.IntervalID(d.ID),
		RoomID:          d.RoomID,
		Name:            d.Name,
		Type:            domainblocking.Type(d.Type),
		Status:          domainblocking.Status(d.Status),
		Span:            daterange.Span{Start: timestampToTime(d.StartDate), End: timestampToTime(d.EndDate)},
		Reason:          d.Reason,
		ResponsibleUser: d.ResponsibleUser,
		CreatedAt:       timestampToTime(d.CreatedAt),
		UpdatedAt:       timestampToTime(d.UpdatedAt),
		Version:         d.Version,
	}
}

var _ domainblocking.Repository = (*BlockingRepository)(nil)

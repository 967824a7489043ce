package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainhistory "hotelcore/internal/domain/history"
	domainroom "hotelcore/internal/domain/room"
)

// HistoryRepository appends ledger rows; the sequence counter lives in a
// side document so ChangeDate ties keep commit order across processes.
type HistoryRepository struct {
	col      *mongo.Collection
	counters *mongo.Collection
}

func NewHistoryRepository(db *mongo.Database) *HistoryRepository {
	col := db.Collection("room_status_history")
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "room_id", Value: 1}, {Key: "change_date", Value: 1}, {Key: "change_type", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &HistoryRepository{col: col, counters: db.Collection("counters")}
}

func (r *HistoryRepository) Append(ctx context.Context, entry domainhistory.Entry) error {
	seq, err := r.nextSeq(ctx)
	if err != nil {
		return err
	}
	entry.Seq = seq
	_, err = r.col.InsertOne(ctx, newHistoryDocument(entry))
	return err
}

func (r *HistoryRepository) ByRoom(ctx context.Context, roomID domainroom.RoomID, filter domainhistory.Filter) ([]domainhistory.Entry, error) {
	query := bson.M{"room_id": string(roomID)}
	if filter.ChangeType != "" {
		query["change_type"] = string(filter.ChangeType)
	}
	dateRange := bson.M{}
	if !filter.From.IsZero() {
		dateRange["$gte"] = filter.From.UnixMilli()
	}
	if !filter.To.IsZero() {
		dateRange["$lte"] = filter.To.UnixMilli()
	}
	if len(dateRange) > 0 {
		query["change_date"] = dateRange
	}
	opts := options.Find().SetSort(bson.D{{Key: "change_date", Value: 1}, {Key: "seq", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []domainhistory.Entry
	for cursor.Next(ctx) {
		var doc historyDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toEntry())
	}
	return out, cursor.Err()
}

func (r *HistoryRepository) nextSeq(ctx context.Context) (int64, error) {
	filter := bson.M{"_id": "room_status_history"}
	update := bson.M{"$inc": bson.M{"value": int64(1)}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var doc struct {
		Value int64 `bson:"value"`
	}
	if err := r.counters.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return 0, err
	}
	return doc.Value, nil
}

type historyDocument struct {
	RoomID                 string `bson:"room_id"`
	Seq                    int64  `bson:"seq"`
	ChangeType             string `bson:"change_type"`
	OldState               string `bson:"old_state"`
	NewState               string `bson:"new_state"`
	OldMaintenanceRequired bool   `bson:"old_maintenance_required"`
	NewMaintenanceRequired bool   `bson:"new_maintenance_required"`
	ChangeReason           string `bson:"change_reason"`
	ChangeMethod           string `bson:"change_method"`
	ChangeNotes            string `bson:"change_notes"`
	ChangedBy              string `bson:"changed_by"`
	ChangeDate             int64  `bson:"change_date"`
}

func newHistoryDocument(e domainhistory.Entry) historyDocument {
	return historyDocument{
		RoomID:                 string(e.RoomID),
		Seq:                    e.Seq,
		ChangeType:             string(e.ChangeType),
		OldState:               string(e.OldState),
		NewState:               string(e.NewState),
		OldMaintenanceRequired: e.OldMaintenanceRequired,
		NewMaintenanceRequired: e.NewMaintenanceRequired,
		ChangeReason:           e.ChangeReason,
		ChangeMethod:           e.ChangeMethod,
		ChangeNotes:            e.ChangeNotes,
		ChangedBy:              e.ChangedBy,
		ChangeDate:             e.ChangeDate.UnixMilli(),
	}
}

func (d historyDocument) toEntry() domainhistory.Entry {
	return domainhistory.Entry{
		RoomID:                 domainroom.RoomID(d.RoomID),
		Seq:                    d.Seq,
		ChangeType:             domainhistory.ChangeType(d.ChangeType),
		OldState:               domainroom.State(d.OldState),
		NewState:               domainroom.State(d.NewState),
		OldMaintenanceRequired: d.OldMaintenanceRequired,
		NewMaintenanceRequired: d.NewMaintenanceRequired,
		ChangeReason:           d.ChangeReason,
		ChangeMethod:           d.ChangeMethod,
		ChangeNotes:            d.ChangeNotes,
		ChangedBy:              d.ChangedBy,
		ChangeDate:             timestampToTime(d.ChangeDate),
	}
}

var _ domainhistory.Repository = (*HistoryRepository)(nil)

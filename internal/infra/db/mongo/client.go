package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const dialTimeout = 10 * time.Second

// Conn owns the driver client for the room database. Repositories share the
// selected database; the process closes the connection once on shutdown.
type Conn struct {
	client *mongo.Client
	DB     *mongo.Database
}

// Connect dials, pings the primary, and selects the database. Failing fast
// here keeps a bad URI from surfacing later as repository timeouts.
func Connect(ctx context.Context, uri, database string) (*Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	opts := options.Client().ApplyURI(uri).SetRetryWrites(true)
	cl, err := mongo.Connect(dialCtx, opts)
	if err != nil {
		return nil, err
	}
	if err := cl.Ping(dialCtx, readpref.Primary()); err != nil {
		_ = cl.Disconnect(context.Background())
		return nil, err
	}
	return &Conn{client: cl, DB: cl.Database(database)}, nil
}

func (c *Conn) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

func (c *Conn) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

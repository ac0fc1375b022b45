package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection  = "users"
	moviesCollection = "movies"
	actorsCollection = "actors"
	defaultDBName    = "movieclub"
)

// Client wraps a connected mongo client and the movie club database.
type Client struct {
	client *mongodriver.Client
	db     *mongodriver.Database
}

// Connect dials uri, pings the primary and selects the database named in the uri path.
func Connect(ctx context.Context, uri string) (*Client, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, fmt.Errorf("mongo: empty uri")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &Client{
		client: cli,
		db:     cli.Database(databaseFromURI(uri)),
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// Drop removes the whole database. Used by tests.
func (c *Client) Drop(ctx context.Context) error {
	return c.db.Drop(ctx)
}

func ensureIndexes(ctx context.Context, coll *mongodriver.Collection, models []mongodriver.IndexModel) error {
	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("mongo ensure indexes on %s: %w", coll.Name(), err)
	}
	return nil
}

func uniqueIndex(name string, field string) mongodriver.IndexModel {
	return mongodriver.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetName(name).SetUnique(true),
	}
}

// databaseFromURI returns the database named in the uri path, or the default name.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return defaultDBName
}

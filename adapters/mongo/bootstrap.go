package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/coregx/mongomq"
	"github.com/coregx/mongomq/model"
)

const (
	// DefaultDatabase is used when the configuration names no database.
	// Authentication then runs against the admin database, since credentials
	// created without a database target live there.
	DefaultDatabase = "mongomq"

	// DefaultCappedQueueSize is the byte size of the capped broadcast
	// collection. Once full, the oldest broadcast messages are evicted.
	DefaultCappedQueueSize = 100000

	// MinServerVersion is the oldest MongoDB server version the adapter
	// accepts. Older servers are rejected at Open before any schema change.
	MinServerVersion = "4.0"
)

// namespaceExistsCode is MongoDB's error code for creating a collection that
// already exists.
const namespaceExistsCode = 48

// Config holds the MongoDB connection settings.
type Config struct {
	Host     string // default: localhost
	Port     int    // default: 27017
	Username string
	Password string
	Database string // default: DefaultDatabase (with admin auth)
	TLS      bool

	// CappedQueueSize is the byte size of the capped broadcast collection.
	// Only applied when the collection is first created.
	CappedQueueSize int64
}

// withDefaults returns a copy of the config with zero values filled in.
func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = mongomq.DefaultPort
	}
	if c.CappedQueueSize <= 0 {
		c.CappedQueueSize = DefaultCappedQueueSize
	}
	return c
}

// databaseName returns the database the channel collections live in.
// An empty or "/" database means the caller gave a bare server address;
// the default database is substituted.
func (c Config) databaseName() string {
	if c.Database == "" || c.Database == "/" {
		return DefaultDatabase
	}
	return c.Database
}

// URI builds the MongoDB connection string for the config. When credentials
// are present but no database was named, authSource is forced to admin.
func (c Config) URI() string {
	c = c.withDefaults()

	uri := "mongodb://"
	if c.Username != "" {
		uri += c.Username
		if c.Password != "" {
			uri += ":" + c.Password
		}
		uri += "@"
	}
	uri += fmt.Sprintf("%s:%d/%s", c.Host, c.Port, c.databaseName())

	params := ""
	if c.Username != "" && (c.Database == "" || c.Database == "/") {
		params = appendParam(params, "authSource=admin")
	}
	if c.TLS {
		params = appendParam(params, "tls=true")
	}
	if params != "" {
		uri += "?" + params
	}
	return uri
}

func appendParam(params, p string) string {
	if params == "" {
		return p
	}
	return params + "&" + p
}

// Conn is an open MongoDB connection with the channel schema in place.
// It implements mongomq.Connector.
//
// Thread safety: safe for concurrent use.
type Conn struct {
	client        *mongo.Client
	db            *mongo.Database
	serverVersion string
}

// Open connects to MongoDB, verifies the server version, and ensures the
// channel collections and indexes exist.
//
// Returns a CONNECTION_ERROR when the server is unreachable or rejects the
// credentials, and a COMPATIBILITY_ERROR when the server version is below
// MinServerVersion. The version gate runs before any schema side effect, so
// an unsupported server is left untouched.
func Open(ctx context.Context, cfg Config) (*Conn, error) {
	cfg = cfg.withDefaults()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI()))
	if err != nil {
		return nil, mongomq.NewErrorWithCause(mongomq.ErrCodeConnection, "failed to connect to MongoDB", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, mongomq.NewErrorWithCause(mongomq.ErrCodeConnection, "failed to ping MongoDB", err)
	}

	version, err := serverVersion(ctx, client)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	if compareServerVersions(version, MinServerVersion) < 0 {
		_ = client.Disconnect(ctx)
		return nil, mongomq.NewError(mongomq.ErrCodeCompatibility,
			fmt.Sprintf("MongoDB version %s is not supported, minimum is %s", version, MinServerVersion))
	}

	conn := &Conn{
		client:        client,
		db:            client.Database(cfg.databaseName()),
		serverVersion: version,
	}

	if err := conn.ensureSchema(ctx, cfg.CappedQueueSize); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return conn, nil
}

// serverVersion fetches the server version via the buildInfo command.
func serverVersion(ctx context.Context, client *mongo.Client) (string, error) {
	var info struct {
		Version string `bson:"version"`
	}
	res := client.Database("admin").RunCommand(ctx, bson.D{{Key: "buildInfo", Value: 1}})
	if err := res.Decode(&info); err != nil {
		return "", mongomq.NewErrorWithCause(mongomq.ErrCodeConnection, "failed to read server build info", err)
	}
	return info.Version, nil
}

// ensureSchema creates the collections and indexes the channel relies on.
// Every step is idempotent; re-running against an existing schema is a no-op.
func (c *Conn) ensureSchema(ctx context.Context, cappedSize int64) error {
	// Dequeue filters on queue and sorts by _id; the compound index serves
	// both in one pass.
	messages := c.db.Collection(model.CollectionMessages)
	_, err := messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "queue", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		return mongomq.NewErrorWithCause(mongomq.ErrCodeStore, "failed to create messages index", err)
	}

	// The capped size is fixed at creation time; an existing collection keeps
	// whatever size it was created with.
	names, err := c.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: model.CollectionBroadcast}})
	if err != nil {
		return mongomq.NewErrorWithCause(mongomq.ErrCodeStore, "failed to list collections", err)
	}
	if len(names) == 0 {
		err := c.db.CreateCollection(ctx, model.CollectionBroadcast,
			options.CreateCollection().SetCapped(true).SetSizeInBytes(cappedSize))
		if err != nil && !isNamespaceExists(err) {
			return mongomq.NewErrorWithCause(mongomq.ErrCodeStore, "failed to create broadcast collection", err)
		}
	}

	broadcast := c.db.Collection(model.CollectionBroadcast)
	_, err = broadcast.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "queue", Value: 1}},
	})
	if err != nil {
		return mongomq.NewErrorWithCause(mongomq.ErrCodeStore, "failed to create broadcast index", err)
	}

	routing := c.db.Collection(model.CollectionRouting)
	_, err = routing.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "exchange", Value: 1}, {Key: "queue", Value: 1}},
	})
	if err != nil {
		return mongomq.NewErrorWithCause(mongomq.ErrCodeStore, "failed to create routing index", err)
	}

	return nil
}

func isNamespaceExists(err error) bool {
	var cmdErr mongo.CommandError
	return errors.As(err, &cmdErr) && cmdErr.Code == namespaceExistsCode
}

// ServerVersion returns the connected server's version string.
func (c *Conn) ServerVersion() string {
	return c.serverVersion
}

// Database returns the underlying database handle.
func (c *Conn) Database() *mongo.Database {
	return c.db
}

// Connect implements mongomq.Connector. The connection is already open, so
// this validates it and hands out the stores.
func (c *Conn) Connect(ctx context.Context) (mongomq.Stores, error) {
	if err := c.client.Ping(ctx, readpref.Primary()); err != nil {
		return mongomq.Stores{}, mongomq.NewErrorWithCause(mongomq.ErrCodeConnection, "failed to ping MongoDB", err)
	}
	return mongomq.Stores{
		Queue:     NewQueueStore(c.db),
		Broadcast: NewBroadcastStore(c.db),
		Routing:   NewRoutingStore(c.db),
	}, nil
}

// Close implements mongomq.Connector.
func (c *Conn) Close(ctx context.Context) error {
	if err := c.client.Disconnect(ctx); err != nil {
		return mongomq.NewErrorWithCause(mongomq.ErrCodeConnection, "failed to disconnect from MongoDB", err)
	}
	return nil
}

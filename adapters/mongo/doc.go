// Package mongo provides the MongoDB implementations of mongomq's store
// interfaces (QueueStore, BroadcastStore, RoutingStore) using the official
// MongoDB Go driver.
//
// Open connects, verifies the server version, and creates the collections
// and indexes the channel relies on:
//
//	conn, err := mongo.Open(ctx, mongo.Config{
//	    Host:     "localhost",
//	    Database: "broker",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close(ctx)
//
//	transport, _ := mongomq.NewTransport(mongomq.WithConnector(conn))
//
// Point-to-point dequeue maps to findAndModify with remove, sorted by _id
// ascending, so concurrent consumers never receive the same document. Fanout
// reads map to tailable cursors over the capped broadcast collection.
package mongo

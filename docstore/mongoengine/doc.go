// Package mongoengine provides a MongoDB implementation of the docstore.Store interface.
//
// Collections map one to one onto MongoDB collections. Filters are compiled to BSON query documents
// ($or, $and, $nor, $regex, $nin, $exists, $type, $expr). Identifiers default to ObjectIDs
// (docstore.ObjectIDScheme); hex strings of other documents' references are matched in both their
// string and their ObjectID form.
//
// Usage example:
//
//	client, _ := mongo.Connect(ctx, options.Client().ApplyURI(uri))
//	store, _ := mongoengine.NewDocumentStore(client.Database("shop"),
//		mongoengine.WithLogger(logger),
//	)
//
//	deleted, _ := store.DeleteMany(ctx, "reviews", filter)
package mongoengine

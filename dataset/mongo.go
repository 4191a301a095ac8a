package dataset

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/citylab/corridorsim/corridor"
)

// MongoPath names the database and collections holding the three tables.
type MongoPath struct {
	DB                string
	SegmentsColl      string
	IntersectionsColl string
	ODColl            string
}

func loadColl[T any](ctx context.Context, coll *mongo.Collection) ([]T, error) {
	cursor, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, errors.Wrapf(err, "find on %s", coll.Name())
	}
	defer cursor.Close(ctx)
	var out []T
	if err := cursor.All(ctx, &out); err != nil {
		return nil, errors.Wrapf(err, "decode %s", coll.Name())
	}
	return out, nil
}

// LoadMongo reads the three input tables from MongoDB collections of plain
// BSON documents, one document per table row.
func LoadMongo(ctx context.Context, uri string, path MongoPath) (*Tables, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect to mongo")
	}
	defer client.Disconnect(ctx)

	db := client.Database(path.DB)
	tables := &Tables{}
	if tables.Segments, err = loadColl[corridor.Segment](ctx, db.Collection(path.SegmentsColl)); err != nil {
		return nil, err
	}
	if tables.Intersections, err = loadColl[corridor.Intersection](ctx, db.Collection(path.IntersectionsColl)); err != nil {
		return nil, err
	}
	if tables.Demand, err = loadColl[corridor.ODEntry](ctx, db.Collection(path.ODColl)); err != nil {
		return nil, err
	}

	log.Infof("loaded mongo tables from %s: %d segments, %d intersections, %d OD entries",
		path.DB, len(tables.Segments), len(tables.Intersections), len(tables.Demand))
	return tables, nil
}

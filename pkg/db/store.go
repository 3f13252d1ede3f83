package db

import (
	"context"
	"math"
	"os"

	"github.com/grexie/derivatives/pkg/series"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SeriesCollection holds derived metric points, one document per
// (name, timestamp).
const SeriesCollection = "series_points"

func WithTransaction(db *mongo.Database, ctx context.Context, callback func(ctx context.Context) (any, error)) (any, error) {
	if os.Getenv("MONGO_SUPPORTS_TRANSACTIONS") == "true" {
		client := db.Client()
		session, err := client.StartSession()
		if err != nil {
			return nil, err
		}
		defer session.EndSession(ctx)

		return session.WithTransaction(ctx, func(ctx mongo.SessionContext) (interface{}, error) {
			return callback(ctx)
		})
	} else {
		return callback(ctx)
	}
}

// EnsureSeriesIndexes creates the unique (name, timestamp) index backing the
// SaveSeries upserts.
func EnsureSeriesIndexes(db *mongo.Database, ctx context.Context) error {
	return EnsureIndex(db, ctx, SeriesCollection, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}, {Key: "timestamp", Value: 1}},
		Options: options.Index().SetName("name_timestamp_unique").SetUnique(true),
	})
}

// SaveSeries upserts every point of s. Absent points are stored with a null
// value so readers can tell "known absent" from "never stored".
func SaveSeries(db *mongo.Database, ctx context.Context, s *series.Series) error {
	c := db.Collection(SeriesCollection)

	_, err := WithTransaction(db, ctx, func(ctx context.Context) (any, error) {
		for i := range s.Times {
			filter := bson.M{"name": s.Name, "timestamp": s.Times[i]}
			doc := bson.M{"name": s.Name, "timestamp": s.Times[i]}
			if math.IsNaN(s.Values[i]) {
				doc["value"] = nil
			} else {
				doc["value"] = s.Values[i]
			}
			if _, err := c.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true)); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

package repo

import (
	"context"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var mongoClient *mongo.Client

func GetMongoClient() *mongo.Client {
	return mongoClient
}

// InitMongo connects to url and checks the server is reachable.
func InitMongo(ctx context.Context, url string) error {
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return errors.Wrap(err, "connecting to mongodb")
	}
	if err = cli.Ping(ctx, readpref.Primary()); err != nil {
		grip.Warning(message.WrapError(cli.Disconnect(ctx), message.Fields{
			"message": "disconnecting after failed ping",
		}))
		return errors.Wrap(err, "pinging mongodb")
	}
	mongoClient = cli
	return nil
}

func CloseMongo(ctx context.Context) error {
	if mongoClient == nil {
		return nil
	}
	err := mongoClient.Disconnect(ctx)
	mongoClient = nil
	return errors.Wrap(err, "disconnecting from mongodb")
}

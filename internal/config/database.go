package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type MongoDBClient struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// IndexBuilder is implemented by repositories that own collection indexes.
type IndexBuilder interface {
	EnsureIndexes(ctx context.Context) error
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, cfg *AppConfig) (*MongoDBClient, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	return &MongoDBClient{Client: client, Database: client.Database(cfg.MongoDatabase)}, nil
}

func NewMongoDBClient(lc fx.Lifecycle, cfg *AppConfig, logger *zap.Logger) (*MongoDBClient, *mongo.Database, error) {
	mc, err := Connect(context.Background(), cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Connected to MongoDB", zap.String("database", cfg.MongoDatabase))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing MongoDB connection")
			return mc.Client.Disconnect(ctx)
		},
	})
	return mc, mc.Database, nil
}

// EnsureIndexes runs every builder; the first failure aborts.
func EnsureIndexes(ctx context.Context, builders []IndexBuilder) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	for _, b := range builders {
		if err := b.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}

type IndexParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Logger    *zap.Logger
	Builders  []IndexBuilder `group:"indexes"`
}

// RegisterIndexes creates indexes when the application starts.
func RegisterIndexes(p IndexParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := EnsureIndexes(ctx, p.Builders); err != nil {
				return err
			}
			p.Logger.Info("Indexes ensured", zap.Int("collections", len(p.Builders)))
			return nil
		},
	})
}

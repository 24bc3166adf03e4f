// Package mongo connects to the MongoDB deployment backing the in-app
// notification inbox.
//
// Configuration is read from the environment with pkg/config. When
// MONGODB_URL is empty the server keeps the inbox in memory.
//
//	var cfg mongo.Config
//	config.MustLoad(&cfg)
//
//	client, err := mongo.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Disconnect(context.Background())
//
//	storage, err := notifications.NewMongoStorage(ctx, client.Database(cfg.Database))
//
// Connect retries with linear backoff and honours ctx cancellation between
// attempts. Failures wrap ErrFailedToConnectToMongo. Healthcheck plugs into
// httpserver.Readiness.
package mongo

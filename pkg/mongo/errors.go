package mongo

import "errors"

var (
	ErrEmptyConnectionURL     = errors.New("mongo: connection url is empty")
	ErrFailedToConnectToMongo = errors.New("mongo: failed to connect")
	ErrHealthcheckFailed      = errors.New("mongo: healthcheck failed")
)

package orders

import "errors"

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderExists        = errors.New("order already exists")
	ErrStatusConflict     = errors.New("order status was changed concurrently")
	ErrTitleRequired      = errors.New("order title is required")
	ErrActorRequired      = errors.New("actor is required")
	ErrNotAssignedWriter  = errors.New("only the assigned writer can do this")
	ErrNotOwner           = errors.New("only the client who placed the order can do this")
	ErrWriterNotAssigned  = errors.New("order has no assigned writer")
	ErrDepositRequired    = errors.New("deposit has not been paid")
	ErrRepositoryRequired = errors.New("order repository is required")
	ErrAuthorizerRequired = errors.New("authorizer is required")
	ErrUnexpectedEntity   = errors.New("unexpected entity type")
)

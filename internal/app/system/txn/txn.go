// internal/app/system/txn/txn.go

// Package txn runs multi-document Mongo transactions with a graceful
// fallback for deployments that cannot support them (standalone mongod,
// as used in local development and CI).
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// IsNotSupported reports whether err indicates the server cannot run
// multi-document transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		// 20 IllegalOperation on standalone, 51 from older servers,
		// 263 OperationNotSupportedInTransaction.
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	has := func(s string) bool { return strings.Contains(msg, s) }
	if has("transaction") && (has("replica set") || has("session") || has("illegal operation")) {
		return true
	}
	if has("session") && has("not supported") {
		return true
	}
	return false
}

// WithTransaction runs fn inside a transaction, committing on nil and
// aborting on error. When the deployment does not support transactions
// the function runs once without one.
func WithTransaction(ctx context.Context, client *mongo.Client, fn func(ctx context.Context) error) error {
	session, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		return fn(ctx)
	}
	return err
}

package database

import "errors"

// ErrNotReady indicates the database connection has not been verified yet.
var ErrNotReady = errors.New("database not ready")

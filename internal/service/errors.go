package service

import "errors"

var (
	ErrInvalidRow       = errors.New("invalid country row")
	ErrInvalidBatchSize = errors.New("batch size must be a positive integer")

	errDryRunRollback = errors.New("dry run: rolling back")
)

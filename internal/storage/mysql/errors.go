package mysql

import "errors"

var (
	ErrBuildQuery = errors.New("build query")
	ErrExecQuery  = errors.New("exec query")
	ErrScanRow    = errors.New("scan row")
)

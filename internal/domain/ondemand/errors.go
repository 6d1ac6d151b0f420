package ondemand

import "errors"

var (
	ErrInvalidSettings = errors.New("invalid on-demand settings")
	ErrNilReportStore  = errors.New("report store is required")
)

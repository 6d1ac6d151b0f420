package report

import "errors"

var (
	ErrInvalidToken    = errors.New("data collection token is not valid")
	ErrNoUnsentReports = errors.New("no unsent reports")
	ErrReportUploaded  = errors.New("report already uploaded")
)

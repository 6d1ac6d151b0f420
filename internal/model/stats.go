package model

// StatsCounter names a daily on-demand counter.
type StatsCounter string

const (
	StatsCounterRecorded StatsCounter = "recorded"
	StatsCounterDropped  StatsCounter = "dropped"
	StatsCounterUploaded StatsCounter = "uploaded"
	StatsCounterDeleted  StatsCounter = "deleted"
)

// OnDemandStats holds the on-demand counters for one UTC day.
type OnDemandStats struct {
	Date     string `json:"date"`
	Recorded int64  `json:"recorded"`
	Dropped  int64  `json:"dropped"`
	Uploaded int64  `json:"uploaded"`
	Deleted  int64  `json:"deleted"`
}

package common

import "time"

const (
	RecordRetention  = 24 * time.Hour
	SuspicionWindow  = 1 * time.Hour
	SweepInterval    = 1 * time.Hour
	RecentEventLimit = 100
	AnalysisWindow   = 20
)

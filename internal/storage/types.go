package storage

import "time"

// Stats holds aggregate statistics about the Lookback database.
type Stats struct {
	TotalTabs      int64
	OpenTabs       int64
	TotalSessions  int64
	TotalIntervals int64
	TotalVisits    int64
	OldestTab      time.Time
	NewestTab      time.Time
	TopSites       []SiteCount
}

// SiteCount pairs a site with its page visit count.
type SiteCount struct {
	Site   string
	Visits int64
}

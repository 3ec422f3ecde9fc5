package domain

import "time"

// Click represents one recorded redirect of a short link
type Click struct {
	ID        string    `json:"id"`
	LinkCode  string    `json:"link_code"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"` // referrer, may be empty
	Geo       Geo       `json:"geo"`
}

// Geo holds coarse location data. Fields are empty when unknown.
type Geo struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	City      string `json:"city"`
	Country   string `json:"country"`
}

// Visit is what the transport layer knows about a redirect request.
type Visit struct {
	Referrer string
	IP       string
	Geo      *Geo // set when an edge proxy already located the client
}

// StatsView is the reporting view of a link and its clicks
type StatsView struct {
	TotalClicks int64
	OriginalURL string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Clicks      []ClickDetail
}

type ClickDetail struct {
	Timestamp time.Time
	Source    string
	Geo       Geo
}

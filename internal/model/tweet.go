package model

// Tweet is one externally-scraped social post delivered via the inbound
// webhook. Fields hold placeholder values when the relay omitted them.
type Tweet struct {
	User string
	Text string
	Link string
}

package model

// NewsItem is one item from the news flash API, normalized from the
// several shapes the upstream returns. ID and PubTime keep their raw
// string forms because they feed the change-detection fingerprint.
type NewsItem struct {
	ID      string
	Title   string
	Content string
	PubTime string // raw value: either a formatted time or numeric epoch seconds
	Tags    []string
	URL     string
}

// Fingerprint identifies a news item for change detection: the first
// non-empty of id, publish time and title wins.
func (n *NewsItem) Fingerprint() string {
	for _, v := range []string{n.ID, n.PubTime, n.Title} {
		if v != "" {
			return v
		}
	}
	return ""
}

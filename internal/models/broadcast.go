package models

// BroadcastResult aggregates the outcome of one broadcast. It lives for the
// duration of the request and is never persisted as a whole.
type BroadcastResult struct {
	Total      int      `json:"total_subscribers"`
	Succeeded  int      `json:"successful_sends"`
	Failed     int      `json:"failed_sends"`
	MessageIDs []int64  `json:"message_ids"`
	MediaIDs   []int64  `json:"media_ids"`
	Errors     []string `json:"errors,omitempty"`
}

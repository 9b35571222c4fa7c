package model

import "time"

// ActivityType enumerates the events of the activity feed.
type ActivityType string

const (
	ActivityDownload ActivityType = "download"
	ActivityPublish  ActivityType = "publish"
	ActivityUpvote   ActivityType = "upvote"
)

// ContentTypeDocument is the only content kind the feed references today.
const ContentTypeDocument = "Document"

// DownloadedDoc records one access grant. Rows are append-only and not unique.
type DownloadedDoc struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	DocumentID   string    `json:"document_id"`
	UsedKey      *string   `json:"used_key,omitempty"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// Activity is an append-only feed event.
type Activity struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	Type        ActivityType `json:"type"`
	ContentRef  string       `json:"content_ref"`
	ContentType string       `json:"content_type"`
	Timestamp   time.Time    `json:"timestamp"`
}

// PurchaseMismatch is a (user, document) pair with more purchase debits than download rows.
type PurchaseMismatch struct {
	UserID     string `json:"user_id"`
	DocumentID string `json:"document_id"`
	Debits     int    `json:"debits"`
	Downloads  int    `json:"downloads"`
}

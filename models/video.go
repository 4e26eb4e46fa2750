package models

// Video is the catalog metadata read back for a remotely hosted video.
type Video struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Thumbnail    string `json:"thumbnail"`
	Duration     string `json:"duration"` // ISO-8601, e.g. PT4M13S
	PublishedAt  string `json:"publishedAt"`
	ChannelTitle string `json:"channelTitle"`
	ViewCount    uint64 `json:"viewCount"`
}

// UploadResult is the terminal metadata of a successful upload. WatchURL and
// EmbedURL are derived from the video id.
type UploadResult struct {
	VideoID       string `json:"videoId"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	PrivacyStatus string `json:"privacyStatus"`
	WatchURL      string `json:"watchUrl"`
	EmbedURL      string `json:"embedUrl"`
}

// AssetStatus reports upload and processing state for a published video.
// Zero values mean the remote returned no matching item.
type AssetStatus struct {
	UploadStatus     string `json:"uploadStatus,omitempty"`
	ProcessingStatus string `json:"processingStatus,omitempty"`
	FailureReason    string `json:"failureReason,omitempty"`
	PrivacyStatus    string `json:"privacyStatus,omitempty"`
	Embeddable       *bool  `json:"embeddable,omitempty"`
}

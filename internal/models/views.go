package models

// OwnerSummary is the slice of a user's profile attached to content they own.
type OwnerSummary struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	FullName string   `json:"fullName"`
	Avatar   MediaRef `json:"avatar"`
}

// ChannelSummary extends OwnerSummary with subscription-derived fields.
type ChannelSummary struct {
	OwnerSummary
	SubscriberCount      int64 `json:"subscriberCount"`
	IsSubscribedByViewer bool  `json:"isSubscribedByViewer"`
}

// VideoCard is a video annotated with its owner summary, used in feeds,
// watch history, liked videos, and playlist listings.
type VideoCard struct {
	Video
	Owner OwnerSummary `json:"owner"`
}

// CommentView is a comment annotated with author and engagement state.
type CommentView struct {
	Comment
	Owner           OwnerSummary `json:"owner"`
	LikeCount       int64        `json:"likeCount"`
	IsLikedByViewer bool         `json:"isLikedByViewer"`
}

// CommentFeed is one page of a video's comments, newest first.
type CommentFeed struct {
	Items    []CommentView `json:"items"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
	Total    int64         `json:"total"`
}

// VideoDetail is the fully assembled single-video view.
type VideoDetail struct {
	Video
	Owner           ChannelSummary `json:"owner"`
	LikeCount       int64          `json:"likeCount"`
	IsLikedByViewer bool           `json:"isLikedByViewer"`
	Comments        CommentFeed    `json:"comments"`
}

// VideoFeed is one page of the published-video listing.
type VideoFeed struct {
	Items    []VideoCard `json:"items"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
	Total    int64       `json:"total"`
}

// ChannelProfile is the public profile view of a user's channel.
type ChannelProfile struct {
	ID                   string   `json:"id"`
	Username             string   `json:"username"`
	FullName             string   `json:"fullName"`
	Avatar               MediaRef `json:"avatar"`
	CoverImage           MediaRef `json:"coverImage"`
	SubscriberCount      int64    `json:"subscriberCount"`
	SubscribedToCount    int64    `json:"subscribedToCount"`
	IsSubscribedByViewer bool     `json:"isSubscribedByViewer"`
}

// TweetView is a tweet annotated with author and engagement state.
type TweetView struct {
	Tweet
	Owner           OwnerSummary `json:"owner"`
	LikeCount       int64        `json:"likeCount"`
	IsLikedByViewer bool         `json:"isLikedByViewer"`
}

// PlaylistView is a playlist with its videos resolved into cards.
type PlaylistView struct {
	Playlist
	Owner  OwnerSummary `json:"owner"`
	Videos []VideoCard  `json:"videos"`
}

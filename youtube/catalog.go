package youtube

import (
	"context"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/coursecast/coursecast/models"
)

// Catalog is the read-only view of the remote video catalog, authenticated
// with a service-level API key. No delegated credential is involved.
type Catalog struct {
	svc *yt.Service
}

// NewCatalog builds the read-only client. Extra options are mainly for
// tests pointing the client at a mock endpoint. A missing API key still
// constructs a client; its queries are rejected by the remote instead.
func NewCatalog(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Catalog, error) {
	all := []option.ClientOption{option.WithoutAuthentication()}
	if apiKey != "" {
		all = []option.ClientOption{option.WithAPIKey(apiKey)}
	}
	all = append(all, opts...)

	svc, err := yt.NewService(ctx, all...)
	if err != nil {
		return nil, err
	}

	return &Catalog{svc: svc}, nil
}

// Search queries the catalog by free text and resolves full details for the
// candidates, at most maxResults of them, in the remote relevance order.
func (c *Catalog) Search(ctx context.Context, query string, maxResults int64) ([]models.Video, error) {
	resp, err := c.svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("video search failed")
		return nil, ErrUpstreamQuery
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}

	return c.Details(ctx, ids)
}

// Details batch-resolves ids into full video records. Unknown ids are
// silently omitted. An empty id set short-circuits without a remote call.
func (c *Catalog) Details(ctx context.Context, ids []string) ([]models.Video, error) {
	if len(ids) == 0 {
		return []models.Video{}, nil
	}

	resp, err := c.svc.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		log.Error().Err(err).Strs("ids", ids).Msg("video details fetch failed")
		return nil, ErrUpstreamQuery
	}

	videos := make([]models.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		videos = append(videos, toVideo(item))
	}

	return videos, nil
}

// PlaylistVideos expands playlist membership (capped at maxResults items)
// and resolves the member videos' details.
func (c *Catalog) PlaylistVideos(ctx context.Context, playlistID string, maxResults int64) ([]models.Video, error) {
	resp, err := c.svc.PlaylistItems.List([]string{"snippet"}).
		PlaylistId(playlistID).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		log.Error().Err(err).Str("playlist_id", playlistID).Msg("playlist fetch failed")
		return nil, ErrUpstreamQuery
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Snippet != nil && item.Snippet.ResourceId != nil && item.Snippet.ResourceId.VideoId != "" {
			ids = append(ids, item.Snippet.ResourceId.VideoId)
		}
	}

	return c.Details(ctx, ids)
}

func toVideo(item *yt.Video) models.Video {
	v := models.Video{ID: item.Id}

	if item.Snippet != nil {
		v.Title = item.Snippet.Title
		v.Description = item.Snippet.Description
		v.PublishedAt = item.Snippet.PublishedAt
		v.ChannelTitle = item.Snippet.ChannelTitle
		if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.High != nil {
			v.Thumbnail = item.Snippet.Thumbnails.High.Url
		}
	}
	if item.ContentDetails != nil {
		v.Duration = item.ContentDetails.Duration
	}
	if item.Statistics != nil {
		v.ViewCount = item.Statistics.ViewCount
	}

	return v
}

package response

import "github.com/thumbgen/thumbnail-pipeline/internal/entity"

type Upload struct {
	Identity string `json:"id"`
	Message  string `json:"message"`
}

// ThumbnailSet is the query wire shape. The callback URL is an
// ingestion-time detail and stays out of query responses.
type ThumbnailSet struct {
	OriginalImageURL string             `json:"originalImageUrl"`
	Thumbnails       []entity.Thumbnail `json:"thumbnails"`
	Metadata         entity.Metadata    `json:"metadata"`
}

type Error struct {
	Message string `json:"message"`
}

package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tazminur12/volunter-sub001/internal/core/domain"
	"github.com/tazminur12/volunter-sub001/internal/core/ports"
)

type MediaService struct {
	host ports.ImageHost
}

func NewMediaService(host ports.ImageHost) *MediaService {
	return &MediaService{host: host}
}

// Upload sends one image to the host. Files over the size limit or of a
// non-image type never leave the process.
func (s *MediaService) Upload(ctx context.Context, img domain.ImageFile) (string, error) {
	if err := img.Validate(); err != nil {
		return "", err
	}
	url, err := s.host.UploadImage(ctx, img)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", img.Name, err)
	}
	slog.Debug("image uploaded", "name", img.Name, "url", url)
	return url, nil
}

// UploadAll uploads the pending images in order, one request each, and clears
// the set once every upload succeeded.
func (s *MediaService) UploadAll(ctx context.Context, pending *domain.PendingImages) ([]string, error) {
	files := pending.Files()
	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := s.Upload(ctx, f)
		if err != nil {
			return urls, err
		}
		urls = append(urls, url)
	}
	pending.Clear()
	return urls, nil
}

var _ ports.MediaService = (*MediaService)(nil)

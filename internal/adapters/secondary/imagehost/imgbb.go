// Package imagehost uploads post images to imgbb.
package imagehost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/tazminur12/volunter-sub001/internal/adapters/secondary/rest"
	"github.com/tazminur12/volunter-sub001/internal/core/domain"
	"github.com/tazminur12/volunter-sub001/internal/core/ports"
)

const DefaultEndpoint = "https://api.imgbb.com/1/upload"

type ImgBB struct {
	client   *rest.Client
	endpoint string
	apiKey   string
}

// NewImgBB sends through client so uploads share its timeout and tracing.
func NewImgBB(client *rest.Client, endpoint, apiKey string) *ImgBB {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &ImgBB{client: client, endpoint: endpoint, apiKey: apiKey}
}

// uploadData is the "data" member of imgbb's {success, data, status} answer;
// the client unwraps the envelope.
type uploadData struct {
	URL        string `json:"url"`
	DisplayURL string `json:"display_url"`
}

// UploadImage posts one image as the multipart field "image".
func (h *ImgBB) UploadImage(ctx context.Context, img domain.ImageFile) (string, error) {
	if h.apiKey == "" {
		return "", errors.New("image host is not configured (IMGBB_API_KEY)")
	}
	u, err := url.Parse(h.endpoint)
	if err != nil {
		return "", fmt.Errorf("image host endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", h.apiKey)
	u.RawQuery = q.Encode()

	// Stream the file instead of buffering up to 32 MiB.
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeImage(mw, img))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), pr)
	if err != nil {
		_ = pr.Close()
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp uploadData
	if err := h.client.Send(req, &resp); err != nil {
		_ = pr.CloseWithError(err)
		return "", fmt.Errorf("upload %s: %w", img.Name, err)
	}
	link := resp.URL
	if link == "" {
		link = resp.DisplayURL
	}
	if link == "" {
		return "", fmt.Errorf("upload %s: image host returned no URL", img.Name)
	}
	slog.Debug("image uploaded", "name", img.Name, "bytes", img.Size)
	return link, nil
}

func writeImage(mw *multipart.Writer, img domain.ImageFile) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, escapeQuotes(img.Name)))
	h.Set("Content-Type", img.ContentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, img.Reader); err != nil {
		return fmt.Errorf("read %s: %w", img.Name, err)
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }

var _ ports.ImageHost = (*ImgBB)(nil)

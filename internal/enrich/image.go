package enrich

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxImageSize = 10 << 20

// fetchImage downloads the image directly, falling back to the relay when
// the direct attempt fails, and returns it as a base64 data URL. Each
// attempt gets its own timeout.
func (p *Pipeline) fetchImage(ctx context.Context, imageURL string) (string, error) {
	data, ctype, err := p.downloadDirect(ctx, imageURL)
	if err != nil {
		p.logger.Debug("direct image fetch failed, trying relay", "url", imageURL, "error", err)
		relayCtx, cancel := context.WithTimeout(ctx, p.imageTimeout)
		defer cancel()
		data, ctype, err = p.relay.Get(relayCtx, imageURL)
		if err != nil {
			return "", err
		}
	}
	return encodeDataURL(data, ctype), nil
}

func (p *Pipeline) downloadDirect(ctx context.Context, imageURL string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.imageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("building image request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image fetch returned %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func encodeDataURL(data []byte, contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	contentType = strings.TrimSpace(contentType)
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(data)
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

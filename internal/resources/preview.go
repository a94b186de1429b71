package resources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/gradeflow/backend/pkg/logger"
)

// Preview is what the saved-resources form shows before the user
// confirms a link.
type Preview struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Fetcher struct {
	httpClient  *http.Client
	maxBodySize int64
	userAgent   string
}

func NewFetcher(timeoutSec int, maxBodySize int, userAgent string) *Fetcher {
	if timeoutSec <= 0 {
		timeoutSec = 10
	}
	if maxBodySize <= 0 {
		maxBodySize = 2 << 20
	}
	if userAgent == "" {
		userAgent = "gradeflow-preview/1.0"
	}

	return &Fetcher{
		httpClient:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxBodySize: int64(maxBodySize),
		userAgent:   userAgent,
	}
}

// Fetch pulls the page behind urlStr and extracts a title and
// description. Only http(s) URLs are accepted and the body read is
// capped, so a hostile link cannot hold the request open.
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) (*Preview, error) {
	u, err := url.Parse(urlStr)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid preview url %q", urlStr)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	preview := &Preview{
		URL:         urlStr,
		Title:       strings.TrimSpace(doc.Find("title").First().Text()),
		Description: metaDescription(doc),
	}

	if preview.Title == "" {
		preview.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	logger.Debug("Resource preview fetched",
		zap.String("url", urlStr),
		zap.String("title", preview.Title),
	)

	return preview, nil
}

func metaDescription(doc *goquery.Document) string {
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		return strings.TrimSpace(desc)
	}
	if desc, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		return strings.TrimSpace(desc)
	}
	return ""
}

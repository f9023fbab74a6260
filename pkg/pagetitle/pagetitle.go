// Package pagetitle scrapes the <title> of a web page. Used as a display
// title fallback when stream resolution fails for a page-like url.
package pagetitle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

var ErrNoTitle = errors.New("page has no title")

type Scraper struct {
	httpClient *http.Client
}

func NewScraper(httpClient *http.Client) *Scraper {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Scraper{httpClient: httpClient}
}

func (s *Scraper) Get(ctx context.Context, pageUrl string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageUrl, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return "", err
	}

	title := strings.TrimSpace(getTitle(doc))
	if title == "" {
		return "", ErrNoTitle
	}

	return title, nil
}

func getTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		if n.FirstChild != nil {
			return n.FirstChild.Data
		}
		return ""
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := getTitle(c); title != "" {
			return title
		}
	}

	return ""
}

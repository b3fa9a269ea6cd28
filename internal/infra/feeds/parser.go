package feeds

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/yanqian/daily-briefing/internal/domain/news"
)

// Parser reads RSS, Atom and JSON feeds through gofeed.
type Parser struct {
	httpClient *http.Client
	userAgent  string
}

// NewParser builds a feed parser sharing httpClient.
func NewParser(httpClient *http.Client, userAgent string) *Parser {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Parser{httpClient: httpClient, userAgent: userAgent}
}

// Parse fetches url and converts its items.
func (p *Parser) Parse(ctx context.Context, url string) ([]news.Article, error) {
	fp := gofeed.NewParser()
	fp.Client = p.httpClient
	if p.userAgent != "" {
		fp.UserAgent = p.userAgent
	}
	feed, err := fp.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}
	return convert(feed.Items), nil
}

func convert(items []*gofeed.Item) []news.Article {
	articles := make([]news.Article, 0, len(items))
	for _, item := range items {
		if item == nil || strings.TrimSpace(item.Title) == "" {
			continue
		}
		a := news.Article{
			Title:       strings.TrimSpace(item.Title),
			Link:        item.Link,
			Description: strings.TrimSpace(item.Description),
		}
		switch {
		case item.PublishedParsed != nil:
			a.Published = *item.PublishedParsed
		case item.UpdatedParsed != nil:
			a.Published = *item.UpdatedParsed
		}
		articles = append(articles, a)
	}
	return articles
}

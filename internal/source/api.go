package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// APISource fetches the latest articles from a JSON content API. The request
// carries language, count, sort order and content-inclusion flags; the
// response delivers full article bodies when the origin has them.
type APISource struct {
	client   *http.Client
	endpoint string
	key      string
	language string
	count    int
	sortBy   string
}

func NewAPISource(client *http.Client, endpoint, key, language string, count int, sortBy string) *APISource {
	if client == nil {
		client = &http.Client{}
	}
	if language == "" {
		language = "eng"
	}
	if count <= 0 {
		count = 10
	}
	if sortBy == "" {
		sortBy = "date"
	}
	return &APISource{
		client:   client,
		endpoint: endpoint,
		key:      key,
		language: language,
		count:    count,
		sortBy:   sortBy,
	}
}

type apiRequest struct {
	APIKey              string `json:"apiKey"`
	ResultType          string `json:"resultType"`
	ArticlesSortBy      string `json:"articlesSortBy"`
	ArticlesCount       int    `json:"articlesCount"`
	Lang                string `json:"lang"`
	IncludeArticleBody  bool   `json:"includeArticleBody"`
	IncludeArticleImage bool   `json:"includeArticleImage"`
}

type apiResponse struct {
	Articles struct {
		Results []apiArticle `json:"results"`
	} `json:"articles"`
	Message string `json:"message"`
}

type apiArticle struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	URL      string `json:"url"`
	Image    string `json:"image"`
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
	Source   struct {
		Title string `json:"title"`
	} `json:"source"`
}

func (s *APISource) Fetch(ctx context.Context) ([]Item, error) {
	payload, err := json.Marshal(apiRequest{
		APIKey:              s.key,
		ResultType:          "articles",
		ArticlesSortBy:      s.sortBy,
		ArticlesCount:       s.count,
		Lang:                s.language,
		IncludeArticleBody:  true,
		IncludeArticleImage: true,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching articles: %w", err)
	}
	defer resp.Body.Close()

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if body.Message != "" {
			return nil, fmt.Errorf("content api: %s", body.Message)
		}
		return nil, fmt.Errorf("content api returned %s", resp.Status)
	}
	if len(body.Articles.Results) == 0 {
		if body.Message != "" {
			return nil, fmt.Errorf("content api: %s", body.Message)
		}
		return nil, nil
	}

	items := make([]Item, 0, len(body.Articles.Results))
	for _, a := range body.Articles.Results {
		items = append(items, Item{
			Title:       a.Title,
			Body:        a.Body,
			URL:         a.URL,
			Image:       a.Image,
			PublishedAt: parseAPITime(a.DateTime, a.Date),
			Source:      a.Source.Title,
		})
	}
	return items, nil
}

func parseAPITime(dateTime, date string) time.Time {
	for _, candidate := range []struct {
		layout, value string
	}{
		{time.RFC3339, dateTime},
		{"2006-01-02T15:04:05Z", dateTime},
		{"2006-01-02", date},
	} {
		if candidate.value == "" {
			continue
		}
		if t, err := time.Parse(candidate.layout, candidate.value); err == nil {
			return t
		}
	}
	return time.Time{}
}

package writeas

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"content_publisher/internal/content"
	"content_publisher/internal/destination"
)

const ID = "writeas"

type Config struct {
	BaseURL string
	Token   string
}

// Destination publishes Markdown posts through the Write.as API. Posts are
// anonymous unless a token is configured.
type Destination struct {
	client  *destination.Client
	baseURL string
	token   string
	logger  *slog.Logger
}

func New(cfg Config, client *destination.Client, logger *slog.Logger) *Destination {
	return &Destination{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		logger:  logger.With("destination", ID),
	}
}

func (d *Destination) ID() string {
	return ID
}

type postRequest struct {
	Body  string `json:"body"`
	Title string `json:"title,omitempty"`
}

type postResponse struct {
	Code int `json:"code"`
	Data struct {
		ID    string `json:"id"`
		Slug  string `json:"slug"`
		Token string `json:"token"`
	} `json:"data"`
	ErrorMsg string `json:"error_msg"`
}

func (d *Destination) Publish(ctx context.Context, title, body string) (string, error) {
	markdown := content.ToMarkdown(body)
	if strings.TrimSpace(markdown) == "" {
		return "", destination.ErrEmptyContent
	}

	payload, err := json.Marshal(postRequest{Body: markdown, Title: strings.TrimSpace(title)})
	if err != nil {
		return "", fmt.Errorf("marshal post: %w", err)
	}

	header := http.Header{}
	if d.token != "" {
		header.Set("Authorization", "Token "+d.token)
	}

	var resp postResponse
	err = d.client.Do(ctx, destination.Request{
		Method:      http.MethodPost,
		URL:         d.baseURL + "/api/posts",
		ContentType: "application/json",
		Body:        payload,
		Header:      header,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}
	if resp.Data.ID == "" {
		return "", fmt.Errorf("create post: %s", resp.ErrorMsg)
	}

	d.logger.Debug("post created", "id", resp.Data.ID)

	return d.baseURL + "/" + resp.Data.ID, nil
}

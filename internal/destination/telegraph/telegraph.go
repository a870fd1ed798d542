package telegraph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"unicode/utf8"

	"content_publisher/internal/content"
	"content_publisher/internal/destination"
)

const (
	ID = "telegraph"

	maxTitleLength = 256
)

type Config struct {
	BaseURL     string
	AccessToken string
	ShortName   string
	AuthorName  string
}

// Destination publishes pages through the Telegraph API. An account is
// created on first use when no access token is configured.
type Destination struct {
	client     *destination.Client
	baseURL    string
	shortName  string
	authorName string
	logger     *slog.Logger

	mu    sync.Mutex
	token string
}

func New(cfg Config, client *destination.Client, logger *slog.Logger) *Destination {
	return &Destination{
		client:     client,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		shortName:  cfg.ShortName,
		authorName: cfg.AuthorName,
		token:      cfg.AccessToken,
		logger:     logger.With("destination", ID),
	}
}

func (d *Destination) ID() string {
	return ID
}

type response[T any] struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error"`
	Result T      `json:"result"`
}

type account struct {
	AccessToken string `json:"access_token"`
}

type page struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

func (d *Destination) Publish(ctx context.Context, title, body string) (string, error) {
	nodes := ToNodes(content.ParseBlocks(body))
	if len(nodes) == 0 {
		return "", destination.ErrEmptyContent
	}

	token, err := d.accessToken(ctx)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(nodes)
	if err != nil {
		return "", fmt.Errorf("marshal content: %w", err)
	}

	form := url.Values{}
	form.Set("access_token", token)
	form.Set("title", pageTitle(title))
	form.Set("content", string(payload))
	form.Set("return_content", "false")
	if d.authorName != "" {
		form.Set("author_name", d.authorName)
	}

	var resp response[page]
	if err := d.post(ctx, "createPage", form, &resp); err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	if !resp.OK {
		return "", fmt.Errorf("create page: %s", resp.Error)
	}

	d.logger.Debug("page created", "path", resp.Result.Path)

	return resp.Result.URL, nil
}

func (d *Destination) accessToken(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.token != "" {
		return d.token, nil
	}

	form := url.Values{}
	form.Set("short_name", d.shortName)
	if d.authorName != "" {
		form.Set("author_name", d.authorName)
	}

	var resp response[account]
	if err := d.post(ctx, "createAccount", form, &resp); err != nil {
		return "", fmt.Errorf("create account: %w", err)
	}
	if !resp.OK || resp.Result.AccessToken == "" {
		return "", fmt.Errorf("create account: %s", resp.Error)
	}

	d.logger.Info("telegraph account created", "short_name", d.shortName)
	d.token = resp.Result.AccessToken
	return d.token, nil
}

func (d *Destination) post(ctx context.Context, method string, form url.Values, out any) error {
	return d.client.Do(ctx, destination.Request{
		Method:      http.MethodPost,
		URL:         d.baseURL + "/" + method,
		ContentType: "application/x-www-form-urlencoded",
		Body:        []byte(form.Encode()),
	}, out)
}

func pageTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Untitled"
	}
	if utf8.RuneCountInString(title) <= maxTitleLength {
		return title
	}
	return string([]rune(title)[:maxTitleLength])
}

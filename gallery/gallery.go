// Package gallery queries the authenticated Imgur image endpoints.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Brawl345/epicture/logger"
	"github.com/Brawl345/epicture/model"
	"github.com/Brawl345/epicture/utils/httpUtils"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"
)

const DefaultBaseURL = "https://api.imgur.com/3"

type (
	Client struct {
		baseURL    string
		httpClient *http.Client
		store      model.CredentialStore
		log        zerolog.Logger
	}

	Option func(*Client)
)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// New returns a client that clears store when the provider rejects the credential.
func New(store model.CredentialStore, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: httpUtils.DefaultHttpClient,
		store:      store,
		log:        logger.New("gallery"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Fetch(ctx context.Context, cred *model.Credential, query model.GalleryQuery) ([]model.ImageItem, error) {
	switch query.Kind {
	case model.QueryAccount:
		return c.FetchAccountImages(ctx, cred)
	case model.QuerySearch:
		return c.SearchImages(ctx, cred, query.Text)
	default:
		return []model.ImageItem{}, &model.RequestFailure{
			Cause: model.CauseDecode,
			Err:   fmt.Errorf("unknown query kind %d", query.Kind),
		}
	}
}

func (c *Client) FetchAccountImages(ctx context.Context, cred *model.Credential) ([]model.ImageItem, error) {
	return c.get(ctx, cred, c.baseURL+"/account/me/images")
}

// SearchImages searches the public gallery and keeps only PNG links.
// Blank text yields an empty result without contacting the provider.
func (c *Client) SearchImages(ctx context.Context, cred *model.Credential, text string) ([]model.ImageItem, error) {
	if cred == nil || cred.Value == "" {
		return nil, model.ErrUnauthenticated
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return []model.ImageItem{}, nil
	}

	q := url.Values{}
	q.Set("q", fmt.Sprintf("title: %s ext: png", text))

	images, err := c.get(ctx, cred, c.baseURL+"/gallery/search?"+q.Encode())
	if err != nil {
		return images, err
	}

	return slices.DeleteFunc(images, func(image model.ImageItem) bool {
		return !image.IsPNG()
	}), nil
}

func (c *Client) get(ctx context.Context, cred *model.Credential, requestURL string) ([]model.ImageItem, error) {
	if cred == nil || cred.Value == "" {
		return nil, model.ErrUnauthenticated
	}

	requestID := xid.New().String()
	log := c.log.With().Str("request_id", requestID).Logger()

	headers := map[string]string{
		"Accept":        "application/json",
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + cred.Value,
	}

	var response Response
	err := httpUtils.GetRequestWithHeader(ctx, requestURL, headers, &response, &httpUtils.HttpOptions{
		Client: c.httpClient,
	})
	if err != nil {
		failure := toRequestFailure(err)
		log.Err(err).
			Str("url", requestURL).
			Stringer("cause", failure.Cause).
			Msg("Gallery request failed")

		if failure.NeedsReauth() {
			c.clearRejected(ctx, log, cred)
		}
		return []model.ImageItem{}, failure
	}

	images, err := response.Images()
	if err != nil {
		log.Err(err).Str("url", requestURL).Msg("Gallery response has unexpected shape")
		return []model.ImageItem{}, &model.RequestFailure{Cause: model.CauseDecode, Err: err}
	}

	log.Debug().Int("count", len(images)).Msg("Gallery request succeeded")
	return images, nil
}

// clearRejected only removes the stored token if it is the one the provider
// rejected; a newer sign-in must survive a late 401 for an old token.
func (c *Client) clearRejected(ctx context.Context, log zerolog.Logger, rejected *model.Credential) {
	if c.store == nil {
		return
	}

	stored, err := c.store.Load(ctx)
	if err != nil {
		log.Err(err).Msg("Failed to load credential before clearing")
		return
	}
	if stored == nil || stored.Value != rejected.Value {
		log.Debug().Msg("Rejected credential is no longer stored")
		return
	}

	if err := c.store.Clear(ctx); err != nil {
		log.Err(err).Msg("Failed to clear rejected credential")
		return
	}
	log.Info().Msg("Cleared rejected credential")
}

func toRequestFailure(err error) *model.RequestFailure {
	var httpError *httpUtils.HttpError
	if errors.As(err, &httpError) {
		return &model.RequestFailure{Cause: model.CauseHTTP, StatusCode: httpError.StatusCode, Err: err}
	}

	var decodeError *httpUtils.DecodeError
	if errors.As(err, &decodeError) {
		return &model.RequestFailure{Cause: model.CauseDecode, Err: err}
	}

	return &model.RequestFailure{Cause: model.CauseNetwork, Err: err}
}

package httpUtils

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/Brawl345/epicture/logger"
)

var (
	log               = logger.New("httpUtils")
	DefaultHttpClient *http.Client
)

func init() {
	DefaultHttpClient = NewHTTPClient(0)
}

// NewHTTPClient returns a client with the shared transport settings.
// A zero timeout leaves request lifetimes to the caller's context.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = 7 * time.Second
	transport.ResponseHeaderTimeout = 15 * time.Second
	transport.MaxIdleConnsPerHost = 20
	transport.IdleConnTimeout = 5 * time.Minute

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

type HttpOptions struct {
	Client *http.Client
}

// GetRequestWithHeader issues a GET and unmarshals a 200 response into result.
// Non-200 responses yield *HttpError, bodies that are not valid JSON *DecodeError.
func GetRequestWithHeader(ctx context.Context, url string, headers map[string]string, result any, options *HttpOptions) error {
	log.Debug().
		Str("url", url).
		Send()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	httpClient := DefaultHttpClient
	if options != nil && options.Client != nil {
		httpClient = options.Client
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}

	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			log.Err(err).Msg("Failed to close response body")
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &HttpError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		return &DecodeError{Err: err}
	}

	log.Debug().
		Str("url", url).
		Int("bytes", len(body)).
		Send()

	return nil
}

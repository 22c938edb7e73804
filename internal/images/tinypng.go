package images

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/retry"
)

// Compressor shrinks PNG and JPEG data remotely.
type Compressor interface {
	Compress(ctx context.Context, data []byte) ([]byte, error)
}

// TinyPNG is a client for the TinyPNG shrink API: the image is posted to the
// endpoint and the compressed result downloaded from the returned URL.
type TinyPNG struct {
	APIKey   string
	Endpoint string
	HTTP     *http.Client
	Policy   retry.Policy
}

// NewTinyPNG returns a client configured from rc.
func NewTinyPNG(rc config.RemoteConfig) *TinyPNG {
	return &TinyPNG{
		APIKey:   rc.APIKey,
		Endpoint: rc.Endpoint,
		HTTP:     &http.Client{Timeout: rc.Timeout},
		Policy:   retry.FromRemote(rc),
	}
}

type shrinkResponse struct {
	Input struct {
		Size int64 `json:"size"`
	} `json:"input"`
	Output struct {
		Size int64  `json:"size"`
		URL  string `json:"url"`
	} `json:"output"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Compress uploads data and returns the compressed image, retrying transient
// failures under the client's policy.
func (c *TinyPNG) Compress(ctx context.Context, data []byte) ([]byte, error) {
	var out []byte
	err := c.Policy.Do(ctx, func(int) error {
		res, err := c.compressOnce(ctx, data)
		out = res
		return err
	}, func(attempt int, delay time.Duration, err error) {
		slog.Warn("Remote compression failed, retrying",
			logfields.URL(c.Endpoint), logfields.Attempt(attempt),
			slog.Duration("delay", delay), logfields.Error(err))
	})
	return out, err
}

func (c *TinyPNG) compressOnce(ctx context.Context, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to build request").Build()
	}
	req.SetBasicAuth("api", c.APIKey)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, transportError(ctx, err, c.Endpoint)
	}
	defer func() { _ = resp.Body.Close() }()

	var shrink shrinkResponse
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = json.Unmarshal(body, &shrink)
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, shrink.Error, shrink.Message, c.Endpoint)
	}

	location := shrink.Output.URL
	if location == "" {
		location = resp.Header.Get("Location")
	}
	if location == "" {
		return nil, errors.ExternalError("compression response without output url").
			WithContext("url", c.Endpoint).Build()
	}
	return c.download(ctx, location)
}

func (c *TinyPNG) download(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryExternal, "invalid output url").
			WithContext("url", location).Build()
	}
	req.SetBasicAuth("api", c.APIKey)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, transportError(ctx, err, location)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, "", "download failed", location)
	}
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(ctx, err, location)
	}
	return out, nil
}

func transportError(ctx context.Context, err error, url string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return errors.WrapError(err, errors.CategoryNetwork, "remote compression request failed").
		Retryable().WithContext("url", url).Build()
}

func statusError(status int, code, message, url string) error {
	msg := fmt.Sprintf("remote compression returned %d", status)
	if code != "" || message != "" {
		msg = fmt.Sprintf("%s: %s %s", msg, code, message)
	}
	var b *errors.ErrorBuilder
	switch {
	case status == http.StatusUnauthorized:
		b = errors.AuthError(msg)
	case status == http.StatusTooManyRequests:
		b = errors.NetworkError(msg).RateLimit()
	case status >= 500:
		b = errors.NetworkError(msg)
	default:
		b = errors.TransformError(msg)
	}
	return b.WithContext("url", url).WithContext("status", status).Build()
}

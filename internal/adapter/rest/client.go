package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"shoplink/internal/domain/repository"
	"shoplink/pkg/errors"
	"shoplink/pkg/response"
)

// TokenSource yields the current bearer token for outgoing requests.
type TokenSource func() (string, error)

// Client is the base HTTP client for the storefront backend. Mutations
// are deliberately not retried here: failures surface to the user, who
// re-acts explicitly.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
}

func NewClient(baseURL string, token TokenSource) *Client {
	tr := &http.Transport{
		DialContext:     (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Transport: tr, Timeout: 30 * time.Second},
		token:   token,
	}
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Internal("failed to build request", err)
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return errors.Internal("failed to encode request body", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return errors.Internal("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// postMultipart sends a `data` JSON field plus an optional file part,
// matching the backend's POST /message contract.
func (c *Client) postMultipart(ctx context.Context, path string, data interface{}, fileField string, file *repository.FilePart, out interface{}) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	raw, err := json.Marshal(data)
	if err != nil {
		return errors.Internal("failed to encode data field", err)
	}
	if err := w.WriteField("data", string(raw)); err != nil {
		return errors.Internal("failed to write data field", err)
	}

	if file != nil {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, file.Name))
		if file.ContentType != "" {
			header.Set("Content-Type", file.ContentType)
		}
		part, err := w.CreatePart(header)
		if err != nil {
			return errors.Internal("failed to create file part", err)
		}
		if _, err := io.Copy(part, file.Reader); err != nil {
			return errors.Internal("failed to copy file part", err)
		}
	}

	if err := w.Close(); err != nil {
		return errors.Internal("failed to finalize multipart body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return errors.Internal("failed to build request", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if c.token != nil {
		token, err := c.token()
		if err != nil {
			return errors.Unauthorized("no session token available", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.New("REQUEST_ERROR", "request failed", 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Request("failed to read response", resp.StatusCode, nil)
	}

	var envelope response.Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		if resp.StatusCode >= 400 {
			return errors.Request(http.StatusText(resp.StatusCode), resp.StatusCode, nil)
		}
		return errors.Internal("failed to decode response", err)
	}

	if resp.StatusCode >= 400 || !envelope.Success {
		message := "request rejected"
		var fields []errors.FieldError
		if envelope.Error != nil {
			if envelope.Error.Message != "" {
				message = envelope.Error.Message
			}
			fields = envelope.Error.FieldErrors()
		}
		if resp.StatusCode == http.StatusNotFound {
			return errors.NotFound("resource", nil)
		}
		return errors.Request(message, resp.StatusCode, fields)
	}

	if out == nil {
		return nil
	}
	if len(envelope.Data) == 0 {
		return errors.NotFound("response data", nil)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return errors.Internal("failed to decode response data", err)
	}
	return nil
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Image is an upload: the file name the user picked and its bytes.
type Image struct {
	Name string
	Data []byte
}

// APIError is a non-2xx response. Message carries the server's JSON "error"
// field and is empty when the body had none.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// Client talks to the pixelveil HTTP API.
type Client struct {
	base string
	hc   *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithTimeout bounds every request. Zero keeps the transport's defaults.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.hc
		hc.Timeout = d
		c.hc = &hc
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the server origin the client was built with.
func (c *Client) BaseURL() string { return c.base }

func (c *Client) Capacity(ctx context.Context, img Image) (int, error) {
	var out struct {
		Capacity int `json:"capacity"`
	}
	body, ctype, err := form(img, nil)
	if err != nil {
		return 0, err
	}
	if err := c.doJSON(ctx, "/api/capacity", body, ctype, &out); err != nil {
		return 0, err
	}
	return out.Capacity, nil
}

// Encode returns the PNG bytes of the image with text hidden in it.
// password is sent only when non-empty.
func (c *Client) Encode(ctx context.Context, img Image, text, password string) ([]byte, error) {
	fields := [][2]string{{"text", text}}
	if password != "" {
		fields = append(fields, [2]string{"password", password})
	}
	body, ctype, err := form(img, fields)
	if err != nil {
		return nil, err
	}
	resp, err := c.post(ctx, "/api/encode", body, ctype)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read encode response: %w", err)
	}
	return data, nil
}

func (c *Client) Decode(ctx context.Context, img Image, password string) (string, error) {
	var fields [][2]string
	if password != "" {
		fields = append(fields, [2]string{"password", password})
	}
	body, ctype, err := form(img, fields)
	if err != nil {
		return "", err
	}
	var out struct {
		Text string `json:"text"`
	}
	if err := c.doJSON(ctx, "/api/decode", body, ctype, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

// GenerateQR returns the image reference (a data URI) of a QR code for content.
func (c *Client) GenerateQR(ctx context.Context, content string) (string, error) {
	raw, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return "", err
	}
	var out struct {
		QRCode string `json:"qr_code"`
	}
	if err := c.doJSON(ctx, "/api/generate-qr", bytes.NewReader(raw), "application/json", &out); err != nil {
		return "", err
	}
	return out.QRCode, nil
}

func (c *Client) post(ctx context.Context, path string, body io.Reader, ctype string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", ctype)
	req.Header.Set("Accept", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, path string, body io.Reader, ctype string, out any) error {
	resp, err := c.post(ctx, path, body, ctype)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func apiError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &payload)
	return &APIError{Status: resp.StatusCode, Message: payload.Error}
}

func form(img Image, fields [][2]string) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", img.Name)
	if err != nil {
		return nil, "", fmt.Errorf("multipart image: %w", err)
	}
	if _, err := fw.Write(img.Data); err != nil {
		return nil, "", fmt.Errorf("multipart image: %w", err)
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("multipart %s: %w", f[0], err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("multipart close: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Client talks to the MedVise server's HTTP surface. Every request is built
// through the injected Session, which decides whether a bearer header is
// attached.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

func New(baseURL string, session *Session) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 90 * time.Second},
		session:    session,
	}
}

// UserInfo is the user summary returned by login.
type UserInfo struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

type apiError struct {
	StatusCode int
	Message    string
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

// Register creates an account. It does not log the user in.
func (c *Client) Register(ctx context.Context, fullName, email, password, role string) error {
	body := map[string]string{
		"fullName": fullName,
		"email":    email,
		"password": password,
		"role":     role,
	}
	return c.postJSON(ctx, "/api/register", body, nil)
}

// Login authenticates and hands the issued token to the session controller,
// which persists it for subsequent requests.
func (c *Client) Login(ctx context.Context, email, password string) (*UserInfo, error) {
	body := map[string]string{"email": email, "password": password}

	var resp struct {
		Token string   `json:"token"`
		User  UserInfo `json:"user"`
	}
	if err := c.postJSON(ctx, "/api/login", body, &resp); err != nil {
		return nil, err
	}
	if err := c.session.SetToken(resp.Token); err != nil {
		return nil, fmt.Errorf("failed to persist session token: %w", err)
	}
	return &resp.User, nil
}

// Logout clears the local session. The token itself stays valid server-side
// until it expires.
func (c *Client) Logout() error {
	return c.session.SetToken("")
}

// Chat sends one user turn (text and/or an image file) and returns the
// assistant's reply.
func (c *Client) Chat(ctx context.Context, message, imagePath string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if message != "" {
		if err := mw.WriteField("message", message); err != nil {
			return "", err
		}
	}
	if imagePath != "" {
		if err := attachFile(mw, "image", imagePath); err != nil {
			return "", err
		}
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.session.Authorize(req)

	var resp struct {
		Reply string `json:"reply"`
	}
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	return resp.Reply, nil
}

func attachFile(mw *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	part, err := mw.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.session.Authorize(req)

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var errBody struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return &apiError{StatusCode: resp.StatusCode, Message: errBody.Message}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

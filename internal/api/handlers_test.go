package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medvise.ai/server/internal/core"
	"medvise.ai/server/internal/store"
)

type fakeUpstream struct {
	gotParts []core.Part
	reply    string
	err      error
}

func (f *fakeUpstream) GenerateReply(ctx context.Context, parts []core.Part) (string, error) {
	f.gotParts = parts
	return f.reply, f.err
}

func newTestServer(t *testing.T, upstream core.Upstream) *httptest.Server {
	t.Helper()

	dbStore, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbStore.Close() })

	authService := core.NewAuthService(dbStore, []byte("test-secret"), time.Hour)
	chatService := core.NewChatService(upstream, 5*time.Second)

	srv := httptest.NewServer(NewRouter(NewAPIHandler(authService, chatService)))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body interface{}, token string) (*http.Response, map[string]interface{}) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func registerAndLogin(t *testing.T, srv *httptest.Server) string {
	t.Helper()

	resp, _ := postJSON(t, srv.URL+"/api/register", map[string]string{
		"fullName": "Ann Lee", "email": "ann@x.com", "password": "secret123", "role": "user",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := postJSON(t, srv.URL+"/api/login", map[string]string{
		"email": "ann@x.com", "password": "secret123",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegister_ThenDuplicate(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeUpstream{})

	reqBody := map[string]string{
		"fullName": "Ann Lee", "email": "ann@x.com", "password": "secret123", "role": "user",
	}

	resp, body := postJSON(t, srv.URL+"/api/register", reqBody, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	user, _ := body["user"].(map[string]interface{})
	require.NotNil(t, user)
	assert.Equal(t, "ann@x.com", user["email"])

	resp, body = postJSON(t, srv.URL+"/api/register", reqBody, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Email already in use.", body["message"])
}

func TestRegister_MissingFields(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeUpstream{})

	resp, _ := postJSON(t, srv.URL+"/api/register", map[string]string{
		"email": "ann@x.com",
	}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeUpstream{})
	registerAndLogin(t, srv)

	resp, body := postJSON(t, srv.URL+"/api/login", map[string]string{
		"email": "ann@x.com", "password": "wrong-password",
	}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid credentials.", body["message"])
}

func TestChat_RequiresToken(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeUpstream{reply: "hi"})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("message", "Hello"))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/chat", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func chatMultipart(t *testing.T, srv *httptest.Server, token, message string, image []byte, filename string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if message != "" {
		require.NoError(t, mw.WriteField("message", message))
	}
	if image != nil {
		part, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/chat", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestChat_TextOnly(t *testing.T) {
	t.Parallel()

	up := &fakeUpstream{reply: "Hi there"}
	srv := newTestServer(t, up)
	token := registerAndLogin(t, srv)

	resp, body := chatMultipart(t, srv, token, "Hello", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Hi there", body["reply"])

	require.Len(t, up.gotParts, 1)
	assert.Equal(t, core.TextPart("Hello"), up.gotParts[0])
}

func TestChat_ImageOnly(t *testing.T) {
	t.Parallel()

	up := &fakeUpstream{reply: "Looks like a PNG"}
	srv := newTestServer(t, up)
	token := registerAndLogin(t, srv)

	raw := []byte{0x89, 0x50, 0x4e, 0x47}
	resp, body := chatMultipart(t, srv, token, "", raw, "scan.png")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Looks like a PNG", body["reply"])

	require.Len(t, up.gotParts, 2)
	img, ok := up.gotParts[0].(core.ImagePart)
	require.True(t, ok)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, raw, img.Data)
	assert.Equal(t, core.TextPart(core.DefaultImagePrompt), up.gotParts[1])
}

func TestChat_EmptySubmission(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeUpstream{})
	token := registerAndLogin(t, srv)

	resp, _ := chatMultipart(t, srv, token, "", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChat_UpstreamFailure(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeUpstream{err: errors.New("dial tcp: connection refused")})
	token := registerAndLogin(t, srv)

	resp, body := chatMultipart(t, srv, token, "Hello", nil, "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "AI Service Unavailable", body["message"])
	assert.NotContains(t, body["details"], "dial tcp", "raw cause must not leak to clients")
}

func TestHealth(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeUpstream{})

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"medvise.ai/server/internal/apperr"
	"medvise.ai/server/internal/auth"
	"medvise.ai/server/internal/core"
	"medvise.ai/server/internal/media"
)

// maxUploadBytes caps the multipart body on /api/chat.
const maxUploadBytes = 10 << 20

type ctxKey string

const claimsCtxKey ctxKey = "authClaims"

type APIHandler struct {
	authService *core.AuthService
	chatService *core.ChatService
}

func NewAPIHandler(as *core.AuthService, cs *core.ChatService) *APIHandler {
	return &APIHandler{authService: as, chatService: cs}
}

// ClaimsFromContext returns the verified token claims attached by
// JWTAuthMiddleware, or nil on an unauthenticated request.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsCtxKey).(*auth.Claims)
	return claims
}

// JWTAuthMiddleware requires a valid bearer token and attaches its claims to
// the request context. Chat access is authenticated; there is no anonymous
// relay.
func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, apperr.Unauthorized("Authorization header is required"))
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := h.authService.Verify(tokenString)
		if err != nil {
			writeError(w, apperr.Unauthorized("Invalid token"))
			return
		}

		ctx := context.WithValue(r.Context(), claimsCtxKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("Invalid request body."))
		return
	}

	user, err := h.authService.Register(r.Context(), req.FullName, req.Email, req.Password, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User registered successfully!",
		"user":    user,
	})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("Invalid request body."))
		return
	}

	token, user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful!",
		"token":   token,
		"user": map[string]interface{}{
			"id":       user.ID,
			"email":    user.Email,
			"fullName": user.FullName,
			"role":     user.Role,
		},
	})
}

// ChatHandler accepts a multipart form with an optional "message" text field
// and an optional "image" file, relays the turn upstream and returns the
// reply. The uploaded image is spooled to a temp file and removed before the
// response is written, on every path.
func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, apperr.Validation("Invalid multipart form."))
		return
	}

	message := r.FormValue("message")
	if claims := ClaimsFromContext(r.Context()); claims != nil {
		log.Printf("Relaying chat turn for %s", claims.Email)
	}

	var encoded *media.EncodedImage
	file, header, err := r.FormFile("image")
	if err == nil {
		encoded, err = spoolAndEncode(file, header.Filename)
		if err != nil {
			// Degenerate image payload: fall back to a text-only prompt.
			log.Printf("Dropping unusable image upload %q: %v", header.Filename, err)
			encoded = nil
		}
	} else if !errors.Is(err, http.ErrMissingFile) {
		writeError(w, apperr.Validation("Invalid image upload."))
		return
	}

	reply, err := h.chatService.Relay(r.Context(), message, encoded)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// spoolAndEncode writes the upload to a temp file and hands it to the media
// normalizer, which guarantees the file's removal.
func spoolAndEncode(file io.ReadCloser, declaredFilename string) (*media.EncodedImage, error) {
	defer file.Close()

	tmp, err := os.CreateTemp("", "medvise-upload-*")
	if err != nil {
		return nil, err
	}

	_, copyErr := io.Copy(tmp, file)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(tmp.Name())
		if copyErr != nil {
			return nil, copyErr
		}
		return nil, closeErr
	}

	return media.EncodeFile(tmp.Name(), declaredFilename)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	appErr := apperr.From(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		log.Printf("Request failed: %v (cause: %v)", appErr.Message, appErr.Cause)
	}

	body := map[string]string{"message": appErr.Message}
	if appErr.Details != "" {
		body["details"] = appErr.Details
	}
	writeJSON(w, appErr.HTTPStatus, body)
}

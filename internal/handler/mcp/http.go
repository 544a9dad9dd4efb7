package mcp

import (
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sbansal6/alpaca-mcp-server/internal/config"
	"github.com/sirupsen/logrus"
)

var (
	errAPIKeyMissing  = errors.New("api key is required")
	errAPIKeyInvalid  = errors.New("invalid api key")
	errAPIKeyInactive = errors.New("api key is inactive")
	errAPIKeyExpired  = errors.New("api key is expired")
)

// HTTPHandler exposes the server as JSON-RPC over HTTP POST.
type HTTPHandler struct {
	server *Server
}

func NewHTTPHandler(server *Server) *HTTPHandler {
	return &HTTPHandler{server: server}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/mcp", h.Handle)
}

func (h *HTTPHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	defer r.Body.Close()

	if err := validateAPIKey(resolveAPIKey(r)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": err.Error()})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageSize+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "failed to read body"})
		return
	}
	if len(body) > maxMessageSize {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"error": "request body too large"})
		return
	}

	resp := h.server.HandleMessage(r.Context(), body)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(resp); err != nil {
		logrus.WithError(err).Warn("failed to write mcp response")
	}
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func resolveAPIKey(r *http.Request) string {
	if headerKey := strings.TrimSpace(r.Header.Get("X-API-Key")); headerKey != "" {
		return headerKey
	}

	return strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
}

func validateAPIKey(rawAPIKey string) error {
	apiKey := strings.TrimSpace(rawAPIKey)
	if apiKey == "" {
		return errAPIKeyMissing
	}

	if config.Env == nil || len(config.Env.APIKeys) == 0 {
		return errAPIKeyInvalid
	}

	now := time.Now().UTC()
	for _, candidate := range config.Env.APIKeys {
		storedKey := strings.TrimSpace(candidate.Key)
		if storedKey == "" {
			continue
		}

		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(storedKey)) != 1 {
			continue
		}

		if !candidate.Active {
			return errAPIKeyInactive
		}

		expiredAt, hasExpiry, err := parseExpiry(candidate.ExpiredAt)
		if err != nil {
			return errAPIKeyInvalid
		}
		if hasExpiry && !now.Before(expiredAt) {
			return errAPIKeyExpired
		}

		return nil
	}

	return errAPIKeyInvalid
}

// parseExpiry accepts a time, an RFC3339 string or a date. A bare date
// expires at the end of that day.
func parseExpiry(value any) (time.Time, bool, error) {
	if value == nil {
		return time.Time{}, false, nil
	}

	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false, nil
		}
		return v.UTC(), true, nil
	case string:
		raw := strings.TrimSpace(v)
		if raw == "" {
			return time.Time{}, false, nil
		}

		if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
			return parsed.UTC(), true, nil
		}

		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, false, err
		}

		return parsed.UTC().Add(24 * time.Hour), true, nil
	default:
		return time.Time{}, false, errors.New("unsupported expiry type")
	}
}

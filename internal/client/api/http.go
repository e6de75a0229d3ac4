package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkravets/fieldops/internal/client/models"
	"github.com/mkravets/fieldops/internal/common"
	"github.com/mkravets/fieldops/internal/netx"
)

// HTTPClient implements Client over the backend's JSON API.
// Access tokens are refreshed transparently, both proactively when the
// token is about to expire and reactively on a 401 response.
type HTTPClient struct {
	baseURL  string
	deviceID string
	hc       *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func NewHTTPClient(baseURL string, deviceID string) *HTTPClient {
	return &HTTPClient{
		baseURL:  baseURL,
		deviceID: deviceID,
		hc:       &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *HTTPClient) Close() error {
	s.hc.CloseIdleConnections()
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (s *HTTPClient) setTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	s.refreshToken = refresh
}

func (s *HTTPClient) tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

// accessTokenExpiring reports whether the token expires within the next
// few seconds. The claims are not verified, the server remains the
// authority; this only avoids sending a request doomed to a 401.
func accessTokenExpiring(token string) bool {
	if token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Until(exp.Time) < 5*time.Second
}

func (s *HTTPClient) refresh(ctx context.Context) error {
	_, refreshToken := s.tokens()
	if refreshToken == "" {
		return ErrUnauthorized
	}

	var pair tokenPair
	err := s.do(ctx, http.MethodPost, "/api/v1/auth/refresh",
		map[string]string{"refresh_token": refreshToken}, &pair, false)
	if err != nil {
		return err
	}
	s.setTokens(pair.AccessToken, pair.RefreshToken)
	return nil
}

// doJSON performs an authenticated request, refreshing tokens when needed.
func (s *HTTPClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	access, refreshToken := s.tokens()
	if refreshToken != "" && accessTokenExpiring(access) {
		if err := s.refresh(ctx); err != nil {
			return err
		}
	}

	err := s.do(ctx, method, path, in, out, true)
	if err == nil || !isTokenExpired(err) {
		return err
	}

	if _, rt := s.tokens(); rt == "" {
		return ErrUnauthorized
	}
	if err := s.refresh(ctx); err != nil {
		return err
	}
	return s.do(ctx, method, path, in, out, true)
}

type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.status, e.message)
}

func isTokenExpired(err error) bool {
	ae, ok := err.(*apiError)
	return ok && ae.status == http.StatusUnauthorized && ae.message == common.ErrTokenExpired.Error()
}

func (s *HTTPClient) do(ctx context.Context, method, path string, in, out any, auth bool) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(common.DeviceIDHeaderName, s.deviceID)
	if auth {
		if access, _ := s.tokens(); access != "" {
			req.Header.Set(common.AccessTokenHeaderName, "Bearer "+access)
		}
	}

	resp, err := s.hc.Do(req)
	if err != nil {
		return ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	var er errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&er)

	return s.mapError(&apiError{status: resp.StatusCode, message: er.Error})
}

func (s *HTTPClient) mapError(ae *apiError) error {
	switch {
	case ae.status == http.StatusUnauthorized && ae.message == common.ErrTokenExpired.Error():
		return ae
	case ae.status == http.StatusUnauthorized, ae.status == http.StatusForbidden:
		return ErrUnauthorized
	case ae.status == http.StatusNotFound:
		return common.ErrorNotFound
	case ae.status >= 500:
		return ErrUnavailable
	default:
		return ae
	}
}

func (s *HTTPClient) GetSalt(ctx context.Context, badge string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 12*time.Second)
	defer cancel()

	var resp struct {
		Salt []byte `json:"salt"`
	}
	err := s.do(ctx, http.MethodPost, "/api/v1/auth/salt",
		map[string]string{"badge_number": badge}, &resp, false)
	if err != nil {
		return nil, err
	}
	return resp.Salt, nil
}

func (s *HTTPClient) Login(ctx context.Context, badge string, verifier []byte) error {
	var pair tokenPair
	err := s.do(ctx, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"badge_number": badge,
		"verifier":     verifier,
	}, &pair, false)
	if err != nil {
		return err
	}
	s.setTokens(pair.AccessToken, pair.RefreshToken)
	return nil
}

func (s *HTTPClient) Ping(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := s.do(ctx, http.MethodGet, "/api/v1/ping", nil, &resp, false); err != nil {
		return err
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *HTTPClient) SubmitTimeRecord(ctx context.Context, rec *models.TimeRecord) error {
	return s.doJSON(ctx, http.MethodPost, "/api/v1/time-records", map[string]any{
		"client_id":   rec.ID,
		"kind":        string(rec.Kind),
		"recorded_at": rec.RecordedAt.UnixNano(),
		"latitude":    rec.Latitude,
		"longitude":   rec.Longitude,
		"note":        rec.Note,
	}, nil)
}

func (s *HTTPClient) SubmitLocation(ctx context.Context, loc *models.Location) error {
	return s.doJSON(ctx, http.MethodPost, "/api/v1/locations", map[string]any{
		"client_id":   loc.ID,
		"latitude":    loc.Latitude,
		"longitude":   loc.Longitude,
		"accuracy":    loc.Accuracy,
		"recorded_at": loc.RecordedAt.UnixNano(),
	}, nil)
}

func (s *HTTPClient) SubmitReport(ctx context.Context, rep *models.Report) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	err := s.doJSON(ctx, http.MethodPost, "/api/v1/reports", map[string]any{
		"client_id":  rep.ID,
		"title":      rep.Title,
		"body":       rep.Body,
		"severity":   string(rep.Severity),
		"created_at": rep.CreatedAt.UnixNano(),
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (s *HTTPClient) CreatePhotoUpload(ctx context.Context, p *models.Photo) (string, string, error) {
	var resp struct {
		ID        string `json:"id"`
		UploadURL string `json:"upload_url"`
	}
	err := s.doJSON(ctx, http.MethodPost, "/api/v1/photos", map[string]any{
		"client_id": p.ID,
		"checksum":  p.Checksum,
		"note":      p.Note,
		"taken_at":  p.TakenAt.UnixNano(),
	}, &resp)
	if err != nil {
		return "", "", err
	}
	return resp.ID, resp.UploadURL, nil
}

func (s *HTTPClient) UploadPhoto(ctx context.Context, url string, data []byte) error {
	return netx.UploadToPresignedURL(ctx, s.hc, url, data)
}

func (s *HTTPClient) ConfirmPhotoUpload(ctx context.Context, remoteID string) error {
	return s.doJSON(ctx, http.MethodPost, "/api/v1/photos/"+remoteID+"/confirm", nil, nil)
}

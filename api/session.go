// Package api implements the client for the platform's content, music and
// playback APIs, including session handling and manifest resolution.
package api

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/crunchy-cli/crunchy/auth"
	"github.com/crunchy-cli/crunchy/constant"
	"github.com/crunchy-cli/crunchy/log"
	"github.com/crunchy-cli/crunchy/network"
)

// tokenMargin is subtracted from a token's lifetime so a request started
// right before expiry never travels with a stale token.
const tokenMargin = 10 * time.Second

// Session holds the bearer token state shared by every API call. Token
// refreshes are serialized so concurrent callers trigger at most one
// redundant refresh.
type Session struct {
	Locale string

	mu           sync.Mutex
	refreshToken string
	tokenType    string
	accessToken  string
	expiresAt    time.Time
}

// NewSession creates a session for the given response locale, picking up a
// previously stored refresh token from the system keyring if one exists.
func NewSession(locale string) *Session {
	session := &Session{Locale: locale}
	if token, err := auth.GetRefreshToken(); err == nil {
		session.refreshToken = token
	}
	return session
}

// LoggedIn reports whether the session carries account credentials.
func (s *Session) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshToken != ""
}

// Query returns the query parameters every content API call carries.
func (s *Session) Query() url.Values {
	query := url.Values{}
	if s.Locale != "" {
		query.Set("locale", s.Locale)
	}
	return query
}

// tokenResponse is the body of the token endpoint.
type tokenResponse struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	ExpiresIn   float64 `json:"expires_in"`
}

// AccessHeaders returns the authorization headers for an API call,
// refreshing the access token first if it is missing or about to expire.
func (s *Session) AccessHeaders() (http.Header, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken == "" || time.Now().After(s.expiresAt) {
		if err := s.refreshLocked(); err != nil {
			return nil, err
		}
	}

	headers := http.Header{}
	headers.Set("Authorization", s.tokenType+" "+s.accessToken)
	headers.Set("User-Agent", constant.UserAgent)
	return headers, nil
}

// refreshLocked fetches a new access token. The caller must hold s.mu.
func (s *Session) refreshLocked() error {
	grantType := "client_id"
	if s.refreshToken != "" {
		grantType = "etp_rt_cookie"
	}
	log.Debugf("Requesting access token with grant_type=%s", grantType)

	req, err := http.NewRequest(
		http.MethodPost,
		constant.BaseURL+"/auth/v1/token",
		strings.NewReader(url.Values{"grant_type": {grantType}}.Encode()),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", basicAuth(constant.AnonClientID))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", constant.UserAgent)
	if s.refreshToken != "" {
		req.AddCookie(&http.Cookie{Name: "etp_rt", Value: s.refreshToken})
	}

	resp, err := network.Client.Do(req)
	if err != nil {
		return fmt.Errorf("request access token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request access token: unexpected status %d", resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("decode access token: %w", err)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("token endpoint returned an empty access token")
	}

	lifetime := time.Duration(token.ExpiresIn * float64(time.Second))
	if lifetime <= 0 {
		lifetime = 5 * time.Minute
	}
	s.tokenType = token.TokenType
	if s.tokenType == "" {
		s.tokenType = "Bearer"
	}
	s.accessToken = token.AccessToken
	s.expiresAt = time.Now().Add(lifetime - tokenMargin)
	return nil
}

// upsellResponse is the body of the session id endpoint of the legacy API.
type upsellResponse struct {
	Code string `json:"code"`
	Data struct {
		SessionID string `json:"session_id"`
	} `json:"data"`
}

// loginResponse is the body of the legacy login endpoint.
type loginResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Login authenticates against the legacy session API and persists the
// resulting refresh cookie to the system keyring.
func (s *Session) Login(account, password string) error {
	sessionID, err := s.fetchSessionID()
	if err != nil {
		return err
	}

	form := url.Values{
		"account":    {account},
		"password":   {password},
		"session_id": {sessionID},
	}
	req, err := http.NewRequest(
		http.MethodPost,
		constant.APIBase+"/login.1.json",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", constant.UserAgent)

	resp, err := network.Client.Do(req)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	var login loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	if login.Code != "ok" {
		return fmt.Errorf("login failed: %s", login.Message)
	}

	var refreshToken string
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "etp_rt" {
			refreshToken = cookie.Value
		}
	}
	if refreshToken == "" {
		return fmt.Errorf("login succeeded but no session cookie was issued")
	}

	if err := auth.SetRefreshToken(refreshToken); err != nil {
		return fmt.Errorf("persist refresh token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshToken = refreshToken
	// Force a refresh so the next call authenticates as the account.
	s.accessToken = ""
	return nil
}

// Logout drops the account credentials from the session and the keyring.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.refreshToken = ""
	s.accessToken = ""
	s.mu.Unlock()
	return auth.DeleteRefreshToken()
}

// fetchSessionID requests a fresh session id from the legacy API.
func (s *Session) fetchSessionID() (string, error) {
	query := url.Values{
		"sess_id":      {"1"},
		"device_id":    {"whatvalueshouldbeforweb"},
		"device_type":  {"com.crunchyroll.static"},
		"access_token": {"giKq5eY27ny3cqz"},
		"referer":      {constant.BaseURL + "/welcome/login"},
	}
	req, err := http.NewRequest(
		http.MethodGet,
		constant.APIBase+"/get_upsell_data.0.json?"+query.Encode(),
		nil,
	)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", constant.UserAgent)

	resp, err := network.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request session id: %w", err)
	}
	defer resp.Body.Close()

	var upsell upsellResponse
	if err := json.NewDecoder(resp.Body).Decode(&upsell); err != nil {
		return "", fmt.Errorf("decode session id response: %w", err)
	}
	if upsell.Code != "ok" || upsell.Data.SessionID == "" {
		return "", fmt.Errorf("could not get session id")
	}
	return upsell.Data.SessionID, nil
}

// basicAuth builds the Basic authorization value for a public client id.
func basicAuth(clientID string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(clientID+":"))
}

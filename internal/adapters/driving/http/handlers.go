package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"

	"github.com/engage-labs/engage-social/internal/core/domain"
	"github.com/engage-labs/engage-social/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// DisconnectRequest names the platform to disconnect
// @Description Disconnect request
type DisconnectRequest struct {
	Platform string `json:"platform" example:"instagram"`
}

// DisconnectResponse reports the outcome of a disconnect
// @Description Disconnect outcome
type DisconnectResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"instagram disconnected successfully"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns the readiness status of the API (checks database and Redis)
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "A dependency is unavailable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "redis unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Auth endpoints

// handleLogin godoc
// @Summary      User login
// @Description  Authenticate with email and password to receive a JWT token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request  body      domain.LoginRequest  true  "Login credentials"
// @Success      200      {object}  domain.LoginResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      401      {object}  ErrorResponse  "Invalid credentials or account disabled"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /api/v1/auth/login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.authService.Authenticate(r.Context(), req)
	if err != nil {
		switch err {
		case domain.ErrInvalidInput:
			writeError(w, http.StatusBadRequest, "email and password required")
		case domain.ErrInvalidCredentials:
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		case domain.ErrUnauthorized:
			writeError(w, http.StatusUnauthorized, "account disabled")
		default:
			writeError(w, http.StatusInternalServerError, "authentication failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleLogout godoc
// @Summary      User logout
// @Description  Invalidate the current session
// @Tags         Authentication
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  StatusResponse
// @Failure      401  {object}  ErrorResponse  "Not authenticated"
// @Router       /api/v1/auth/logout [post]
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r)
	if err := s.authService.Logout(r.Context(), token); err != nil {
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// OAuth connect endpoints

// handleAuthorize godoc
// @Summary      Start platform authorization
// @Description  Begins the OAuth flow for the platform and returns the authorization URL to open
// @Tags         Social
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  driving.AuthorizeResponse
// @Failure      401  {object}  ErrorResponse  "Not authenticated"
// @Failure      503  {object}  ErrorResponse  "Platform not configured"
// @Router       /instagram-auth [post]
// @Router       /tiktok-auth [post]
func (s *Server) handleAuthorize(platform domain.Platform) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCtx := GetAuthContext(r.Context())
		if authCtx == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		resp, err := s.oauthService.Authorize(r.Context(), authCtx.UserID, platform)
		if err != nil {
			if err == domain.ErrProviderNotConfigured {
				writeError(w, http.StatusServiceUnavailable, string(platform)+" is not configured")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to start authorization")
			return
		}

		writeJSON(w, http.StatusOK, resp)
	})
}

// handleCallbackPage completes the OAuth flow from a provider redirect
// and renders the deep-link bounce page. The page always comes back
// with HTTP 200: the outcome travels in the deep-link query, not the
// status code, because the browser showing it is about to close.
func (s *Server) handleCallbackPage(platform domain.Platform) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		result := s.oauthService.Callback(r.Context(), driving.CallbackRequest{
			Platform:         platform,
			Code:             q.Get("code"),
			State:            q.Get("state"),
			Error:            q.Get("error"),
			ErrorDescription: q.Get("error_description"),
		})
		s.renderBouncePage(w, result)
	}
}

// handleCallbackPost is the POST variant of the provider callback, for
// clients that intercepted the redirect themselves and hold the PKCE
// verifier locally. The code and state still arrive in the query
// string like the GET variant; the body carries only the verifier.
// The response is the same bounce page.
func (s *Server) handleCallbackPost(platform domain.Platform) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			CodeVerifier string `json:"code_verifier"`
		}
		// A missing or malformed body just means no client-held
		// verifier; the one stored with the state row still applies.
		_ = json.NewDecoder(r.Body).Decode(&body)

		q := r.URL.Query()
		result := s.oauthService.Callback(r.Context(), driving.CallbackRequest{
			Platform:         platform,
			Code:             q.Get("code"),
			State:            q.Get("state"),
			Error:            q.Get("error"),
			ErrorDescription: q.Get("error_description"),
			CodeVerifier:     body.CodeVerifier,
		})
		s.renderBouncePage(w, result)
	}
}

var bounceTemplate = template.Must(template.New("bounce").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="0;url={{.DeepLink}}">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, sans-serif; text-align: center; padding-top: 30vh; color: #333; }
</style>
</head>
<body>
<h2>{{.Title}}</h2>
<p>{{.Message}}</p>
<p>Returning to the app&hellip;</p>
<script>window.location.href = {{.DeepLink}};</script>
</body>
</html>
`))

// renderBouncePage writes the auto-redirecting HTML that hands control
// back to the mobile app via its deep-link scheme.
func (s *Server) renderBouncePage(w http.ResponseWriter, result *driving.CallbackResult) {
	status := "error"
	title := "Connection failed"
	if result.Success {
		status = "success"
		title = "Connected!"
	}

	params := url.Values{
		"status":   {status},
		"platform": {string(result.Platform)},
		"message":  {result.Message},
	}
	deepLink := s.appScheme + "social-callback?" + params.Encode()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = bounceTemplate.Execute(w, map[string]string{
		"DeepLink": deepLink,
		"Title":    title,
		"Message":  result.Message,
	})
}

// Sync endpoints

// handleSync godoc
// @Summary      Sync platform content
// @Description  Imports the platform's most recent posts into the local feed, skipping already-imported items
// @Tags         Social
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.SyncResult
// @Failure      401  {object}  ErrorResponse  "Not authenticated or platform token expired"
// @Failure      404  {object}  ErrorResponse  "Platform not connected"
// @Failure      502  {object}  ErrorResponse  "Platform API failure"
// @Router       /instagram-sync [post]
// @Router       /tiktok-sync [post]
func (s *Server) handleSync(platform domain.Platform) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCtx := GetAuthContext(r.Context())
		if authCtx == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		result, err := s.syncService.Sync(r.Context(), authCtx.UserID, platform)
		if err != nil {
			switch err {
			case domain.ErrNotConnected:
				writeError(w, http.StatusNotFound, string(platform)+" is not connected")
			case domain.ErrTokenExpired:
				writeError(w, http.StatusUnauthorized, string(platform)+" authorization expired, please reconnect")
			case domain.ErrProviderNotConfigured:
				writeError(w, http.StatusServiceUnavailable, string(platform)+" is not configured")
			default:
				writeError(w, http.StatusBadGateway, "failed to fetch content from "+string(platform))
			}
			return
		}

		writeJSON(w, http.StatusOK, result)
	})
}

// Connection management

// handleListConnections godoc
// @Summary      List social connections
// @Description  Returns the authenticated user's platform connections without token material
// @Tags         Social
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.ConnectionSummary
// @Failure      401  {object}  ErrorResponse  "Not authenticated"
// @Router       /api/v1/connections [get]
func (s *Server) handleListConnections(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	summaries, err := s.connectionService.List(r.Context(), authCtx.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list connections")
		return
	}
	if summaries == nil {
		summaries = []*domain.ConnectionSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

// handleDisconnect godoc
// @Summary      Disconnect a platform
// @Description  Removes the user's connection for a platform and clears its import ledger; already-imported posts remain
// @Tags         Social
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      DisconnectRequest  true  "Platform to disconnect"
// @Success      200      {object}  DisconnectResponse
// @Failure      400      {object}  ErrorResponse  "Unknown platform"
// @Failure      401      {object}  ErrorResponse  "Not authenticated"
// @Failure      404      {object}  ErrorResponse  "Platform not connected"
// @Router       /social-disconnect [post]
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req DisconnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	platform, err := domain.ParsePlatform(req.Platform)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown platform: "+req.Platform)
		return
	}

	if err := s.connectionService.Disconnect(r.Context(), authCtx.UserID, platform); err != nil {
		if err == domain.ErrNotConnected {
			writeError(w, http.StatusNotFound, string(platform)+" is not connected")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to disconnect")
		return
	}

	writeJSON(w, http.StatusOK, DisconnectResponse{
		Success: true,
		Message: string(platform) + " disconnected successfully",
	})
}

// Helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

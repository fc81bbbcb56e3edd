package server

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"beacon/internal/analytics"
	"beacon/internal/constants"
	"beacon/internal/security"
	"beacon/internal/store"
)

// authenticated reports whether the request carries a valid session cookie.
func (s *Server) authenticated(r *http.Request) bool {
	cookie, err := r.Cookie(constants.SessionCookieName)
	if err != nil {
		return false
	}
	return s.Sessions.IsValid(cookie.Value)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: constants.SessionCookieSameSite,
	})
}

func (s *Server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, constants.MsgMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	if s.authenticated(r) {
		http.Redirect(w, r, s.Cfg.RootURLPath, http.StatusFound)
		return
	}

	s.Templates.Render(w, "login.html", map[string]interface{}{
		"Title":       s.Cfg.SiteName + " - Login",
		"RootURLPath": s.Cfg.RootURLPath,
	})
}

func (s *Server) HandleAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, constants.MsgMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	clientIP := security.GetClientIP(r)

	if !s.BruteProtector.Check(clientIP) {
		if s.AuditLogger != nil {
			s.AuditLogger.LogBruteForce(clientIP, constants.MaxAuthAttempts)
		}
		http.Error(w, constants.MsgTooManyAttempts, http.StatusTooManyRequests)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, constants.MsgInvalidRequest, http.StatusBadRequest)
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	// Single rejection path regardless of which field failed.
	if !s.Creds.Verify(username, password) {
		s.BruteProtector.RecordFailure(clientIP)
		if s.AuditLogger != nil {
			s.AuditLogger.LogAuthFailure(clientIP, "invalid credentials")
		}
		log.Printf("Failed login attempt from %s", clientIP)
		w.WriteHeader(http.StatusUnauthorized)
		s.Templates.Render(w, "login.html", map[string]interface{}{
			"Title":       s.Cfg.SiteName + " - Login",
			"RootURLPath": s.Cfg.RootURLPath,
			"Error":       constants.MsgUnauthorized,
		})
		return
	}

	token, err := s.Sessions.Issue()
	if err != nil {
		log.Printf("Failed to issue session token: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	s.BruteProtector.RecordSuccess(clientIP)
	if s.AuditLogger != nil {
		s.AuditLogger.LogAuthSuccess(clientIP)
	}
	log.Printf("User logged in: %s", clientIP)

	s.setSessionCookie(w, r, token, 0)
	http.Redirect(w, r, s.Cfg.RootURLPath, http.StatusFound)
}

func (s *Server) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(constants.SessionCookieName); err == nil {
		s.Sessions.Revoke(cookie.Value)
	}

	s.setSessionCookie(w, r, "", -1)
	http.Redirect(w, r, constants.EndpointLogin, http.StatusFound)
}

func (s *Server) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	// The root mux pattern "/" matches everything not claimed elsewhere.
	if r.URL.Path != constants.EndpointRoot {
		w.WriteHeader(http.StatusNotFound)
		s.Templates.Render(w, "notfound.html", map[string]interface{}{
			"Title":       s.Cfg.SiteName + " - Not Found",
			"RootURLPath": s.Cfg.RootURLPath,
		})
		return
	}

	if !s.authenticated(r) {
		http.Redirect(w, r, constants.EndpointLogin, http.StatusFound)
		return
	}

	var report *analytics.Report
	s.Store.View(func(posts map[string]*store.Post) {
		report = analytics.BuildReport(posts, time.Now())
	})

	s.Templates.Render(w, "analytics.html", map[string]interface{}{
		"Title":       s.Cfg.SiteName,
		"RootURLPath": s.Cfg.RootURLPath,
		"Report":      report,
	})
}

// HandleVisit records a page visit: POST /api/posts/{id}/visits where the id
// itself contains slashes (YYYY/MM/DD/slug).
func (s *Server) HandleVisit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, constants.MsgMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	clientIP := security.GetClientIP(r)

	path := strings.TrimPrefix(r.URL.EscapedPath(), constants.EndpointVisits)
	rawID, ok := strings.CutSuffix(path, "/visits")
	if !ok || rawID == "" {
		http.Error(w, constants.MsgInvalidRequest, http.StatusBadRequest)
		return
	}

	referrer := r.URL.Query().Get("referrer")
	userAgent := security.SanitizeInput(r.UserAgent())

	visit, err := s.Store.RecordVisit(rawID, clientIP, userAgent, referrer)
	if err != nil {
		if errors.Is(err, store.ErrInvalidPostID) {
			if s.AuditLogger != nil {
				s.AuditLogger.LogInvalidPost(clientIP, rawID)
			}
			http.Error(w, constants.MsgInvalidRequest, http.StatusBadRequest)
			return
		}
		log.Printf("Failed to record visit: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if s.Events != nil {
		s.Events.LogVisit(clientIP, visit.PostID)
	}
	s.Feed.Broadcast(visit)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/TheGoodall/forum/pkg/auth"
	"github.com/TheGoodall/forum/pkg/logger"
	"github.com/TheGoodall/forum/pkg/store"
	"github.com/TheGoodall/forum/pkg/telemetry"
	"github.com/TheGoodall/forum/pkg/utils"
	"github.com/TheGoodall/forum/pkg/validation"

	"github.com/gorilla/mux"
)

// Accounts serves registration, login and logout.
type Accounts struct {
	Accounts *store.AccountStore
	Sessions *store.SessionStore

	// SessionExpiry drives the cookie Max-Age; the stored record carries
	// its own deadline.
	SessionExpiry time.Duration
	// SecureCookies marks session cookies Secure when serving TLS.
	SecureCookies bool
}

// Register wires account routes onto the provided router.
func (h *Accounts) Register(r *mux.Router) {
	r.HandleFunc("/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.logout).Methods(http.MethodPost)
}

// register handles POST /register with form values user, name and
// password. A session is created immediately so a fresh account is
// logged in.
func (h *Accounts) register(w http.ResponseWriter, r *http.Request) {
	userID := r.FormValue("user")
	name := r.FormValue("name")
	password := r.FormValue("password")

	if err := validation.ValidateUserID(userID); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if name == "" {
		name = userID
	}
	if err := validation.ValidateUsername(name); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if password == "" {
		utils.JSONError(w, http.StatusBadRequest, "password required")
		return
	}

	if err := h.Accounts.Create(userID, name, password); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			utils.JSONError(w, http.StatusConflict, "user already exists")
			return
		}
		logger.Error("account_create_failed", "user", userID, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	token, err := h.Sessions.Create(userID, password)
	if err != nil {
		logger.Error("session_create_failed", "user", userID, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if token == "" {
		// unreachable in practice: the account was just created
		utils.JSONError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	telemetry.SessionIssued()
	h.setSessionCookie(w, token)
	logger.Info("account_registered", "user", userID)
	_ = utils.JSONWrite(w, http.StatusCreated, map[string]string{"user": userID})
}

// login handles POST /login with form values user and password. Unknown
// users and wrong passwords are indistinguishable to the caller.
func (h *Accounts) login(w http.ResponseWriter, r *http.Request) {
	userID := r.FormValue("user")
	password := r.FormValue("password")
	if userID == "" || password == "" {
		utils.JSONError(w, http.StatusBadRequest, "user and password required")
		return
	}

	token, err := h.Sessions.Create(userID, password)
	if err != nil {
		logger.Error("session_create_failed", "user", userID, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if token == "" {
		logger.Warn("login_failed", "user", userID, "remote", r.RemoteAddr)
		utils.JSONError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	telemetry.SessionIssued()
	h.setSessionCookie(w, token)
	logger.Info("login_ok", "user", userID)
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"user": userID})
}

// logout handles POST /logout. Deleting an unknown or missing token is
// not an error.
func (h *Accounts) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(auth.SessionCookie); err == nil && c.Value != "" {
		if err := h.Sessions.Delete(c.Value); err != nil {
			logger.Error("session_delete_failed", "error", err)
			utils.JSONError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}
	h.clearSessionCookie(w)
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *Accounts) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.SessionExpiry / time.Second),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Accounts) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

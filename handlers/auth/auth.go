package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"interviewhub-complete/core"
	"interviewhub-complete/stores"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

var (
	jwtSecret []byte

	githubOauthConfig *oauth2.Config

	oidcOauthConfig *oauth2.Config
	oidcProvider    *oidc.Provider
	verifier        *oidc.IDTokenVerifier

	oauthLoginHandler    http.HandlerFunc
	oauthCallbackHandler http.HandlerFunc
)

// AppClaims represents the custom claims for the JWT. Subject carries the
// user id assigned by the store.
type AppClaims struct {
	jwt.RegisteredClaims
	Email     string `json:"email,omitempty"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// OIDCClaims represents the claims from an OIDC ID token.
type OIDCClaims struct {
	Email             string `json:"email"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
	Picture           string `json:"picture"`
	Sub               string `json:"sub"`
}

// InitAuth configures the JWT secret and the optional OAuth/OIDC providers.
// Password login works without any provider; the store holds the accounts.
func InitAuth(store stores.Store) {
	jwtSecret = []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		logrus.Warn("JWT_SECRET is not set. Authentication will not work.")
	}

	oidcConfigured := os.Getenv("OIDC_ISSUER_URL") != "" && os.Getenv("OIDC_CLIENT_ID") != ""
	githubConfigured := os.Getenv("GITHUB_CLIENT_ID") != "" && os.Getenv("GITHUB_CLIENT_SECRET") != ""

	if oidcConfigured {
		logrus.Info("Initializing OIDC authentication provider.")
		initOIDC()
		oauthLoginHandler = handleOIDCLogin
		oauthCallbackHandler = handleOIDCCallback(store)
	} else if githubConfigured {
		logrus.Info("Initializing GitHub authentication provider.")
		initGitHub()
		oauthLoginHandler = handleGitHubLogin
		oauthCallbackHandler = handleGitHubCallback(store)
	} else {
		logrus.Info("No OAuth provider configured; password login only.")
	}
}

// HandleOAuthLogin redirects to the configured provider, if any.
func HandleOAuthLogin(w http.ResponseWriter, r *http.Request) {
	if oauthLoginHandler == nil {
		http.Error(w, "OAuth is not configured", http.StatusNotFound)
		return
	}
	oauthLoginHandler(w, r)
}

// HandleOAuthCallback completes the provider flow, if any.
func HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if oauthCallbackHandler == nil {
		http.Error(w, "OAuth is not configured", http.StatusNotFound)
		return
	}
	oauthCallbackHandler(w, r)
}

// HandleLogin signs a user in with email and password, registering the
// account on the fly when the email is unknown and the confirmation
// password matches.
func HandleLogin(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email           string `json:"email"`
			Password        string `json:"password"`
			ConfirmPassword string `json:"confirm_password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]any{"success": false, "message": "Invalid JSON in request body"})
			return
		}
		if body.Password == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]any{"success": false, "message": "Password is required"})
			return
		}

		user, err := store.FindUserByEmail(r.Context(), body.Email)
		if err == nil {
			// Login process
			if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)) != nil {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, map[string]any{"success": false, "message": "Invalid credentials"})
				return
			}
			respondWithToken(w, r, user, "Logged in successfully")
			return
		}

		// Registration process
		if body.Password != body.ConfirmPassword {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]any{"success": false, "message": "Passwords do not match"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			logrus.WithError(err).Error("Failed to hash password")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]any{"success": false, "message": "Failed to create account"})
			return
		}

		user = &core.User{
			Subject:      "password:" + body.Email,
			Email:        body.Email,
			Name:         nameFromEmail(body.Email),
			PasswordHash: string(hash),
		}
		id, err := store.CreateUser(r.Context(), user)
		if err != nil {
			logrus.WithError(err).WithField("email", body.Email).Error("Failed to create user")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]any{"success": false, "message": fmt.Sprintf("Error: %s", err)})
			return
		}
		user.ID = id
		respondWithToken(w, r, user, "Account created successfully")
	}
}

// HandleCheckEmail reports whether an account exists for the given email, so
// the login page can switch between sign-in and sign-up modes.
func HandleCheckEmail(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid JSON in request body"})
			return
		}

		_, err := store.FindUserByEmail(r.Context(), body.Email)
		render.JSON(w, r, map[string]bool{"exists": err == nil})
	}
}

func respondWithToken(w http.ResponseWriter, r *http.Request, user *core.User, message string) {
	token, err := createJWT(user)
	if err != nil {
		logrus.WithError(err).Error("Failed to create JWT")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]any{"success": false, "message": "Failed to issue token"})
		return
	}
	render.JSON(w, r, map[string]any{
		"success": true,
		"message": message,
		"token":   token,
		"user": map[string]string{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}

func nameFromEmail(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}

func initGitHub() {
	githubOauthConfig = &oauth2.Config{
		ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("GITHUB_REDIRECT_URL"),
		Scopes:       []string{"read:user", "user:email"},
		Endpoint:     github.Endpoint,
	}
}

func initOIDC() {
	providerURL := os.Getenv("OIDC_ISSUER_URL")
	clientID := os.Getenv("OIDC_CLIENT_ID")
	clientSecret := os.Getenv("OIDC_CLIENT_SECRET")
	redirectURL := os.Getenv("OIDC_REDIRECT_URL")

	var err error
	oidcProvider, err = oidc.NewProvider(context.Background(), providerURL)
	if err != nil {
		logrus.Errorf("Failed to create OIDC provider: %s", err.Error())
		return
	}

	oidcOauthConfig = &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		Endpoint:     oidcProvider.Endpoint(),
	}
	verifier = oidcProvider.Verifier(&oidc.Config{ClientID: clientID})
}

func generateStateOauthCookie(w http.ResponseWriter, name string) string {
	b := make([]byte, 16)
	rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
	})
	return state
}

func handleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := generateStateOauthCookie(w, "oauthstate")
	http.Redirect(w, r, githubOauthConfig.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func handleGitHubCallback(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := githubOauthConfig.Exchange(r.Context(), r.FormValue("code"))
		if err != nil {
			logrus.Errorf("failed to exchange token: %s", err.Error())
			http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
			return
		}

		client := githubOauthConfig.Client(r.Context(), token)
		resp, err := client.Get("https://api.github.com/user")
		if err != nil {
			logrus.Errorf("failed to get user from github: %s", err.Error())
			http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
			return
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			logrus.Errorf("failed to read github response body: %s", err.Error())
			http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
			return
		}

		var githubUser struct {
			ID        int64  `json:"id"`
			Login     string `json:"login"`
			Email     string `json:"email"`
			AvatarURL string `json:"avatar_url"`
			Name      string `json:"name"`
		}
		if err := json.Unmarshal(body, &githubUser); err != nil {
			logrus.Errorf("failed to unmarshal github user: %s", err.Error())
			http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
			return
		}

		name := githubUser.Name
		if name == "" {
			name = githubUser.Login
		}
		user, err := upsertOAuthUser(r.Context(), store, &core.User{
			Subject:   fmt.Sprintf("github:%d", githubUser.ID),
			Email:     githubUser.Email,
			Name:      name,
			AvatarURL: githubUser.AvatarURL,
		})
		if err != nil {
			logrus.Errorf("failed to upsert github user: %s", err.Error())
			http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
			return
		}

		redirectWithToken(w, r, user)
	}
}

func handleOIDCLogin(w http.ResponseWriter, r *http.Request) {
	if oidcOauthConfig == nil {
		http.Error(w, "OIDC is not configured", http.StatusInternalServerError)
		return
	}

	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		http.Error(w, "Failed to generate state for OIDC login", http.StatusInternalServerError)
		return
	}
	state := hex.EncodeToString(stateBytes)

	http.SetCookie(w, &http.Cookie{
		Name:     "oidc_state",
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		Secure:   r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, oidcOauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline), http.StatusTemporaryRedirect)
}

func handleOIDCCallback(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if oidcOauthConfig == nil || verifier == nil {
			http.Error(w, "OIDC is not configured", http.StatusInternalServerError)
			return
		}

		code := r.FormValue("code")
		if code == "" {
			logrus.Error("no code in callback")
			http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
			return
		}

		token, err := oidcOauthConfig.Exchange(r.Context(), code)
		if err != nil {
			logrus.Errorf("failed to exchange token: %s", err.Error())
			http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
			return
		}

		rawIDToken, ok := token.Extra("id_token").(string)
		if !ok {
			logrus.Error("no id_token in token response")
			http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
			return
		}

		idToken, err := verifier.Verify(r.Context(), rawIDToken)
		if err != nil {
			logrus.Errorf("failed to verify ID token: %s", err.Error())
			http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
			return
		}

		var claims OIDCClaims
		if err := idToken.Claims(&claims); err != nil {
			logrus.Errorf("failed to extract claims from ID token: %s", err.Error())
			http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
			return
		}

		name := claims.Name
		if name == "" {
			name = claims.PreferredUsername
		}
		user, err := upsertOAuthUser(r.Context(), store, &core.User{
			Subject:   claims.Sub,
			Email:     claims.Email,
			Name:      name,
			AvatarURL: claims.Picture,
		})
		if err != nil {
			logrus.Errorf("failed to upsert oidc user: %s", err.Error())
			http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
			return
		}

		redirectWithToken(w, r, user)
	}
}

// upsertOAuthUser returns the stored account for an OAuth subject, creating
// it on first sign-in.
func upsertOAuthUser(ctx context.Context, store stores.Store, user *core.User) (*core.User, error) {
	existing, err := store.FindUserBySubject(ctx, user.Subject)
	if err == nil {
		return existing, nil
	}

	id, err := store.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = id
	return user, nil
}

func redirectWithToken(w http.ResponseWriter, r *http.Request, user *core.User) {
	token, err := createJWT(user)
	if err != nil {
		logrus.Errorf("failed to create JWT: %s", err.Error())
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/?token=%s", token), http.StatusTemporaryRedirect)
}

func createJWT(user *core.User) (string, error) {
	claims := AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 24 * 7)), // 1 week
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ParseJWT validates a token string and returns its claims.
func ParseJWT(tokenString string) (*AppClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AppClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AppClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

package auth

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/jimdaga/frequency/internal/config"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
)

// OAuthProvider runs the browser half of an OAuth sign-in.
type OAuthProvider interface {
	// Begin redirects the browser to the provider's consent screen.
	Begin(c *gin.Context)
	// Complete exchanges the callback code and fetches the user profile.
	Complete(c *gin.Context) (goth.User, error)
}

// InitProviders initializes Goth OAuth providers and returns the Google
// provider, or nil when no client credentials are configured.
func InitProviders(cfg *config.Config) OAuthProvider {
	// Gothic keeps the OAuth state in its own gorilla/sessions cookie store.
	// The default has Secure=true which breaks localhost (plain HTTP).
	gothStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	gothStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = gothStore

	if !cfg.GoogleEnabled() {
		log.Println("WARNING: GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET not set. Google login will answer 400 until credentials are configured.")
		return nil
	}

	// goth's google provider already requests access_type=offline.
	provider := google.New(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleCallbackURL,
		"email",
		"profile",
		"openid",
	)
	provider.SetPrompt("select_account")
	goth.UseProviders(provider)

	log.Println("Goth providers initialized: google")
	return gothicProvider{name: ProviderGoogle}
}

// gothicProvider drives a registered goth provider through gothic.
type gothicProvider struct {
	name string
}

func (p gothicProvider) Begin(c *gin.Context) {
	p.setProvider(c)
	gothic.BeginAuthHandler(c.Writer, c.Request)
}

func (p gothicProvider) Complete(c *gin.Context) (goth.User, error) {
	p.setProvider(c)
	return gothic.CompleteUserAuth(c.Writer, c.Request)
}

// Gothic requires the "provider" query parameter
func (p gothicProvider) setProvider(c *gin.Context) {
	q := c.Request.URL.Query()
	q.Set("provider", p.name)
	c.Request.URL.RawQuery = q.Encode()
}

// Package oauth drives the three-legged OAuth1 handshake that turns
// app-level consumer credentials into account-level access credentials.
package oauth

import (
	"fmt"
	"os/exec"
	"runtime"
	"sync"

	"github.com/dghubble/oauth1"
	"github.com/dghubble/oauth1/twitter"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dstanwick/perch/internal/perr"
)

// Credentials is the long-lived access token pair produced by a completed
// handshake. It is printed for the operator, never persisted automatically:
// rotating configuration is a deliberate manual step.
type Credentials struct {
	Token  string
	Secret string
}

// session is the ephemeral request-token state between Start and the
// callback. At most one session is active; a new Start overwrites it
// (last writer wins, one operator at a time).
type session struct {
	id     string
	token  string
	secret string
}

// tokenEndpoint is the subset of the OAuth1 handshake the exchange needs.
// Tests substitute a stub.
type tokenEndpoint interface {
	RequestToken() (token, secret string, err error)
	AuthorizationURL(token string) (string, error)
	AccessToken(token, secret, verifier string) (accessToken, accessSecret string, err error)
}

type oauth1Endpoint struct {
	config *oauth1.Config
}

func (e *oauth1Endpoint) RequestToken() (string, string, error) {
	return e.config.RequestToken()
}

func (e *oauth1Endpoint) AuthorizationURL(token string) (string, error) {
	u, err := e.config.AuthorizationURL(token)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (e *oauth1Endpoint) AccessToken(token, secret, verifier string) (string, string, error) {
	return e.config.AccessToken(token, secret, verifier)
}

// Exchange holds the single-slot authorization session and the platform
// endpoint used to complete it.
type Exchange struct {
	endpoint    tokenEndpoint
	log         *logrus.Entry
	openBrowser func(url string)

	mu     sync.Mutex
	active *session
}

// NewExchange builds an Exchange for the given consumer credentials. The
// callback address is fixed to the local port the exchange serves on.
func NewExchange(consumerKey, consumerSecret string, port int, log *logrus.Entry) *Exchange {
	config := oauth1.NewConfig(consumerKey, consumerSecret)
	config.CallbackURL = fmt.Sprintf("http://localhost:%d/callback", port)
	config.Endpoint = twitter.AuthorizeEndpoint
	return &Exchange{
		endpoint:    &oauth1Endpoint{config: config},
		log:         log,
		openBrowser: openBrowser,
	}
}

// Start obtains a fresh request token, installs it as the active session
// (overwriting any prior one), and opens the authorize URL in the
// operator's browser. Browser launch is best-effort; the URL is returned
// and logged either way.
func (x *Exchange) Start() (string, error) {
	token, secret, err := x.endpoint.RequestToken()
	if err != nil {
		return "", perr.E(perr.KindTokenExchange, "oauth.request_token", err)
	}

	x.mu.Lock()
	x.active = &session{id: uuid.NewString(), token: token, secret: secret}
	x.mu.Unlock()

	authURL, err := x.endpoint.AuthorizationURL(token)
	if err != nil {
		return "", perr.E(perr.KindTokenExchange, "oauth.authorization_url", err)
	}

	x.log.WithField("url", authURL).Info("opening authorization page")
	x.openBrowser(authURL)
	return authURL, nil
}

// HandleCallback completes the handshake. The callback token must match the
// active session and a verifier must be present; otherwise the callback is
// invalid and the session stays untouched. A matching callback consumes the
// session whether or not the exchange succeeds, so a second callback with
// the same token is invalid.
func (x *Exchange) HandleCallback(token, verifier string) (Credentials, error) {
	x.mu.Lock()
	if x.active == nil || token == "" || token != x.active.token {
		x.mu.Unlock()
		return Credentials{}, perr.Errorf(perr.KindInvalidCallback, "oauth.callback",
			"callback token does not match an active authorization attempt")
	}
	if verifier == "" {
		x.mu.Unlock()
		return Credentials{}, perr.Errorf(perr.KindInvalidCallback, "oauth.callback",
			"callback is missing the verifier")
	}
	sess := x.active
	x.active = nil // single use
	x.mu.Unlock()

	accessToken, accessSecret, err := x.endpoint.AccessToken(sess.token, sess.secret, verifier)
	if err != nil {
		return Credentials{}, perr.E(perr.KindTokenExchange, "oauth.access_token", err)
	}

	x.log.WithField("session", sess.id).Info("authorization completed")
	return Credentials{Token: accessToken, Secret: accessSecret}, nil
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}

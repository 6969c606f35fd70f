package oauth

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/dstanwick/perch/internal/perr"
)

// stubEndpoint is a scriptable tokenEndpoint.
type stubEndpoint struct {
	requestToken  string
	requestSecret string
	requestErr    error

	accessToken  string
	accessSecret string
	accessErr    error

	exchanged []string // verifiers passed to AccessToken
}

func (s *stubEndpoint) RequestToken() (string, string, error) {
	return s.requestToken, s.requestSecret, s.requestErr
}

func (s *stubEndpoint) AuthorizationURL(token string) (string, error) {
	return "https://example.com/authorize?oauth_token=" + token, nil
}

func (s *stubEndpoint) AccessToken(token, secret, verifier string) (string, string, error) {
	s.exchanged = append(s.exchanged, verifier)
	if s.accessErr != nil {
		return "", "", s.accessErr
	}
	return s.accessToken, s.accessSecret, nil
}

func testExchange(stub *stubEndpoint) *Exchange {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &Exchange{
		endpoint:    stub,
		log:         log.WithField("service", "test"),
		openBrowser: func(string) {},
	}
}

func TestStartThenCallback(t *testing.T) {
	stub := &stubEndpoint{
		requestToken: "req-1", requestSecret: "sec-1",
		accessToken: "acc-tok", accessSecret: "acc-sec",
	}
	x := testExchange(stub)

	authURL, err := x.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !strings.Contains(authURL, "req-1") {
		t.Errorf("authorize URL missing request token: %q", authURL)
	}

	creds, err := x.HandleCallback("req-1", "verif")
	if err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if creds.Token != "acc-tok" || creds.Secret != "acc-sec" {
		t.Errorf("credentials: got %+v", creds)
	}
}

func TestCallbackTokenMismatchLeavesSession(t *testing.T) {
	stub := &stubEndpoint{
		requestToken: "req-1", requestSecret: "sec-1",
		accessToken: "acc-tok", accessSecret: "acc-sec",
	}
	x := testExchange(stub)

	if _, err := x.Start(); err != nil {
		t.Fatal(err)
	}

	_, err := x.HandleCallback("wrong-token", "verif")
	if perr.KindOf(err) != perr.KindInvalidCallback {
		t.Fatalf("mismatched token: got kind %v, want KindInvalidCallback", perr.KindOf(err))
	}
	if len(stub.exchanged) != 0 {
		t.Error("mismatched callback must not hit the token endpoint")
	}

	// Session untouched: the correct token still completes.
	if _, err := x.HandleCallback("req-1", "verif"); err != nil {
		t.Errorf("session should survive an invalid callback: %v", err)
	}
}

func TestCallbackIsSingleUse(t *testing.T) {
	stub := &stubEndpoint{
		requestToken: "req-1", requestSecret: "sec-1",
		accessToken: "acc-tok", accessSecret: "acc-sec",
	}
	x := testExchange(stub)

	if _, err := x.Start(); err != nil {
		t.Fatal(err)
	}
	if _, err := x.HandleCallback("req-1", "verif"); err != nil {
		t.Fatal(err)
	}

	_, err := x.HandleCallback("req-1", "verif")
	if perr.KindOf(err) != perr.KindInvalidCallback {
		t.Errorf("second callback: got kind %v, want KindInvalidCallback", perr.KindOf(err))
	}
}

func TestCallbackMissingVerifier(t *testing.T) {
	stub := &stubEndpoint{requestToken: "req-1", requestSecret: "sec-1"}
	x := testExchange(stub)

	if _, err := x.Start(); err != nil {
		t.Fatal(err)
	}
	_, err := x.HandleCallback("req-1", "")
	if perr.KindOf(err) != perr.KindInvalidCallback {
		t.Errorf("missing verifier: got kind %v, want KindInvalidCallback", perr.KindOf(err))
	}
}

func TestCallbackWithoutStart(t *testing.T) {
	x := testExchange(&stubEndpoint{})
	_, err := x.HandleCallback("any", "verif")
	if perr.KindOf(err) != perr.KindInvalidCallback {
		t.Errorf("no session: got kind %v, want KindInvalidCallback", perr.KindOf(err))
	}
}

func TestStartOverwritesSession(t *testing.T) {
	stub := &stubEndpoint{
		requestToken: "req-1", requestSecret: "sec-1",
		accessToken: "acc-tok", accessSecret: "acc-sec",
	}
	x := testExchange(stub)

	if _, err := x.Start(); err != nil {
		t.Fatal(err)
	}

	stub.requestToken = "req-2"
	if _, err := x.Start(); err != nil {
		t.Fatal(err)
	}

	// The first token is stale after the overwrite.
	if _, err := x.HandleCallback("req-1", "verif"); perr.KindOf(err) != perr.KindInvalidCallback {
		t.Errorf("stale token: got kind %v, want KindInvalidCallback", perr.KindOf(err))
	}
	if _, err := x.HandleCallback("req-2", "verif"); err != nil {
		t.Errorf("fresh token should complete: %v", err)
	}
}

func TestExchangeFailureConsumesSession(t *testing.T) {
	stub := &stubEndpoint{
		requestToken: "req-1", requestSecret: "sec-1",
		accessErr: errors.New("verifier expired"),
	}
	x := testExchange(stub)

	if _, err := x.Start(); err != nil {
		t.Fatal(err)
	}

	_, err := x.HandleCallback("req-1", "verif")
	if perr.KindOf(err) != perr.KindTokenExchange {
		t.Fatalf("exchange failure: got kind %v, want KindTokenExchange", perr.KindOf(err))
	}

	// Failure also discards the session: the operator starts over.
	_, err = x.HandleCallback("req-1", "verif")
	if perr.KindOf(err) != perr.KindInvalidCallback {
		t.Errorf("after failed exchange: got kind %v, want KindInvalidCallback", perr.KindOf(err))
	}
}

func TestCallbackRoute(t *testing.T) {
	stub := &stubEndpoint{
		requestToken: "req-1", requestSecret: "sec-1",
		accessToken: "acc-tok", accessSecret: "acc-sec",
	}
	x := testExchange(stub)
	if _, err := x.Start(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/callback?oauth_token=req-1&oauth_verifier=v", nil)
	rec := httptest.NewRecorder()
	x.handleCallback(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "successful") {
		t.Errorf("body: %q", rec.Body.String())
	}
}

func TestCallbackRouteInvalid(t *testing.T) {
	x := testExchange(&stubEndpoint{})

	req := httptest.NewRequest(http.MethodGet, "/callback?oauth_token=nope&oauth_verifier=v", nil)
	rec := httptest.NewRecorder()
	x.handleCallback(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

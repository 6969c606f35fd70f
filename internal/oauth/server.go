package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dstanwick/perch/internal/perr"
)

// Serve runs the local callback server until ctx is cancelled. Two routes
// only: GET / starts an authorization attempt, GET /callback completes it.
// Responses are plain text for the operator's browser.
func (x *Exchange) Serve(ctx context.Context, port int) error {
	r := chi.NewRouter()
	r.Get("/", x.handleStart)
	r.Get("/callback", x.handleCallback)

	srv := &http.Server{
		Addr:    fmt.Sprintf("localhost:%d", port),
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	x.log.WithField("addr", srv.Addr).Info("authorization server listening")
	fmt.Printf("Visit http://%s/ to authorize the bot's account.\n", srv.Addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("authorization server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (x *Exchange) handleStart(w http.ResponseWriter, r *http.Request) {
	authURL, err := x.Start()
	if err != nil {
		x.log.WithError(err).Error("starting authorization failed")
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprintf(w, "Starting authorization failed: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Authorization started. If your browser did not open, visit:\n%s\n", authURL)
}

func (x *Exchange) handleCallback(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("oauth_token")
	verifier := r.URL.Query().Get("oauth_verifier")

	creds, err := x.HandleCallback(token, verifier)
	if err != nil {
		x.log.WithError(err).Error("authorization callback failed")
		switch perr.KindOf(err) {
		case perr.KindInvalidCallback:
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, "Invalid callback: no matching authorization attempt. Start again from /.\n")
		default:
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprintf(w, "Token exchange failed: %v\nStart again from /.\n", err)
		}
		return
	}

	// Hand the credentials to the operator for manual configuration.
	fmt.Printf("\nAccess credentials obtained. Add them to .perch.yml:\n\n")
	fmt.Printf("access_token: %s\naccess_secret: %s\n\n", creds.Token, creds.Secret)

	fmt.Fprint(w, "Authorization successful. The access credentials were printed to the terminal;\n")
	fmt.Fprint(w, "add them to .perch.yml and start the bot with `perch run`.\n")
}

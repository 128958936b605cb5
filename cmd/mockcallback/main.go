// mockcallback is an example implementation of the authorization
// callback: it decides from an HMAC-signed JWT passed as the "token"
// request parameter and answers with a record JSON. It exercises all
// three response modes a real callback can use: a record body, an empty
// success body (rely on the default record), and an error status
// (reject the subject).
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-jwt/jwt/v5"

	"authcallback/internal/domain"
	"authcallback/internal/platform/server"
)

func main() {
	addr := envOr("MOCKCALLBACK_ADDR", ":8081")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	secret := []byte(os.Getenv("MOCKCALLBACK_SECRET"))
	if len(secret) == 0 {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			slog.Error("generating secret", "error", err)
			os.Exit(1)
		}
		secret = []byte(hex.EncodeToString(buf))
		slog.Info("generated signing secret", "secret", string(secret))
	}

	// Connections granted to every authorized subject.
	connections := map[string]domain.ConnectionSpec{
		"desktop": {
			Protocol:   "vnc",
			Parameters: map[string]string{"hostname": "vnc.internal", "port": "5900"},
		},
		"jumpbox": {
			Protocol:   "ssh",
			Parameters: map[string]string{"hostname": "jump.internal"},
		},
	}

	slog.Info("mock callback starting", "addr", addr)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /", func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			// No token at all: unauthorized.
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing token parameter")
			return
		}

		token, err := jwt.Parse(tokenStr, func(_ *jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			slog.Debug("token validation failed", "error", err)
			writeError(w, http.StatusForbidden, "forbidden", "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			writeError(w, http.StatusForbidden, "forbidden", "invalid claims")
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			writeError(w, http.StatusForbidden, "forbidden", "missing subject")
			return
		}

		// Authorized without specific data: empty success body, the
		// provider falls back to its default record.
		if r.URL.Query().Get("defaults") == "true" {
			w.WriteHeader(http.StatusOK)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(domain.Record{
			Username:    sub,
			Connections: connections,
		}); err != nil {
			slog.Error("encoding record", "error", err)
		}
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "service": "mockcallback"})
	})

	srv := server.New(addr, mux)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{Error: code, Message: msg})
}

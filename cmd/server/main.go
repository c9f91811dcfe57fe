package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	"holdemlite/internal/auth"
	"holdemlite/internal/gateway"
	"holdemlite/internal/ledger"
	"holdemlite/internal/lobby"
)

func main() {
	authService, authMode, err := auth.NewServiceFromEnv()
	if err != nil {
		log.Fatalf("[Server] failed to init auth service: %v", err)
	}
	defer authService.Close()

	ledgerService, ledgerMode, err := ledger.NewServiceFromEnv(authMode)
	if err != nil {
		log.Fatalf("[Server] failed to init ledger service: %v", err)
	}
	defer ledgerService.Close()

	lby := lobby.New(ledgerService)
	defer lby.Stop()

	gw := gateway.New(lby, authService)
	authHTTP := auth.NewHTTPHandler(authService)
	ledgerHTTP := ledger.NewHTTPHandler(authService, ledgerService)
	lobbyHTTP := lobby.NewHTTPHandler(lby, authService)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	authHTTP.RegisterRoutes(mux)
	ledgerHTTP.RegisterRoutes(mux)
	lobbyHTTP.RegisterRoutes(mux)

	addr := strings.TrimSpace(os.Getenv("SERVER_ADDR"))
	if addr == "" {
		addr = ":18080"
	}
	log.Printf("[Server] auth mode: %s", authMode)
	log.Printf("[Server] ledger mode: %s", ledgerMode)
	log.Printf("[Server] starting on %s", addr)
	if err := http.ListenAndServe(addr, withCORS(mux)); err != nil {
		log.Fatalf("[Server] failed to start: %v", err)
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

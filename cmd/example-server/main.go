package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"limits-gateway/middleware/limits"
	"limits-gateway/middleware/limits/infra"
)

func main() {
	// Exemplo: injetando os guards diretamente no seu webserver (sem proxy)
	store := infra.NewRateStore(5, 10)
	stats := infra.NewMemoryStatsStore(infra.WithTrackRoutes(true))
	tracer := limits.SlogTracer(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	store.StartJanitor(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		n, err := io.Copy(io.Discard, r.Body)
		if err != nil {
			// o guard de content length troca esta resposta por 413
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, _ = fmt.Fprintf(w, "received %d bytes\n", n)
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		t := stats.Total()
		_, _ = fmt.Fprintf(w, "allowed=%d denied=%d\n", t.Allowed, t.Denied)
		for route, c := range stats.ByRoute() {
			_, _ = fmt.Fprintf(w, "%s allowed=%d denied=%d\n", route, c.Allowed, c.Denied)
		}
	})

	h := limits.Chain(
		limits.RequestRate(limits.RateOptions{
			Store:               store,
			KeyHeader:           "X-Api-Key", // ou vazio para usar IP
			TrustXForwardedFor:  true,
			AddRateLimitHeaders: true,
			Stats:               stats,
		}),
		limits.MaxConcurrentRequestsWith(limits.ConcurrencyOptions{
			Limit:        limits.Static(50),
			ReasonPhrase: func(int) string { return "Too many concurrent requests." },
			Tracer:       tracer,
			Stats:        stats,
		}),
		limits.MaxURLLength(2048),
		limits.MaxQueryStringLength(1024),
		limits.MaxRequestContentLengthWith(limits.ContentLengthOptions{
			Limit: limits.Static(int64(1 << 20)),
			ReasonPhrase: func(status int) string {
				if status == http.StatusRequestEntityTooLarge {
					return "The content is too large. It is only a value of 1048576 allowed."
				}
				return ""
			},
			Tracer: tracer,
			Stats:  stats,
		}),
		limits.ConnectionTimeout(10*time.Second),
		limits.MaxBandwidth(512<<10),
	)(mux)

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("example server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

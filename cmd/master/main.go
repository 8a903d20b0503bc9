// cmd/master is the entrypoint for the replicated log's Master node.
//
// Configuration is entirely via flags/environment, mirroring the
// teacher's single-binary approach:
//
// Example — one master, two secondaries:
//
//	./master --port 5000 --secondaries http://localhost:5001,http://localhost:5002
//
// Env vars (spec.md §6): SECONDARIES is read as the --secondaries flag's
// default, so either configuration style works.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"replicated-log/internal/api"
	"replicated-log/internal/master"
	"replicated-log/internal/transport"
)

func main() {
	// ── Flags ──────────────────────────────────────────────────────────────
	port := flag.String("port", envOr("HTTP_PORT", "5000"), "Listen port")
	secondariesFlag := flag.String("secondaries", envOr("SECONDARIES", ""), "Comma-separated list of secondary base URLs")
	linkTimeout := flag.Duration("link-timeout", 3*time.Second, "Per-attempt HTTP timeout to a secondary")
	flag.Parse()

	addr := ":" + *port

	var secondaries []string
	if *secondariesFlag != "" {
		secondaries = strings.Split(*secondariesFlag, ",")
	}
	if len(secondaries) == 0 {
		log.Fatalf("FATAL: at least one secondary must be configured via --secondaries or SECONDARIES")
	}

	// ── Master ─────────────────────────────────────────────────────────────
	m := master.New(secondaries, func(secondaryAddr string) *transport.Client {
		return transport.New(secondaryAddr, *linkTimeout)
	})

	// ── HTTP server ────────────────────────────────────────────────────────
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(api.Logger(), api.Recovery())

	handler := api.NewMasterHandler(m)
	handler.Register(router)

	// Health check endpoint — useful for load balancers and readiness probes.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"secondaries": secondaries,
			"queues":      m.QueueDepths(),
		})
	})

	srv := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: a w>1 append legitimately blocks on secondary
		// acks for as long as the caller is willing to wait (spec.md §5 —
		// the Master imposes no deadline of its own).
	}

	// ── Graceful shutdown ──────────────────────────────────────────────────
	go func() {
		log.Printf("[master] listening on %s, secondaries=%v", addr, secondaries)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[master] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
}

// envOr returns the environment variable's value, or def if unset.
func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

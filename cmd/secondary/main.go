// cmd/secondary is the entrypoint for a replicated log Secondary node.
//
// On startup it performs an initial sync against the Master (spec.md
// §4.4) before opening its listener, so it never serves a caller a gap
// it could have filled for free.
//
// Example:
//
//	./secondary --port 5001 --master-url http://localhost:5000 --addr http://secondary1:5001
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"replicated-log/internal/api"
	"replicated-log/internal/secondary"
	"replicated-log/internal/transport"
)

func main() {
	port := flag.String("port", envOr("HTTP_PORT", "5001"), "Listen port")
	masterURL := flag.String("master-url", envOr("MASTER_URL", "http://master:5000"), "Master base URL")
	masterTimeout := flag.Duration("master-timeout", 5*time.Second, "HTTP timeout for calls to the Master")
	selfURL := flag.String("addr", envOr("SECONDARY_ADDR", ""), "This Secondary's own base URL, as reachable by the Master (advertised in the post-sync /internal/sync call)")
	faultRate := flag.Float64("fault-rate", envFloatOr("FAULT_RATE", 0), "Probability in [0,1] of injecting a fault on replicate (testing aid)")
	flag.Parse()

	addr := ":" + *port

	masterClient := transport.New(*masterURL, *masterTimeout)
	s := secondary.New(masterClient, *faultRate)

	// Block on initial sync before accepting any connections — a
	// rejoining Secondary must never answer /messages with a shorter
	// prefix than it's capable of having (spec.md §4.4).
	syncCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	s.InitialSync(syncCtx)
	cancel()

	// Announce readiness to the Master so it kicks this secondary's
	// dispatcher, which resumes at once if it had parked after exhausting
	// its retries while we were away (spec.md §4.4's optional sync signal).
	if *selfURL != "" {
		syncCtx, cancel := context.WithTimeout(context.Background(), *masterTimeout)
		if err := masterClient.TriggerSync(syncCtx, *selfURL); err != nil {
			log.Printf("[secondary] sync signal to master failed: %v", err)
		}
		cancel()
	} else {
		log.Println("[secondary] no --addr configured; skipping sync signal to master")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(api.Logger(), api.Recovery())

	handler := api.NewSecondaryHandler(s)
	handler.Register(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "ok",
			"master":        *masterURL,
			"expectedOrder": s.ExpectedOrder(),
		})
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[secondary] listening on %s, master=%s", addr, *masterURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[secondary] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// Command tanksim serves a simulated tank fleet on GET /get_tanks so the
// service can be run locally without real sensors. Every request advances the
// random walk by one step; the same seed always yields the same sequence.
//
// Usage:
//
//	go run ./cmd/tanksim -addr :5000 -tanks 12 -seed 7
package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

func main() {
	addr := flag.String("addr", ":5000", "listen address")
	tanks := flag.Int("tanks", 12, "number of simulated tanks")
	seed := flag.Uint64("seed", 7, "random walk seed")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	if *tanks <= 0 {
		logger.Error("tanks must be positive", "tanks", *tanks)
		os.Exit(2)
	}

	router := newRouter(newFleet(*tanks, *seed))
	logger.Info("tank simulator listening", "addr", *addr, "tanks", *tanks, "seed", *seed)
	if err := http.ListenAndServe(*addr, router); err != nil { //nolint:gosec // local development tool
		logger.Error("simulator stopped", "error", err)
		os.Exit(1)
	}
}

func newRouter(f *fleet) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/get_tanks", func(c *gin.Context) {
		f.step()
		c.JSON(http.StatusOK, f.snapshot())
	})
	return router
}

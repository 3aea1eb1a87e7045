package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/y0nigt/pacer/api"
	"github.com/y0nigt/pacer/metrics"
	"github.com/y0nigt/pacer/middleware"
	"github.com/y0nigt/pacer/pkg/pacer"
)

func main() {
	// Configuration
	port := getEnv("PORT", "8080")
	presetFile := getEnv("PRESETS_FILE", "")

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("failed to build logger:", err)
	}
	defer logger.Sync()

	// Registry starts from the built-in presets; a YAML file can add more.
	registry, err := pacer.NewRegistry(pacer.BuiltinDefinitions()...)
	if err != nil {
		log.Fatal("failed to build registry:", err)
	}
	if presetFile != "" {
		if err := registry.LoadFile(presetFile); err != nil {
			log.Fatal("❌ Failed to load presets:", err)
		}
		fmt.Println("✅ Loaded presets from", presetFile)
	}

	// Observers: JSON snapshot counters plus Prometheus collectors.
	recorder := metrics.NewRecorder()
	promRegistry := prometheus.NewRegistry()
	collector := metrics.NewCollector(promRegistry)
	observer := pacer.Observers(recorder, collector)

	curve, err := pacer.NewCurve(pacer.WithCurveObserver(observer))
	if err != nil {
		log.Fatal("failed to build backoff curve:", err)
	}

	// Demo endpoint throttled by a built-in preset.
	def, ok := registry.Lookup("api_action", "send_message--user")
	if !ok {
		log.Fatal("missing built-in preset api_action/send_message--user")
	}
	limiter, err := def.NewLimiter(
		pacer.WithLogger(logger),
		pacer.WithObserver(observer),
	)
	if err != nil {
		log.Fatal("failed to build limiter:", err)
	}
	throttle := middleware.NewThrottle(limiter)

	// Create API handlers
	handler := api.NewHandler(curve, registry)
	snapshotHandler := api.NewSnapshotHandler(recorder)

	// Routes
	http.HandleFunc("/sample", handler.SampleDelay)
	http.HandleFunc("/next-delay", handler.NextDelay)
	http.HandleFunc("/presets", handler.Presets)
	http.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	http.Handle("/metrics.json", snapshotHandler)
	http.Handle("/send", throttle.Middleware(http.HandlerFunc(sendHandler)))
	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/", rootHandler)

	// Start server
	addr := ":" + port
	fmt.Println("🚦 Pacer Throttling Service")
	fmt.Println("📍 Listening on http://localhost" + addr)
	fmt.Println()
	fmt.Println("Endpoints:")
	fmt.Println("  POST /sample       - Sample the backoff curve at an attempt")
	fmt.Println("  POST /next-delay   - Compute the next retry delay")
	fmt.Println("  GET  /presets      - List rate limit presets")
	fmt.Println("  GET  /send         - Demo endpoint throttled at 29/1.017s")
	fmt.Println("  GET  /metrics      - Prometheus metrics")
	fmt.Println("  GET  /metrics.json - Counter snapshot (JSON)")
	fmt.Println("  GET  /health       - Health check")
	fmt.Println()

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatal(err)
	}
}

func sendHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "sent",
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "pacer",
		"version": "1.0.0",
	})
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"service": "Pacer Throttling Service",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"POST /sample":     "Sample the backoff curve at an attempt",
			"POST /next-delay": "Compute the next retry delay",
			"GET /presets":     "List rate limit presets",
			"GET /send":        "Throttled demo endpoint",
			"GET /health":      "Health check",
		},
		"docs": "https://github.com/y0nigt/pacer",
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

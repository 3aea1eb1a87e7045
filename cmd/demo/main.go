package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/y0nigt/pacer/metrics"
	"github.com/y0nigt/pacer/pkg/pacer"
)

func main() {
	// Command-line flags
	workers := flag.Int("workers", 4, "Number of concurrent senders")
	messages := flag.Int("messages", 15, "Messages per sender")
	failRate := flag.Float64("fail-rate", 0.2, "Probability a send fails and is retried")
	presetFile := flag.String("presets", "", "Optional YAML preset file")
	flag.Parse()

	printBanner()

	registry, err := pacer.NewRegistry(pacer.BuiltinDefinitions()...)
	if err != nil {
		log.Fatalf("Failed to create registry: %v", err)
	}
	if *presetFile != "" {
		log.Println("Loading presets from:", *presetFile)
		if err := registry.LoadFile(*presetFile); err != nil {
			log.Fatalf("Failed to load presets: %v", err)
		}
	}

	recorder := metrics.NewRecorder()

	limiter, err := registry.Limiter("api_action", "send_message--user",
		pacer.WithObserver(recorder),
	)
	if err != nil {
		log.Fatalf("Failed to create limiter: %v", err)
	}

	curve, err := pacer.NewCurve(pacer.WithCurveObserver(recorder))
	if err != nil {
		log.Fatalf("Failed to create backoff curve: %v", err)
	}
	calc := pacer.NewDelayCalculator(curve)

	log.Printf("Throttling %d senders at %d messages each (window %.3fs, burst %d)",
		*workers, *messages, limiter.Window(), limiter.Burst())
	log.Println("")

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for m := 0; m < *messages; m++ {
				sendWithRetry(id, m, limiter, calc, *failRate)
			}
		}(w)
	}
	wg.Wait()

	log.Printf("Done in %s", time.Since(start).Round(time.Millisecond))
	log.Println("")

	snapshot := recorder.GetSnapshot()
	out, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal snapshot: %v", err)
	}
	fmt.Println(string(out))
}

// sendWithRetry pushes one message through the limiter, retrying a
// simulated flaky send with escalating delays.
func sendWithRetry(worker, seq int, limiter *pacer.Limiter, calc *pacer.DelayCalculator, failRate float64) {
	var previous float64
	for {
		err := limiter.Do(func() error {
			if rand.Float64() < failRate {
				return fmt.Errorf("worker %d: message %d: transient send failure", worker, seq)
			}
			return nil
		})
		if err == nil {
			return
		}

		delay, derr := calc.NextDelay(previous, 0)
		if derr != nil {
			log.Printf("worker %d: giving up on message %d: %v", worker, seq, derr)
			return
		}
		log.Printf("worker %d: retrying message %d in %.3fs: %v", worker, seq, delay, err)
		time.Sleep(time.Duration(delay * float64(time.Second)))
		previous = delay
	}
}

func printBanner() {
	banner := `
╔═══════════════════════════════════════════════╗
║                                               ║
║   ██████╗  █████╗  ██████╗███████╗██████╗     ║
║   ██╔══██╗██╔══██╗██╔════╝██╔════╝██╔══██╗    ║
║   ██████╔╝███████║██║     █████╗  ██████╔╝    ║
║   ██╔═══╝ ██╔══██║██║     ██╔══╝  ██╔══██╗    ║
║   ██║     ██║  ██║╚██████╗███████╗██║  ██║    ║
║   ╚═╝     ╚═╝  ╚═╝ ╚═════╝╚══════╝╚═╝  ╚═╝    ║
║                                               ║
║            PACER - Demo Sender                ║
║                                               ║
║   Sliding Window Throttling & Backoff         ║
║   Jittered Exponential Retry | Go             ║
║                                               ║
╚═══════════════════════════════════════════════╝
`
	fmt.Println(banner)
}

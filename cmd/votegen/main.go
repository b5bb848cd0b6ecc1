// Command votegen generates synthetic vote and like traffic against a
// running glowrank instance. It is a load and smoke-test tool, not part
// of the serving path.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/velure/glowrank/pkg/logger"
)

// Default configuration constants.
const (
	defaultVotes       = 1000
	defaultUsers       = 200
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultLikeRatio   = 0.3
	defaultTimeout     = 10 * time.Second
	defaultRunTimeout  = 5 * time.Minute
	healthCheckTimeout = 3 * time.Second
)

type stats struct {
	accepted   atomic.Int64
	duplicates atomic.Int64
	likes      atomic.Int64
	failures   atomic.Int64
}

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:8080", "Base URL of the service")
		votes     = flag.Int("votes", defaultVotes, "Number of votes to submit")
		users     = flag.Int("users", defaultUsers, "Size of the synthetic user pool")
		products  = flag.String("products", "", "Comma-separated product IDs to vote on (required)")
		category  = flag.String("category", "", "Category to fetch rankings for after the run")
		workers   = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		likeRatio = flag.Float64("likes", defaultLikeRatio, "Fraction of requests that toggle a like instead of voting")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed      = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	productIDs := splitIDs(*products)
	if len(productIDs) == 0 {
		os.Stderr.WriteString("at least one product ID is required; pass -products\n")
		os.Exit(1)
	}

	client := &http.Client{Timeout: *timeout}
	if err := checkHealth(ctx, client, *baseURL); err != nil {
		log.Error(ctx, "service health check failed", logger.Error(err))
		os.Exit(1)
	}

	log.Info(ctx, "starting vote generation",
		logger.String("baseURL", *baseURL),
		logger.Int("votes", *votes),
		logger.Int("users", *users),
		logger.Int("products", len(productIDs)),
		logger.Int("workers", *workers),
		logger.Int64("seed", *seed))

	st := &stats{}
	start := time.Now()
	run(ctx, client, *baseURL, productIDs, *votes, *users, *workers, *likeRatio, *seed, st)
	elapsed := time.Since(start)

	log.Info(ctx, "run complete",
		logger.Int64("accepted", st.accepted.Load()),
		logger.Int64("duplicates", st.duplicates.Load()),
		logger.Int64("likes", st.likes.Load()),
		logger.Int64("failures", st.failures.Load()),
		logger.Duration("elapsed", elapsed))

	if *category != "" {
		if err := printRankings(ctx, client, *baseURL, *category); err != nil {
			log.Warn(ctx, "failed to fetch rankings", logger.Error(err))
		}
	}
}

// run fans the request count out over a fixed worker pool. Each worker
// owns its own rand source so no locking is needed.
func run(ctx context.Context, client *http.Client, baseURL string, productIDs []string, total, users, workers int, likeRatio float64, seed int64, st *stats) {
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerSeed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(workerSeed))
			for range jobs {
				userID := fmt.Sprintf("user-%04d", rng.Intn(users))
				productID := productIDs[rng.Intn(len(productIDs))]
				if rng.Float64() < likeRatio {
					sendLike(ctx, client, baseURL, userID, productID, st)
				} else {
					sendVote(ctx, client, baseURL, userID, productID, st)
				}
			}
		}(seed + int64(w))
	}
	for i := 0; i < total; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		}
	}
	close(jobs)
	wg.Wait()
}

func sendVote(ctx context.Context, client *http.Client, baseURL, userID, productID string, st *stats) {
	body, _ := json.Marshal(map[string]string{"user_id": userID, "product_id": productID})
	resp, err := post(ctx, client, baseURL+"/votes", body)
	if err != nil {
		st.failures.Add(1)
		return
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusCreated:
		st.accepted.Add(1)
	case http.StatusConflict:
		st.duplicates.Add(1)
	default:
		st.failures.Add(1)
	}
}

func sendLike(ctx context.Context, client *http.Client, baseURL, userID, productID string, st *stats) {
	body, _ := json.Marshal(map[string]any{"user_id": userID, "product_id": productID, "liked": true})
	resp, err := post(ctx, client, baseURL+"/likes", body)
	if err != nil {
		st.failures.Add(1)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		st.likes.Add(1)
	} else {
		st.failures.Add(1)
	}
}

func post(ctx context.Context, client *http.Client, target string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return client.Do(req)
}

// checkHealth verifies the service is reachable before generating load.
func checkHealth(ctx context.Context, client *http.Client, baseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status %d", resp.StatusCode)
	}
	return nil
}

func printRankings(ctx context.Context, client *http.Client, baseURL, category string) error {
	target := baseURL + "/rankings?category=" + url.QueryEscape(category)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected rankings status %d", resp.StatusCode)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, readAll(resp), "", "  "); err != nil {
		return err
	}
	os.Stdout.WriteString(pretty.String() + "\n")
	return nil
}

func readAll(resp *http.Response) []byte {
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return buf.Bytes()
}

func splitIDs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

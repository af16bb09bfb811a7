package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"time"
)

type reading struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

type ingestResponse struct {
	Status     string `json:"status"`
	SnapshotID string `json:"snapshot_id"`
	Points     int    `json:"points"`
	Anomalies  int    `json:"anomalies"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run tools/simulate.go <url> [points] [spikes] [interval]")
		fmt.Println("Example: go run tools/simulate.go http://localhost:8080/readings 200 3 10s")
		os.Exit(1)
	}

	url := os.Args[1]
	points := 200
	spikes := 3
	interval := 10 * time.Second

	if len(os.Args) > 2 {
		fmt.Sscanf(os.Args[2], "%d", &points)
	}
	if len(os.Args) > 3 {
		fmt.Sscanf(os.Args[3], "%d", &spikes)
	}
	if len(os.Args) > 4 {
		d, err := time.ParseDuration(os.Args[4])
		if err == nil {
			interval = d
		}
	}

	fmt.Printf("Sensor Simulator Configuration:\n")
	fmt.Printf("  URL: %s\n", url)
	fmt.Printf("  Points per snapshot: %d\n", points)
	fmt.Printf("  Injected spikes: %d\n", spikes)
	fmt.Printf("  Interval: %v\n\n", interval)

	client := &http.Client{Timeout: 10 * time.Second}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	snapshots := 0
	for {
		snapshot := generateSnapshot(rng, points, spikes)

		body, err := json.Marshal(snapshot)
		if err != nil {
			fmt.Printf("marshal failed: %v\n", err)
			os.Exit(1)
		}

		resp, err := client.Post(url, "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Printf("POST failed: %v\n", err)
		} else {
			var result ingestResponse
			json.NewDecoder(resp.Body).Decode(&result)
			resp.Body.Close()
			snapshots++
			fmt.Printf("snapshot %d: status=%d points=%d anomalies=%d\n",
				snapshots, resp.StatusCode, result.Points, result.Anomalies)
		}

		time.Sleep(interval)
	}
}

// generateSnapshot синусоида с гауссовым шумом и редкими выбросами
func generateSnapshot(rng *rand.Rand, points, spikes int) []reading {
	start := time.Now().UTC().Add(-time.Duration(points) * time.Second)

	snapshot := make([]reading, points)
	for i := range snapshot {
		base := 50.0 + 10.0*math.Sin(float64(i)/20.0)
		noise := rng.NormFloat64() * 1.5
		snapshot[i] = reading{
			Timestamp: start.Add(time.Duration(i) * time.Second),
			Value:     base + noise,
		}
	}

	// выбросы не в первые точки, чтобы rate-детектору было с чем сравнивать
	for s := 0; s < spikes && points > 10; s++ {
		idx := 5 + rng.Intn(points-5)
		snapshot[idx].Value += 40.0 + rng.Float64()*20.0
	}

	return snapshot
}

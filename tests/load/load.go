package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

const (
	baseURL      = "http://localhost:8080"
	targetRPS    = 25
	testDuration = 2 * time.Minute
)

var rng *rand.Rand

type createTeamRequest struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

type createIssueRequest struct {
	TeamId string `json:"team_id"`
	Title  string `json:"title"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run load.go <scenario>")
		fmt.Println("Scenarios: health, issues, all")
		os.Exit(1)
	}

	scenario := os.Args[1]
	rng = rand.New(rand.NewSource(time.Now().UnixNano()))

	switch scenario {
	case "health":
		runHealthScenario()
	case "issues":
		runIssueScenario()
	case "all":
		runHealthScenario()
		runIssueScenario()
	default:
		fmt.Printf("unknown scenario: %s\n", scenario)
		os.Exit(1)
	}
}

func runHealthScenario() {
	fmt.Println("=== health scenario ===")

	targeter := vegeta.NewStaticTargeter(vegeta.Target{
		Method: http.MethodGet,
		URL:    baseURL + "/health",
	})

	attack(targeter, "health")
}

// runIssueScenario готовит команду и пользователя, затем бомбит
// создание и обновление issue. Это нагружает и аллокатор номеров:
// все запросы конкурируют за один счетчик.
func runIssueScenario() {
	fmt.Println("=== issue scenario ===")

	userId, teamId, err := seed()
	if err != nil {
		fmt.Printf("seed failed: %v\n", err)
		os.Exit(1)
	}

	targeter := func(tgt *vegeta.Target) error {
		body, err := json.Marshal(createIssueRequest{
			TeamId: teamId,
			Title:  fmt.Sprintf("load issue %d", rng.Int63()),
		})
		if err != nil {
			return err
		}

		tgt.Method = http.MethodPost
		tgt.URL = baseURL + "/api/v1/issues"
		tgt.Body = body
		tgt.Header = http.Header{
			"Content-Type": []string{"application/json"},
			"X-User-Id":    []string{userId},
		}
		return nil
	}

	attack(targeter, "issues")
}

func seed() (userId, teamId string, err error) {
	key := fmt.Sprintf("LD%d", rng.Intn(100))

	userId, err = post("/api/v1/users", map[string]string{"name": "load-user"}, "user")
	if err != nil {
		return "", "", err
	}

	teamId, err = post("/api/v1/teams", createTeamRequest{Name: "Load Team", Key: key}, "team")
	if err != nil {
		return "", "", err
	}

	memberBody, err := json.Marshal(map[string]string{"user_id": userId})
	if err != nil {
		return "", "", err
	}
	resp, err := http.Post(baseURL+"/api/v1/teams/"+teamId+"/members", "application/json",
		bytes.NewReader(memberBody))
	if err != nil {
		return "", "", err
	}
	resp.Body.Close()

	return userId, teamId, nil
}

func post(path string, payload any, wrapper string) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	resp, err := http.Post(baseURL+path, "application/json", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var decoded map[string]map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}

	entity, ok := decoded[wrapper]
	if !ok {
		return "", fmt.Errorf("unexpected response shape for %s", path)
	}
	id, _ := entity["id"].(string)
	if id == "" {
		return "", fmt.Errorf("no id in response for %s", path)
	}
	return id, nil
}

func attack(targeter vegeta.Targeter, name string) {
	rate := vegeta.Rate{Freq: targetRPS, Per: time.Second}
	attacker := vegeta.NewAttacker()

	var metrics vegeta.Metrics
	for res := range attacker.Attack(targeter, rate, testDuration, name) {
		metrics.Add(res)
	}
	metrics.Close()

	fmt.Printf("requests: %d\n", metrics.Requests)
	fmt.Printf("success rate: %.2f%%\n", metrics.Success*100)
	fmt.Printf("p50: %s, p95: %s, p99: %s\n",
		metrics.Latencies.P50, metrics.Latencies.P95, metrics.Latencies.P99)
	fmt.Printf("status codes: %v\n", metrics.StatusCodes)
}

// Command admission_smoke fires concurrent enrollment requests at a
// running server and reports the outcome distribution. Useful for
// checking that a lecture never oversells under contention.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"
)

type outcome struct {
	Status int
	Code   string
}

type errorBody struct {
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

func main() {
	baseURL := flag.String("base", "http://localhost:8080", "server base URL")
	token := flag.String("token", "", "staff bearer token")
	academyID := flag.String("academy", "", "academy id")
	lectureID := flag.String("lecture", "", "lecture id")
	studentPrefix := flag.String("student-prefix", "smoke-student-", "student id prefix; suffixed with the worker index")
	workers := flag.Int("n", 20, "concurrent enrollment attempts")
	timeout := flag.Duration("timeout", 10*time.Second, "per-request timeout")
	flag.Parse()

	if *token == "" || *academyID == "" || *lectureID == "" {
		flag.Usage()
		os.Exit(2)
	}

	client := &http.Client{Timeout: *timeout}
	url := fmt.Sprintf("%s/api/v1/academies/%s/lectures/%s/enrollments", *baseURL, *academyID, *lectureID)

	results := make([]outcome, *workers)
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			payload, _ := json.Marshal(map[string]string{
				"student_id": fmt.Sprintf("%s%d", *studentPrefix, idx),
				"memo":       "smoke",
			})
			req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
			if err != nil {
				log.Printf("worker %d: %v", idx, err)
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+*token)

			resp, err := client.Do(req)
			if err != nil {
				log.Printf("worker %d: %v", idx, err)
				return
			}
			defer resp.Body.Close()

			var body errorBody
			_ = json.NewDecoder(resp.Body).Decode(&body)
			results[idx] = outcome{Status: resp.StatusCode, Code: body.Error.Code}
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	counts := map[string]int{}
	for _, r := range results {
		key := fmt.Sprintf("%d", r.Status)
		if r.Code != "" {
			key = fmt.Sprintf("%d %s", r.Status, r.Code)
		}
		counts[key]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("%d attempts in %s\n", *workers, elapsed.Round(time.Millisecond))
	for _, k := range keys {
		fmt.Printf("  %-40s %d\n", k, counts[k])
	}
}

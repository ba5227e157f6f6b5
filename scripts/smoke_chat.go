package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"contact-assistant-be/internal/dto"
	"contact-assistant-be/internal/pkg/serverutils"

	"github.com/fatih/color"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

// Manual end-to-end check against a running server seeded by cmd/seed.
//
//	go run ./scripts
func main() {
	_ = godotenv.Load()

	baseURL := getEnv("SMOKE_BASE_URL", "http://localhost:3000/api")
	token, err := mintToken(os.Getenv("JWT_SECRET"), os.Getenv("SEED_USER_ID"))
	if err != nil {
		color.Red("Cannot build token: %v", err)
		os.Exit(1)
	}
	c := &client{baseURL: baseURL, token: token, http: &http.Client{Timeout: 2 * time.Minute}}

	color.Cyan("\n=== 1. Create thread ===")
	var thread serverutils.Response[dto.ThreadResponse]
	if !c.do("POST", "/chat/v1/threads", nil, &thread) {
		os.Exit(1)
	}
	color.Green("thread %s", thread.Data.Id)

	color.Cyan("\n=== 2. Ask about a contact ===")
	question := getEnv("SMOKE_QUESTION", "When did I last meet John and what did we discuss?")
	req := dto.SendMessageRequest{
		Content:  question,
		Mentions: []dto.MentionDTO{{Email: getEnv("SMOKE_CONTACT_EMAIL", "john@example.com"), Name: "John Doe"}},
	}
	var sent serverutils.Response[dto.SendMessageResponse]
	if !c.do("POST", "/chat/v1/threads/"+thread.Data.Id.String()+"/messages", req, &sent) {
		os.Exit(1)
	}
	color.Yellow("tier: %s, title pending: %v", sent.Data.EvidenceTier, sent.Data.TitlePending)
	fmt.Println(sent.Data.Reply.Content)
	for _, ref := range sent.Data.Reply.MeetingRefs {
		fmt.Printf("  ref #%d %s (%s)\n", ref.MeetingId, ref.Title, ref.Date)
	}
	for _, cit := range sent.Data.Reply.Citations {
		if cit.InRefs {
			color.Green("  cited [%s] -> meeting %d", cit.Label, cit.MeetingId)
		} else {
			color.Red("  cited [%s] -> meeting %d which was not in context", cit.Label, cit.MeetingId)
		}
	}

	if !sent.Data.TitlePending {
		return
	}
	color.Cyan("\n=== 3. Wait for title ===")
	deadline := time.Now().Add(45 * time.Second)
	for time.Now().Before(deadline) {
		var threads serverutils.Response[[]dto.ThreadResponse]
		if !c.do("GET", "/chat/v1/threads", nil, &threads) {
			os.Exit(1)
		}
		for _, t := range threads.Data {
			if t.Id == thread.Data.Id && t.Title != nil {
				color.Green("title: %s", *t.Title)
				return
			}
		}
		time.Sleep(time.Second)
	}
	color.Red("title did not arrive")
	os.Exit(1)
}

type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func (c *client) do(method, path string, body, out interface{}) bool {
	var bodyReader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		color.Red("%v", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		color.Red("%s %s failed: %v", method, path, err)
		return false
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		color.Red("%s %s -> %d: %s", method, path, resp.StatusCode, raw)
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		color.Red("decode %s: %v", path, err)
		return false
	}
	return true
}

func mintToken(secret, userId string) (string, error) {
	if secret == "" || userId == "" {
		return "", fmt.Errorf("JWT_SECRET and SEED_USER_ID are required")
	}
	claims := jwt.MapClaims{
		"user_id": userId,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

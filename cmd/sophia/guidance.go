package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	goutils "github.com/jkaninda/go-utils"
)

// Exit codes for the guidance command.
const (
	ExitSuccess            = 0
	ExitFailure            = 1
	ExitDenied             = 2
	ExitGatewayUnavailable = 3
)

var (
	guidanceQuestion   string
	guidanceDomain     string
	guidanceGatewayURL string
	guidanceAPIKey     string
	guidanceTimeout    int
)

var guidanceCmd = &cobra.Command{
	Use:   "guidance",
	Short: "Request one-shot guidance from a running gateway",
	Long: `Send a question to the Sophia gateway and print the insight.
The response reflects the seeker's current consciousness state; the same
question phrased differently may surface a different sacred reference.

Examples:
  sophia guidance -m "How do I find stillness in conflict?"
  sophia guidance -m "What should I release?" --domain healing

Exit codes:
  0  success
  1  execution failure
  2  unauthorized or rate limited
  3  gateway unavailable`,
	RunE: runGuidance,
}

func init() {
	guidanceCmd.Flags().StringVarP(&guidanceQuestion, "question", "m", "", "question to ask (required)")
	guidanceCmd.Flags().StringVar(&guidanceDomain, "domain", "", "spiritual domain (wisdom, love, healing, purpose, protection, manifestation, transformation)")
	guidanceCmd.Flags().StringVar(&guidanceGatewayURL, "gateway-url", "http://localhost:8080", "gateway HTTP API URL")
	guidanceCmd.Flags().StringVar(&guidanceAPIKey, "api-key", "", "API key for gateway authentication (or SOPHIA_API_KEY env)")
	guidanceCmd.Flags().IntVar(&guidanceTimeout, "timeout", 30, "timeout in seconds")

	_ = guidanceCmd.MarkFlagRequired("question")
}

func runGuidance(_ *cobra.Command, _ []string) error {
	if guidanceQuestion == "" {
		return fmt.Errorf("question is required: use -m flag")
	}

	// Resolve API key and gateway URL from flag or env.
	apiKey := goutils.Env("SOPHIA_API_KEY", guidanceAPIKey)
	gatewayURL := goutils.Env("SOPHIA_GATEWAY_URL", guidanceGatewayURL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(guidanceTimeout)*time.Second)
	defer cancel()

	reqBody, _ := json.Marshal(map[string]any{
		"question": guidanceQuestion,
		"domain":   guidanceDomain,
	})

	req, err := http.NewRequestWithContext(ctx, "POST", gatewayURL+"/v1/guidance", bytes.NewReader(reqBody))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitFailure)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach gateway at %s: %v\n", gatewayURL, err)
		os.Exit(ExitGatewayUnavailable)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		var result struct {
			SeekerID string `json:"seeker_id"`
			Insight  struct {
				Message         string  `json:"message"`
				Domain          string  `json:"domain"`
				Confidence      float64 `json:"confidence"`
				GuidanceType    string  `json:"guidance_type"`
				SacredReference string  `json:"sacred_reference"`
			} `json:"insight"`
		}
		_ = json.Unmarshal(respBody, &result)
		fmt.Println(result.Insight.Message)
		if result.Insight.SacredReference != "" {
			fmt.Fprintf(os.Stderr, "\n  %s\n", result.Insight.SacredReference)
		}
		fmt.Fprintf(os.Stderr, "\n[domain=%s type=%s confidence=%.2f]\n",
			result.Insight.Domain, result.Insight.GuidanceType, result.Insight.Confidence)
		os.Exit(ExitSuccess)

	case http.StatusUnauthorized:
		fmt.Fprintln(os.Stderr, "Error: unauthorized (check API key)")
		os.Exit(ExitDenied)

	case http.StatusTooManyRequests:
		fmt.Fprintln(os.Stderr, "Error: rate limited, try again later")
		os.Exit(ExitDenied)

	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		fmt.Fprintf(os.Stderr, "Error: gateway unavailable (%d)\n", resp.StatusCode)
		os.Exit(ExitGatewayUnavailable)

	default:
		fmt.Fprintf(os.Stderr, "Error: gateway returned %d: %s\n", resp.StatusCode, string(respBody))
		os.Exit(ExitFailure)
	}

	return nil
}

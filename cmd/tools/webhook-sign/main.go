// Package main implements the webhook-sign CLI tool, which produces a signed
// Standard Webhooks delivery for a payload file and optionally posts it to a
// running gateway.
//
// Usage:
//
//	go run ./cmd/tools/webhook-sign --payload=event.json
//	go run ./cmd/tools/webhook-sign --payload=event.json --send=http://localhost:8080/polar/webhooks
//	go run ./cmd/tools/webhook-sign --payload=event.json --id=msg_1 --timestamp=1700000000
//
// The signing secret is read from --secret or POLAR_WEBHOOK_SECRET (the
// environment or a .env file via godotenv). Outside APP_ENV=local a
// POLAR_WEBHOOK_SECRET_SSM_PARAM pointer is resolved through SSM first.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"storefront/internal/config"
	"storefront/internal/webhook"
)

// delivery is one signed webhook request.
type delivery struct {
	ID        string
	Timestamp string
	Signature string
	Body      []byte
}

// headers returns the delivery headers in send order.
func (d delivery) headers() [][2]string {
	return [][2]string{
		{"webhook-id", d.ID},
		{"webhook-timestamp", d.Timestamp},
		{"webhook-signature", d.Signature},
	}
}

func main() {
	if err := run(os.Args[1:], os.Stdout, ssmProvider()); err != nil {
		fmt.Fprintf(os.Stderr, "webhook-sign: %v\n", err)
		os.Exit(1)
	}
}

// ssmProvider returns the SSM-backed provider for _SSM_PARAM pointers. The
// client is created lazily, so no AWS call happens without a pointer.
func ssmProvider() config.SecretProvider {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-1"
	}
	var opts []config.SSMOption
	if endpoint := os.Getenv("AWS_ENDPOINT_URL"); endpoint != "" {
		opts = append(opts, config.WithSSMEndpoint(endpoint))
	}
	return config.NewSSMProvider(region, opts...)
}

func run(args []string, out io.Writer, provider config.SecretProvider) error {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("webhook-sign", flag.ContinueOnError)
	payloadPath := fs.String("payload", "", "path to the JSON payload file (required)")
	secret := fs.String("secret", "", "signing secret (defaults to POLAR_WEBHOOK_SECRET)")
	id := fs.String("id", "", "delivery id (defaults to a random msg_ id)")
	timestamp := fs.String("timestamp", "", "unix timestamp in seconds (defaults to now)")
	sendURL := fs.String("send", "", "POST the signed delivery to this URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *payloadPath == "" {
		return fmt.Errorf("--payload is required")
	}
	if *secret == "" {
		if err := config.ResolveSecrets(provider); err != nil {
			return fmt.Errorf("resolving secrets: %w", err)
		}
		*secret = os.Getenv("POLAR_WEBHOOK_SECRET")
	}
	if *secret == "" {
		return fmt.Errorf("no signing secret: set --secret or POLAR_WEBHOOK_SECRET")
	}

	body, err := os.ReadFile(*payloadPath)
	if err != nil {
		return fmt.Errorf("reading payload: %w", err)
	}

	d := sign(body, *id, *timestamp, *secret, time.Now())

	if *sendURL == "" {
		for _, h := range d.headers() {
			fmt.Fprintf(out, "%s: %s\n", h[0], h[1])
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	status, respBody, err := send(ctx, http.DefaultClient, *sendURL, d)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d\n%s\n", status, respBody)
	return nil
}

// sign fills in a default id and timestamp and signs body.
func sign(body []byte, id, timestamp, secret string, now time.Time) delivery {
	if id == "" {
		id = "msg_" + uuid.NewString()
	}
	if timestamp == "" {
		timestamp = strconv.FormatInt(now.Unix(), 10)
	}
	return delivery{
		ID:        id,
		Timestamp: timestamp,
		Signature: webhook.Sign(body, id, timestamp, secret),
		Body:      body,
	}
}

func send(ctx context.Context, client *http.Client, url string, d delivery) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(d.Body))
	if err != nil {
		return 0, nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for _, h := range d.headers() {
		req.Header.Set(h[0], h[1])
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("sending delivery: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// Package publisher ships rendered pages to the external deploy hook.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	appErr "github.com/site-studio/engine/pkg/errors"
)

// Artifact is one rendered page ready for delivery.
type Artifact struct {
	ProjectSlug  string `json:"projectSlug"`
	PageSlug     string `json:"pageSlug"`
	PageTitle    string `json:"pageTitle"`
	RevisionID   string `json:"revisionId"`
	ApprovalNote string `json:"approvalNote,omitempty"`
	FilePath     string `json:"filePath"`
	FileContent  string `json:"fileContent"`
}

// Receipt is what the hook reports back.
type Receipt struct {
	CommitSHA string   `json:"commitSha"`
	Paths     []string `json:"paths"`
}

// Publisher delivers an artifact.
type Publisher interface {
	Publish(ctx context.Context, a Artifact) (*Receipt, error)
	Configured() bool
}

// ArtifactPath is where a page's HTML lands in the target repository.
func ArtifactPath(pageSlug string) string {
	return fmt.Sprintf("pages/generated/%s.html", pageSlug)
}

// WebhookPublisher posts artifacts to an HTTP hook.
type WebhookPublisher struct {
	url     string
	token   string
	http    *http.Client
	breaker *appErr.Breaker
}

func NewWebhookPublisher(url, token string, timeout time.Duration) *WebhookPublisher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebhookPublisher{
		url:     url,
		token:   token,
		http:    &http.Client{Timeout: timeout},
		breaker: appErr.NewBreaker(appErr.DefaultBreakerConfig("publish-webhook")),
	}
}

var _ Publisher = (*WebhookPublisher)(nil)

func (p *WebhookPublisher) Configured() bool { return p.url != "" }

func (p *WebhookPublisher) Publish(ctx context.Context, a Artifact) (*Receipt, error) {
	if !p.Configured() {
		return nil, appErr.New(appErr.CodeUnavailable, "Publish webhook is not configured.")
	}
	body, err := json.Marshal(a)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInvalid, "encode publish payload")
	}

	var receipt Receipt
	err = p.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
		if err != nil {
			return appErr.Wrap(err, appErr.CodeInvalid, "build publish request")
		}
		req.Header.Set("Content-Type", "application/json")
		if p.token != "" {
			req.Header.Set("Authorization", "Bearer "+p.token)
		}
		resp, err := p.http.Do(req)
		if err != nil {
			return appErr.Wrap(err, appErr.CodeUnavailable, "publish webhook unreachable")
		}
		defer resp.Body.Close()

		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return appErr.New(appErr.CodeUnavailable, fmt.Sprintf("Publish webhook failed with status %d.", resp.StatusCode))
		}
		// An empty or non-JSON body is still a successful delivery.
		_ = json.Unmarshal(raw, &receipt)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(receipt.Paths) == 0 {
		receipt.Paths = []string{a.FilePath}
	}
	return &receipt, nil
}

package stores

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nupi-ai/webstore-publish/internal/browser"
	"github.com/nupi-ai/webstore-publish/internal/bundle"
	"github.com/nupi-ai/webstore-publish/internal/diag"
)

const iteroDefaultBaseURL = "https://itero.plasmo.com"

// Itero submits builds to the Itero TestBed preview channel.
type Itero struct {
	base
}

// NewItero returns the Itero TestBed client.
func NewItero(cfg Config) *Itero {
	return &Itero{base: newBase(browser.Itero, iteroDefaultBaseURL, cfg)}
}

func (c *Itero) Required() map[string]string {
	return map[string]string{
		"token": "No token provided",
	}
}

func (c *Itero) ExtensionID(opts browser.Options) string {
	return opts.String("extId")
}

type iteroReply struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Submit uploads the bundle with its SHA-256. A reply with success=false
// is a decline, not an error: the build was already known to the channel.
func (c *Itero) Submit(ctx context.Context, opts browser.Options, log *diag.Logger) (bool, error) {
	digest, err := bundle.Digest(opts.Bundle())
	if err != nil {
		return false, fmt.Errorf("hash bundle: %w", err)
	}

	s := newSession(opts, log)
	token := opts.String("token")
	s.auth = func(req *http.Request) error {
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	}

	fields := map[string]string{"hash": digest}
	if id := opts.String("extId"); id != "" {
		fields["extensionId"] = id
	}
	body, contentType, err := multipartForm(fields, map[string]string{"file": opts.Bundle()})
	if err != nil {
		return false, fmt.Errorf("build upload: %w", err)
	}

	var reply iteroReply
	resp, err := c.send(ctx, s, outgoing{
		method:      http.MethodPost,
		path:        "/api/submit",
		body:        body,
		size:        int64(body.Len()),
		contentType: contentType,
	})
	if err != nil {
		return false, fmt.Errorf("upload: %w", err)
	}
	if err := decodeJSON(resp.body, &reply); err != nil {
		return false, fmt.Errorf("upload: %w", err)
	}
	if !reply.Success {
		log.Log("Declined: %s", reply.Message)
		return false, nil
	}
	log.Log("Submitted build %s", digest[:12])
	return true, nil
}

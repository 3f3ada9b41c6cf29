package stores

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/nupi-ai/webstore-publish/internal/browser"
	"github.com/nupi-ai/webstore-publish/internal/constants"
	"github.com/nupi-ai/webstore-publish/internal/diag"
	"github.com/nupi-ai/webstore-publish/internal/tlswarn"
	"github.com/nupi-ai/webstore-publish/internal/validate"
)

const (
	edgeDefaultBaseURL = "https://api.addons.microsoftedge.microsoft.com"
	edgeTokenScope     = "https://api.addons.microsoftedge.microsoft.com/.default"
)

// Edge publishes to Microsoft Edge Add-ons. API key authentication (v1.1)
// is preferred; a client secret with an access token URL selects the
// legacy OAuth client-credentials flow.
type Edge struct {
	base
}

// NewEdge returns the Edge Add-ons client.
func NewEdge(cfg Config) *Edge {
	return &Edge{base: newBase(browser.Edge, edgeDefaultBaseURL, cfg)}
}

func (c *Edge) Required() map[string]string {
	return map[string]string{
		"productId": "No product ID provided",
		"clientId":  "No client ID provided",
	}
}

func (c *Edge) ExtensionID(opts browser.Options) string {
	return opts.String("productId")
}

type edgeOperation struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
	Errors    []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (op *edgeOperation) errorSummary() string {
	parts := []string{}
	if op.ErrorCode != "" {
		parts = append(parts, op.ErrorCode)
	}
	if op.Message != "" {
		parts = append(parts, op.Message)
	}
	for _, e := range op.Errors {
		parts = append(parts, e.Message)
	}
	return strings.Join(parts, "; ")
}

func (c *Edge) Submit(ctx context.Context, opts browser.Options, log *diag.Logger) (bool, error) {
	productID := opts.String("productId")
	if err := validate.ProductID(productID); err != nil {
		return false, err
	}

	s := newSession(opts, log)
	if err := c.authorize(ctx, s, opts); err != nil {
		return false, err
	}

	product := "/v1/products/" + url.PathEscape(productID)

	f, size, err := fileBody(opts.Bundle())
	if err != nil {
		return false, fmt.Errorf("open bundle: %w", err)
	}
	defer f.Close()

	resp, err := c.send(ctx, s, outgoing{
		method:      http.MethodPost,
		path:        product + "/submissions/draft/package",
		body:        f,
		size:        size,
		contentType: "application/zip",
	})
	if err != nil {
		return false, fmt.Errorf("upload: %w", err)
	}
	opID, err := operationID(resp)
	if err != nil {
		return false, fmt.Errorf("upload: %w", err)
	}
	log.Log("Uploaded package, operation %s", opID)

	if err := c.waitOperation(ctx, s, product+"/submissions/draft/package/operations/"+url.PathEscape(opID), "package processing"); err != nil {
		return false, fmt.Errorf("upload: %w", err)
	}
	log.Log("Package processed")

	if opts.Bool("uploadOnly") {
		log.Log("Upload only, skipping publish")
		return true, nil
	}

	payload := map[string]string{}
	if notes := opts.String(constants.OptionNotes); notes != "" {
		payload["notes"] = notes
	}
	resp, err = c.sendJSON(ctx, s, http.MethodPost, product+"/submissions", payload, nil)
	if err != nil {
		return false, fmt.Errorf("publish: %w", err)
	}
	opID, err = operationID(resp)
	if err != nil {
		return false, fmt.Errorf("publish: %w", err)
	}
	if err := c.waitOperation(ctx, s, product+"/submissions/operations/"+url.PathEscape(opID), "publish"); err != nil {
		return false, fmt.Errorf("publish: %w", err)
	}
	log.Log("Submitted for review")
	return true, nil
}

func (c *Edge) authorize(ctx context.Context, s *session, opts browser.Options) error {
	clientID := opts.String("clientId")
	if apiKey := opts.String("apiKey"); apiKey != "" {
		s.auth = func(req *http.Request) error {
			req.Header.Set("Authorization", "ApiKey "+apiKey)
			req.Header.Set("X-ClientID", clientID)
			return nil
		}
		return nil
	}

	secret, tokenURL := opts.String("clientSecret"), opts.String("accessTokenUrl")
	if secret == "" || tokenURL == "" {
		return fmt.Errorf("no API key provided (or client secret with access token URL)")
	}
	if err := validate.HTTPURL(tokenURL); err != nil {
		return fmt.Errorf("invalid access token URL: %w", err)
	}
	tlswarn.LogPlaintext(tokenURL)
	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: secret,
		TokenURL:     tokenURL,
		Scopes:       []string{edgeTokenScope},
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	token, err := conf.Token(context.WithValue(ctx, oauth2.HTTPClient, c.http))
	if err != nil {
		return tokenError(c.store, tokenURL, err, opts.Secrets())
	}
	s.addSecret(token.AccessToken)
	s.auth = func(req *http.Request) error {
		token.SetAuthHeader(req)
		return nil
	}
	s.log.Log("Obtained access token")
	return nil
}

// waitOperation polls an Edge operation until it leaves InProgress.
func (c *Edge) waitOperation(ctx context.Context, s *session, opPath, what string) error {
	return c.poll(ctx, what, func() error {
		var op edgeOperation
		if _, err := c.sendJSON(ctx, s, http.MethodGet, opPath, nil, &op); err != nil {
			return err
		}
		switch op.Status {
		case "Succeeded":
			return nil
		case "InProgress", "":
			return errPending
		default:
			return rejected("%s %s: %s", what, strings.ToLower(op.Status), op.errorSummary())
		}
	})
}

// operationID extracts the operation ID from a 202 reply's Location header.
func operationID(resp *response) (string, error) {
	loc := strings.TrimSpace(resp.header.Get("Location"))
	if loc == "" {
		return "", fmt.Errorf("store returned HTTP %d without an operation location", resp.status)
	}
	return path.Base(loc), nil
}

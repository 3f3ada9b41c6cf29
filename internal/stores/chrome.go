package stores

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/nupi-ai/webstore-publish/internal/browser"
	"github.com/nupi-ai/webstore-publish/internal/diag"
	"github.com/nupi-ai/webstore-publish/internal/sanitize"
	"github.com/nupi-ai/webstore-publish/internal/validate"
)

const (
	chromeDefaultBaseURL  = "https://www.googleapis.com"
	chromeDefaultTokenURL = "https://oauth2.googleapis.com/token"

	chromeTargetDefault        = "default"
	chromeTargetTrustedTesters = "trustedTesters"
)

// Chrome publishes to the Chrome Web Store (API v1.1) using an OAuth
// refresh token.
type Chrome struct {
	base
	tokenURL string
}

// NewChrome returns the Chrome Web Store client.
func NewChrome(cfg Config) *Chrome {
	c := &Chrome{base: newBase(browser.Chrome, chromeDefaultBaseURL, cfg), tokenURL: chromeDefaultTokenURL}
	if cfg.TokenURL != "" {
		c.tokenURL = cfg.TokenURL
	}
	return c
}

func (c *Chrome) Required() map[string]string {
	return map[string]string{
		"extId":        "No extension ID provided",
		"clientId":     "No client ID provided",
		"refreshToken": "No refresh token provided",
	}
}

func (c *Chrome) ExtensionID(opts browser.Options) string {
	return opts.String("extId")
}

type chromeItem struct {
	ID          string `json:"id"`
	UploadState string `json:"uploadState"`
	ItemError   []struct {
		ErrorCode   string `json:"error_code"`
		ErrorDetail string `json:"error_detail"`
	} `json:"itemError"`
}

func (it *chromeItem) errorSummary() string {
	parts := make([]string, 0, len(it.ItemError))
	for _, e := range it.ItemError {
		parts = append(parts, fmt.Sprintf("%s: %s", e.ErrorCode, e.ErrorDetail))
	}
	return strings.Join(parts, "; ")
}

type chromePublish struct {
	Status       []string `json:"status"`
	StatusDetail []string `json:"statusDetail"`
}

func (c *Chrome) Submit(ctx context.Context, opts browser.Options, log *diag.Logger) (bool, error) {
	extID := opts.String("extId")
	if err := validate.ChromeID(extID); err != nil {
		return false, err
	}
	target := opts.String("target")
	switch target {
	case "":
		target = chromeTargetDefault
	case chromeTargetDefault, chromeTargetTrustedTesters:
	default:
		return false, fmt.Errorf("unknown publish target %q (want %s or %s)", target, chromeTargetDefault, chromeTargetTrustedTesters)
	}

	s := newSession(opts, log)
	token, err := c.accessToken(ctx, opts)
	if err != nil {
		return false, err
	}
	s.addSecret(token.AccessToken)
	s.auth = func(req *http.Request) error {
		token.SetAuthHeader(req)
		req.Header.Set("x-goog-api-version", "2")
		return nil
	}
	log.Log("Obtained access token")

	f, size, err := fileBody(opts.Bundle())
	if err != nil {
		return false, fmt.Errorf("open bundle: %w", err)
	}
	defer f.Close()

	var item chromeItem
	resp, err := c.send(ctx, s, outgoing{
		method:      http.MethodPut,
		path:        "/upload/chromewebstore/v1.1/items/" + url.PathEscape(extID) + "?uploadType=media",
		body:        f,
		size:        size,
		contentType: "application/zip",
	})
	if err != nil {
		return false, fmt.Errorf("upload: %w", err)
	}
	if err := decodeJSON(resp.body, &item); err != nil {
		return false, fmt.Errorf("upload: %w", err)
	}

	if item.UploadState == "IN_PROGRESS" {
		log.Log("Upload is being processed")
		err := c.poll(ctx, "upload processing", func() error {
			item = chromeItem{}
			if _, err := c.sendJSON(ctx, s, http.MethodGet,
				"/chromewebstore/v1.1/items/"+url.PathEscape(extID)+"?projection=DRAFT", nil, &item); err != nil {
				return err
			}
			if item.UploadState == "IN_PROGRESS" {
				return errPending
			}
			return nil
		})
		if err != nil {
			return false, fmt.Errorf("upload: %w", err)
		}
	}
	if item.UploadState != "SUCCESS" {
		return false, rejected("upload state %s: %s", item.UploadState, item.errorSummary())
	}
	log.Log("Uploaded bundle (%d bytes)", size)

	if opts.Bool("uploadOnly") {
		log.Log("Upload only, skipping publish")
		return true, nil
	}

	var pub chromePublish
	if _, err := c.sendJSON(ctx, s, http.MethodPost,
		"/chromewebstore/v1.1/items/"+url.PathEscape(extID)+"/publish?publishTarget="+url.QueryEscape(target), nil, &pub); err != nil {
		return false, fmt.Errorf("publish: %w", err)
	}
	for _, st := range pub.Status {
		if st == "OK" || st == "ITEM_PENDING_REVIEW" {
			log.Log("Published to %s (%s)", target, st)
			return true, nil
		}
	}
	return false, rejected("publish status %s: %s", strings.Join(pub.Status, ","), strings.Join(pub.StatusDetail, "; "))
}

// accessToken exchanges the refresh token for an access token.
func (c *Chrome) accessToken(ctx context.Context, opts browser.Options) (*oauth2.Token, error) {
	conf := &oauth2.Config{
		ClientID:     opts.String("clientId"),
		ClientSecret: opts.String("clientSecret"),
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: opts.String("refreshToken")}).Token()
	if err != nil {
		return nil, tokenError(c.store, c.tokenURL, err, opts.Secrets())
	}
	return token, nil
}

// tokenError turns an OAuth retrieve failure into an *APIError so the
// token endpoint's answer reaches the failure report.
func tokenError(store browser.ID, tokenURL string, err error, secrets []string) error {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) && rErr.Response != nil {
		return fmt.Errorf("fetch access token: %w", &APIError{
			Store:      store,
			Method:     http.MethodPost,
			URL:        tokenURL,
			StatusCode: rErr.Response.StatusCode,
			Body:       sanitize.ForLog(strings.TrimSpace(string(rErr.Body)), errorBodyLimit, secrets...),
		})
	}
	return fmt.Errorf("fetch access token: %w", err)
}

package stores

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nupi-ai/webstore-publish/internal/browser"
	"github.com/nupi-ai/webstore-publish/internal/bundle"
	"github.com/nupi-ai/webstore-publish/internal/constants"
	"github.com/nupi-ai/webstore-publish/internal/diag"
	"github.com/nupi-ai/webstore-publish/internal/validate"
)

const firefoxDefaultBaseURL = "https://addons.mozilla.org"

// Firefox publishes to addons.mozilla.org (API v5) with JWT credentials.
type Firefox struct {
	base
	now func() time.Time
}

// NewFirefox returns the AMO client.
func NewFirefox(cfg Config) *Firefox {
	return &Firefox{base: newBase(browser.Firefox, firefoxDefaultBaseURL, cfg), now: time.Now}
}

func (c *Firefox) Required() map[string]string {
	return map[string]string{
		"extId":     "No extension ID provided",
		"apiKey":    "No API key provided",
		"apiSecret": "No API secret provided",
	}
}

func (c *Firefox) ExtensionID(opts browser.Options) string {
	return opts.String("extId")
}

type amoUpload struct {
	UUID       string `json:"uuid"`
	Processed  bool   `json:"processed"`
	Valid      bool   `json:"valid"`
	Validation struct {
		Errors   int `json:"errors"`
		Messages []struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"messages"`
	} `json:"validation"`
}

func (u *amoUpload) errorSummary() string {
	var parts []string
	for _, m := range u.Validation.Messages {
		if m.Type == "error" {
			parts = append(parts, m.Message)
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%d validation error(s)", u.Validation.Errors)
	}
	return strings.Join(parts, "; ")
}

type amoVersion struct {
	ID      int64  `json:"id"`
	Version string `json:"version"`
}

func (c *Firefox) Submit(ctx context.Context, opts browser.Options, log *diag.Logger) (bool, error) {
	extID := opts.String("extId")
	if err := validate.AddonID(extID); err != nil {
		return false, err
	}
	channel := opts.String("channel")
	switch channel {
	case "":
		channel = "listed"
	case "listed", "unlisted":
	default:
		return false, fmt.Errorf("unknown channel %q (want listed or unlisted)", channel)
	}
	if m, err := bundle.ReadManifest(opts.Bundle()); err == nil {
		if gecko := m.GeckoID(); gecko != "" && gecko != extID {
			return false, fmt.Errorf("manifest add-on ID %q does not match extId %q", gecko, extID)
		}
	}
	sourceZip := opts.String("sourceZip")
	if sourceZip != "" {
		if _, err := os.Stat(sourceZip); err != nil {
			return false, fmt.Errorf("source archive: %w", err)
		}
	}

	s := newSession(opts, log)
	issuer, secret := opts.String("apiKey"), opts.String("apiSecret")
	s.auth = func(req *http.Request) error {
		token, err := c.signJWT(issuer, secret)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "JWT "+token)
		return nil
	}

	body, contentType, err := multipartForm(
		map[string]string{"channel": channel},
		map[string]string{"upload": opts.Bundle()},
	)
	if err != nil {
		return false, fmt.Errorf("build upload: %w", err)
	}
	var upload amoUpload
	resp, err := c.send(ctx, s, outgoing{
		method:      http.MethodPost,
		path:        "/api/v5/addons/upload/",
		body:        body,
		size:        int64(body.Len()),
		contentType: contentType,
	})
	if err != nil {
		return false, fmt.Errorf("upload: %w", err)
	}
	if err := decodeJSON(resp.body, &upload); err != nil {
		return false, fmt.Errorf("upload: %w", err)
	}
	log.Log("Uploaded bundle as %s, waiting for validation", upload.UUID)

	if !upload.Processed {
		err := c.poll(ctx, "add-on validation", func() error {
			upload = amoUpload{UUID: upload.UUID}
			if _, err := c.sendJSON(ctx, s, http.MethodGet,
				"/api/v5/addons/upload/"+url.PathEscape(upload.UUID)+"/", nil, &upload); err != nil {
				return err
			}
			if !upload.Processed {
				return errPending
			}
			return nil
		})
		if err != nil {
			return false, fmt.Errorf("validation: %w", err)
		}
	}
	if !upload.Valid {
		return false, rejected("validation failed: %s", upload.errorSummary())
	}
	log.Log("Validation passed")

	payload := map[string]any{"upload": upload.UUID}
	if notes := opts.String(constants.OptionNotes); notes != "" {
		payload["release_notes"] = map[string]string{"en-US": notes}
	}
	var created amoVersion
	versionsPath := "/api/v5/addons/addon/" + url.PathEscape(extID) + "/versions/"
	if _, err := c.sendJSON(ctx, s, http.MethodPost, versionsPath, payload, &created); err != nil {
		return false, fmt.Errorf("create version: %w", err)
	}
	log.Log("Created version %s (%d) on the %s channel", created.Version, created.ID, channel)

	if sourceZip != "" {
		body, contentType, err := multipartForm(nil, map[string]string{"source": sourceZip})
		if err != nil {
			return false, fmt.Errorf("build source upload: %w", err)
		}
		if _, err := c.send(ctx, s, outgoing{
			method:      http.MethodPatch,
			path:        fmt.Sprintf("%s%d/", versionsPath, created.ID),
			body:        body,
			size:        int64(body.Len()),
			contentType: contentType,
		}); err != nil {
			return false, fmt.Errorf("upload source: %w", err)
		}
		log.Log("Attached source archive")
	}
	return true, nil
}

// signJWT builds the short-lived HS256 token AMO expects: issuer is the API
// key, every token carries a fresh nonce.
func (c *Firefox) signJWT(issuer, secret string) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(constants.FirefoxJWTLifetime)),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign JWT: %w", err)
	}
	return signed, nil
}

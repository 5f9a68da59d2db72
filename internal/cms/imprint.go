package cms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// DefaultImprintURL is the shared imprint service of the hosting institute.
const DefaultImprintURL = "https://imprint.acdh.oeaw.ac.at"

// Imprint fetches the legal notice for a registered service as an HTML
// fragment.
type Imprint struct {
	BaseURL    string
	ServiceID  int
	HTTPClient *http.Client
}

// Enabled reports whether a service is configured.
func (i *Imprint) Enabled() bool {
	return i != nil && i.ServiceID > 0
}

// URL returns the imprint endpoint for locale.
func (i *Imprint) URL(locale string) (string, error) {
	base := i.BaseURL
	if base == "" {
		base = DefaultImprintURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid imprint url: %w", err)
	}
	u = u.JoinPath(strconv.Itoa(i.ServiceID))
	u.RawQuery = url.Values{"locale": {locale}}.Encode()
	return u.String(), nil
}

// Fetch returns the imprint HTML for locale.
func (i *Imprint) Fetch(ctx context.Context, locale string) (string, error) {
	endpoint, err := i.URL(locale)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	client := i.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch imprint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch imprint: %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read imprint: %w", err)
	}
	return string(body), nil
}

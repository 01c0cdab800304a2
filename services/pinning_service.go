package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"ticket-ledger/utils"
	"time"
)

// PinningService talks to the content-pinning collaborator. Content is
// addressed by opaque CIDs; the ledger never validates them. Groups
// mirror event categories so pinned metadata stays browsable per
// category.
type PinningService struct {
	baseURL    string
	gatewayURL string
	jwt        string
	hc         *http.Client
	breaker    *utils.CircuitBreaker
}

func NewPinningService(baseURL, gatewayURL, jwt string) *PinningService {
	return &PinningService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		gatewayURL: gatewayURL,
		jwt:        jwt,
		hc:         &http.Client{Timeout: 30 * time.Second},
		breaker:    utils.NewCircuitBreaker("pinning"),
	}
}

type PinResult struct {
	CID     string `json:"cid"`
	FileID  string `json:"id"`
	GroupID string `json:"group_id,omitempty"`
}

type PinnedFile struct {
	CID       string            `json:"cid"`
	Name      string            `json:"name"`
	Keyvalues map[string]string `json:"keyvalues"`
}

// UploadJSON pins a JSON document under name, tagged with keyvalues and
// grouped by category. The group is created on first use.
func (s *PinningService) UploadJSON(ctx context.Context, name, category string, content any, keyvalues map[string]string) (*PinResult, error) {
	result, err := s.breaker.Execute(ctx, func() (any, error) {
		groupID, err := s.ensureGroup(ctx, category)
		if err != nil {
			// Keep pinning even when group management fails, matching the
			// upload flow of the front-end this replaces.
			groupID = ""
		}

		payload := map[string]any{
			"name":      name,
			"content":   content,
			"keyvalues": keyvalues,
		}
		if groupID != "" {
			payload["group_id"] = groupID
		}

		var pin PinResult
		if err := s.do(ctx, http.MethodPost, "/pins/json", payload, &pin); err != nil {
			return nil, err
		}
		pin.GroupID = groupID
		return &pin, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*PinResult), nil
}

// Search returns the pinned files tagged with the given category.
func (s *PinningService) Search(ctx context.Context, category string) ([]PinnedFile, error) {
	result, err := s.breaker.Execute(ctx, func() (any, error) {
		var resp struct {
			Pins []PinnedFile `json:"pins"`
		}
		path := "/pins?category=" + url.QueryEscape(category)
		if err := s.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return nil, err
		}
		return resp.Pins, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]PinnedFile), nil
}

// GatewayURL builds the browsable URL for a CID. An empty CID resolves
// to the placeholder image, matching the front-end behavior.
func (s *PinningService) GatewayURL(cid string) string {
	if cid == "" {
		return "/placeholder-event.jpg"
	}

	base := s.gatewayURL
	if base != "" && !strings.HasPrefix(base, "http") {
		base = "https://" + base
	}
	base = strings.TrimRight(base, "/")

	return base + "/ipfs/" + strings.TrimPrefix(cid, "/")
}

// ensureGroup finds or creates the pin group named after category.
func (s *PinningService) ensureGroup(ctx context.Context, category string) (string, error) {
	if category == "" {
		return "", nil
	}

	var list struct {
		Groups []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"groups"`
	}
	path := "/groups?name=" + url.QueryEscape(category) + "&limit=1"
	if err := s.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return "", err
	}
	if len(list.Groups) > 0 {
		return list.Groups[0].ID, nil
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := s.do(ctx, http.MethodPost, "/groups", map[string]any{"name": category}, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (s *PinningService) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("pinning: marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("pinning: http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.jwt)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.hc.Do(req)
	if err != nil {
		return fmt.Errorf("pinning: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("pinning: authentication failed, check the configured JWT")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("pinning: %s %s: unexpected status %d: %s", method, path, resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("pinning: decode response: %w", err)
	}
	return nil
}

package elevenlabs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Voice describes a voice available to the account.
type Voice struct {
	ID          string            `json:"voice_id"`
	Name        string            `json:"name"`
	Category    string            `json:"category,omitempty"`
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	PreviewURL  string            `json:"preview_url,omitempty"`
}

// LabelString joins the voice labels as "key=value" pairs in key order.
func (v Voice) LabelString() string {
	keys := make([]string, 0, len(v.Labels))
	for k := range v.Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+v.Labels[k])
	}
	return strings.Join(parts, ", ")
}

// Voices lists the voices available to the account.
func (c *Client) Voices(ctx context.Context) ([]Voice, error) {
	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/v1/voices", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	var payload struct {
		Voices []Voice `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode voices: %w", err)
	}
	return payload.Voices, nil
}

// ValidateKey reports whether the service accepts the client's API key.
// Transport failures are returned as errors; a rejected key is not an error.
func (c *Client) ValidateKey(ctx context.Context) (bool, error) {
	resp, err := c.do(ctx, http.MethodGet, c.baseURL+"/v1/user", nil)
	if err != nil {
		if IsAuthError(err) {
			return false, nil
		}
		var synthErr *SynthesisError
		if errors.As(err, &synthErr) && synthErr.StatusCode != 0 {
			return false, nil
		}
		return false, err
	}
	resp.Body.Close() //nolint:errcheck
	return true, nil
}

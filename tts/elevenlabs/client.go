// Package elevenlabs is a client for the ElevenLabs text-to-speech REST API.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/lekman/tts-code/tts/chunk"
)

// Defaults applied by New.
const (
	DefaultBaseURL         = "https://api.elevenlabs.io"
	DefaultModelID         = "eleven_monolingual_v1"
	DefaultVoiceID         = "21m00Tcm4TlvDq8ikWAM"
	DefaultStability       = 0.5
	DefaultSimilarityBoost = 0.5
	DefaultTimeout         = 60 * time.Second
)

// VoiceSettings tunes the generated voice.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// DefaultVoiceSettings returns the settings used when none are configured.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{Stability: DefaultStability, SimilarityBoost: DefaultSimilarityBoost}
}

// ProgressFunc receives the completed percentage and a status message after
// every chunk of a chunked synthesis.
type ProgressFunc func(percent int, message string)

// Client talks to the ElevenLabs API. A Client is safe for concurrent use,
// except for SetDefaultVoiceID which must not race with requests.
type Client struct {
	apiKey        string
	baseURL       string
	voiceID       string
	modelID       string
	format        Format
	settings      VoiceSettings
	maxChunkSize  int
	httpClient    *http.Client
	limiter       *rate.Limiter
	logger        *log.Logger
	onRateLimited func(error)
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API host.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithVoiceID sets the default voice.
func WithVoiceID(id string) Option {
	return func(c *Client) {
		if id != "" {
			c.voiceID = id
		}
	}
}

// WithModelID sets the default model.
func WithModelID(id string) Option {
	return func(c *Client) {
		if id != "" {
			c.modelID = id
		}
	}
}

// WithFormat sets the default output format.
func WithFormat(f Format) Option {
	return func(c *Client) {
		if f != "" {
			c.format = f
		}
	}
}

// WithVoiceSettings sets the default voice settings.
func WithVoiceSettings(s VoiceSettings) Option {
	return func(c *Client) { c.settings = s }
}

// WithMaxChunkSize sets the per-request character limit for chunked synthesis.
func WithMaxChunkSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxChunkSize = n
		}
	}
}

// WithRequestsPerMinute throttles outgoing requests. Zero disables throttling.
func WithRequestsPerMinute(rpm int) Option {
	return func(c *Client) {
		if rpm <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRateLimitNotifier registers fn to be called when the service answers
// with 429. The request still fails.
func WithRateLimitNotifier(fn func(error)) Option {
	return func(c *Client) { c.onRateLimited = fn }
}

// New returns a client authenticated with apiKey.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:       apiKey,
		baseURL:      DefaultBaseURL,
		voiceID:      DefaultVoiceID,
		modelID:      DefaultModelID,
		format:       DefaultFormat,
		settings:     DefaultVoiceSettings(),
		maxChunkSize: chunk.DefaultMaxChunkSize,
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		logger:       log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetDefaultVoiceID changes the voice used when a request names none.
func (c *Client) SetDefaultVoiceID(id string) {
	if id != "" {
		c.voiceID = id
	}
}

// DefaultVoiceID returns the voice used when a request names none.
func (c *Client) DefaultVoiceID() string {
	return c.voiceID
}

// Format returns the default output format.
func (c *Client) Format() Format {
	return c.format
}

// MaxChunkSize returns the per-request character limit.
func (c *Client) MaxChunkSize() int {
	return c.maxChunkSize
}

// SynthesizeOption overrides client defaults for a single request.
type SynthesizeOption func(*request)

type request struct {
	voiceID  string
	modelID  string
	format   Format
	settings VoiceSettings
}

// VoiceID selects the voice for one request.
func VoiceID(id string) SynthesizeOption {
	return func(r *request) {
		if id != "" {
			r.voiceID = id
		}
	}
}

// Model selects the model for one request.
func Model(id string) SynthesizeOption {
	return func(r *request) {
		if id != "" {
			r.modelID = id
		}
	}
}

// OutputFormat selects the output format for one request.
func OutputFormat(f Format) SynthesizeOption {
	return func(r *request) {
		if f != "" {
			r.format = f
		}
	}
}

// Settings selects the voice settings for one request.
func Settings(s VoiceSettings) SynthesizeOption {
	return func(r *request) { r.settings = s }
}

func (c *Client) newRequest(opts []SynthesizeOption) request {
	r := request{
		voiceID:  c.voiceID,
		modelID:  c.modelID,
		format:   c.format,
		settings: c.settings,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

type synthesizeBody struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// Synthesize converts text to audio in a single request and returns the
// complete encoded stream.
func (c *Client) Synthesize(ctx context.Context, text string, opts ...SynthesizeOption) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	r := c.newRequest(opts)

	body, err := json.Marshal(synthesizeBody{
		Text:          text,
		ModelID:       r.modelID,
		VoiceSettings: r.settings,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?%s",
		c.baseURL,
		url.PathEscape(r.voiceID),
		url.Values{"output_format": {string(r.format)}}.Encode(),
	)

	c.logger.Debug("Synthesis started", "chars", chunk.Len(text), "voice", r.voiceID, "format", r.format)
	start := time.Now()

	resp, err := c.do(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, &SynthesisError{StatusCode: resp.StatusCode, Err: err}
	}

	c.logger.Debug("Synthesis finished", "bytes", buf.Len(), "elapsed", time.Since(start))
	return buf.Bytes(), nil
}

// SynthesizeChunked converts text of any length. Text that fits a single
// request is sent as is; longer text is split with the chunk package and the
// chunks are synthesized sequentially, in order. The first failing chunk
// aborts the whole operation and partial results are discarded. ctx is
// checked between chunks.
func (c *Client) SynthesizeChunked(ctx context.Context, text string, onProgress ProgressFunc, opts ...SynthesizeOption) ([][]byte, error) {
	if chunk.Len(text) <= c.maxChunkSize {
		audio, err := c.Synthesize(ctx, text, opts...)
		if err != nil {
			return nil, err
		}
		return [][]byte{audio}, nil
	}

	chunks := chunk.Split(text, c.maxChunkSize)
	c.logger.Info("Synthesizing in chunks", "chunks", len(chunks), "chars", chunk.Len(text))

	results := make([][]byte, 0, len(chunks))
	for i, part := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		audio, err := c.Synthesize(ctx, part, opts...)
		if err != nil {
			c.logger.Error("Chunk failed", "chunk", i+1, "of", len(chunks), "err", err)
			return nil, &ChunkError{Index: i + 1, Total: len(chunks), Err: err}
		}
		results = append(results, audio)

		if onProgress != nil {
			percent := int(math.Round(float64(i+1) / float64(len(chunks)) * 100))
			onProgress(percent, fmt.Sprintf("Processing chunk %d of %d", i+1, len(chunks)))
		}
	}
	return results, nil
}

// do sends an authenticated request and returns the response when the status
// is 2xx. Any other status is turned into a typed error.
func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader) (*http.Response, error) {
	if c.apiKey == "" {
		return nil, &AuthenticationError{Message: ErrMissingAPIKey.Error()}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, &SynthesisError{Err: err}
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Accept", "*/*")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &SynthesisError{Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close() //nolint:errcheck

	msg := readErrorMessage(resp)
	err = classify(resp.StatusCode, msg)
	if resp.StatusCode == http.StatusTooManyRequests {
		c.logger.Warn("Rate limit exceeded", "status", resp.StatusCode)
		if c.onRateLimited != nil {
			c.onRateLimited(err)
		}
	}
	return nil, err
}

// readErrorMessage extracts the message from an error response. The service
// answers with {"detail": {"message": "..."}} or {"detail": "..."}.
func readErrorMessage(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(data, &payload) == nil && len(payload.Detail) > 0 {
		var detail struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		}
		if json.Unmarshal(payload.Detail, &detail) == nil && detail.Message != "" {
			return detail.Message
		}
		var s string
		if json.Unmarshal(payload.Detail, &s) == nil && s != "" {
			return s
		}
	}

	if text := strings.TrimSpace(string(data)); text != "" {
		return text
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

// Package pterodactyl sends console commands to a game server through the
// Pterodactyl panel client API.
package pterodactyl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Placeholder is the token in command templates replaced with the player's
// in-game nickname at delivery time. No escaping is applied to the nickname.
const Placeholder = "{player}"

// ErrMissingConfig indicates the panel URL, API key or server id is unset.
// Checked before any call is attempted.
var ErrMissingConfig = errors.New("pterodactyl configuration missing")

// ExecutionError is returned when the panel rejects a command. A network
// failure is reported the same way; the caller cannot tell a rejected command
// from an unreachable console.
type ExecutionError struct {
	Command    string
	StatusCode int
	Body       string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("pterodactyl command %q: status %d: %s", e.Command, e.StatusCode, e.Body)
}

// Client issues commands against one fixed server on a Pterodactyl panel.
type Client struct {
	baseURL    string
	apiKey     string
	serverID   string
	httpClient *http.Client
}

// NewClient returns a console client. Empty config values are tolerated at
// construction; Send short-circuits with ErrMissingConfig.
func NewClient(baseURL, apiKey, serverID string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		serverID:   serverID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send resolves the {player} placeholder in the template and executes the
// resulting command on the server console.
func (c *Client) Send(ctx context.Context, template, playerNickname string) error {
	if c.baseURL == "" || c.apiKey == "" || c.serverID == "" {
		return ErrMissingConfig
	}

	command := strings.ReplaceAll(template, Placeholder, playerNickname)

	payload, err := json.Marshal(map[string]string{"command": command})
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	url := fmt.Sprintf("%s/api/client/servers/%s/command", c.baseURL, c.serverID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ExecutionError{Command: command, Body: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return &ExecutionError{Command: command, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}

// Package slack posts routine notifications to an incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nutriroutine"
)

type Client struct {
	webhookURL string
	httpClient nutriroutine.HTTPClient
}

func NewClient(webhookURL string, httpClient nutriroutine.HTTPClient) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

func (c *Client) PostMessage(ctx context.Context, channel string, message string) error {
	payload, err := json.Marshal(map[string]any{
		"channel": channel,
		"text":    message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to post message: %s", resp.Status)
	}

	return nil
}

// RoutineSavedMessage renders the notification sent when a user saves a routine.
func RoutineSavedMessage(userName string, date time.Time, items []nutriroutine.RoutineItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ *%s* guardó su rutina del %s (%d alimentos)", userName, date.Format("2006-01-02"), len(items))
	for _, slot := range nutriroutine.MealSlots {
		var names []string
		for _, it := range items {
			if it.Slot == slot {
				names = append(names, it.FoodName)
			}
		}
		if len(names) > 0 {
			fmt.Fprintf(&b, "\n%s %s: %s", slot.Emoji(), slot, strings.Join(names, ", "))
		}
	}
	return b.String()
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SMSClient posts to a Mobizon-style SMS gateway.
type SMSClient struct {
	APIURL string
	APIKey string
	Sender string // optional sender id
	HTTP   *http.Client
}

type smsResponse struct {
	Code int `json:"code"`
	Data struct {
		MessageID string `json:"messageId"`
	} `json:"data"`
}

func NewSMSClient(apiURL, apiKey, sender string) *SMSClient {
	return &SMSClient{
		APIURL: apiURL,
		APIKey: apiKey,
		Sender: sender,
		HTTP:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Send delivers a text message to the given phone number.
func (c *SMSClient) Send(ctx context.Context, to, text string) error {
	form := url.Values{
		"apiKey":    {c.APIKey},
		"recipient": {to},
		"text":      {text},
	}
	if c.Sender != "" {
		form.Set("from", c.Sender)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("send sms request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read sms response: %w", err)
	}
	var result smsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("parse sms response: %w", err)
	}
	if result.Code != 0 {
		return fmt.Errorf("sms gateway returned error code %d", result.Code)
	}
	return nil
}

package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	dysmsapi "github.com/alibabacloud-go/dysmsapi-20170525/v3/client"
	util "github.com/alibabacloud-go/tea-utils/v2/service"
	"github.com/alibabacloud-go/tea/tea"

	"morning-blessing/internal/domain"
)

const endpoint = "dysmsapi.aliyuncs.com"

// smsAPI is the minimal Dysmsapi interface required by Client.
// *dysmsapi.Client satisfies this interface. Defined here for testability.
type smsAPI interface {
	SendSmsWithOptions(request *dysmsapi.SendSmsRequest, runtime *util.RuntimeOptions) (*dysmsapi.SendSmsResponse, error)
}

// templateParams is the JSON object bound to the SMS template. It carries the
// record's non-address fields.
type templateParams struct {
	Name      string `json:"name"`
	City      string `json:"city"`
	Weather   string `json:"weather"`
	Hashtag1  string `json:"hashtag1"`
	Hashtag2  string `json:"hashtag2"`
	Hashtag3  string `json:"hashtag3"`
	Blessings string `json:"blessings"`
}

// Client dispatches greeting records through Alibaba Cloud Dysmsapi.
type Client struct {
	api          smsAPI
	signName     string
	templateCode string
	logger       *slog.Logger
}

// New creates a Client with the given Dysmsapi implementation and the fixed
// signature name and template identifier every message is sent with.
func New(api smsAPI, signName, templateCode string, logger *slog.Logger) (*Client, error) {
	if api == nil {
		return nil, errors.New("sms: api must not be nil")
	}
	if strings.TrimSpace(signName) == "" {
		return nil, errors.New("sms: sign name must not be empty")
	}
	if strings.TrimSpace(templateCode) == "" {
		return nil, errors.New("sms: template code must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{api: api, signName: signName, templateCode: templateCode, logger: logger}, nil
}

// NewAPI builds the real Dysmsapi client from an access key pair.
func NewAPI(accessKeyID, accessKeySecret string) (*dysmsapi.Client, error) {
	cfg := &openapi.Config{
		AccessKeyId:     tea.String(accessKeyID),
		AccessKeySecret: tea.String(accessKeySecret),
		Endpoint:        tea.String(endpoint),
	}
	cli, err := dysmsapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("sms: create dysmsapi client: %w", err)
	}
	return cli, nil
}

// Send delivers one record as a templated text message. Provider-side error
// detail, including the Recommend remediation hint, is logged rather than
// surfaced to the caller.
func (c *Client) Send(_ context.Context, rec domain.GreetingRecord) error {
	if strings.TrimSpace(rec.PhoneNumbers) == "" {
		return fmt.Errorf("sms: record for %q has no destination number", rec.Name)
	}

	params, err := json.Marshal(templateParams{
		Name:      rec.Name,
		City:      rec.City,
		Weather:   rec.Weather,
		Hashtag1:  rec.Hashtag1,
		Hashtag2:  rec.Hashtag2,
		Hashtag3:  rec.Hashtag3,
		Blessings: rec.Blessings,
	})
	if err != nil {
		return fmt.Errorf("sms: marshal template params: %w", err)
	}

	req := &dysmsapi.SendSmsRequest{
		PhoneNumbers:  tea.String(rec.PhoneNumbers),
		SignName:      tea.String(c.signName),
		TemplateCode:  tea.String(c.templateCode),
		TemplateParam: tea.String(string(params)),
	}

	resp, err := c.api.SendSmsWithOptions(req, &util.RuntimeOptions{})
	if err != nil {
		var sdkErr *tea.SDKError
		if errors.As(err, &sdkErr) {
			c.logger.Error("sms provider rejected request",
				"recipient", rec.Name,
				"message", tea.StringValue(sdkErr.Message),
				"recommend", recommendHint(sdkErr))
		}
		return fmt.Errorf("sms: send to %s: %w", rec.Name, err)
	}
	if resp == nil || resp.Body == nil {
		return fmt.Errorf("sms: send to %s: empty provider response", rec.Name)
	}
	if code := tea.StringValue(resp.Body.Code); code != "OK" {
		return fmt.Errorf("sms: send to %s: provider code %s: %s",
			rec.Name, code, tea.StringValue(resp.Body.Message))
	}
	return nil
}

// recommendHint extracts the Recommend field from the SDK error payload.
func recommendHint(err *tea.SDKError) string {
	data := tea.StringValue(err.Data)
	if data == "" {
		return ""
	}
	var payload struct {
		Recommend string `json:"Recommend"`
	}
	if jsonErr := json.Unmarshal([]byte(data), &payload); jsonErr != nil {
		return ""
	}
	return payload.Recommend
}

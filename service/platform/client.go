// Package platform wraps the provider's signed action API behind typed
// operations, normalizing every failure into *APIError.
package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/viant/mlkit/tracing"
	"github.com/volcengine/volc-sdk-golang/base"
)

// Endpoint defaults of the ML platform action API.
const (
	DefaultHost    = "open.volcengineapi.com"
	DefaultScheme  = "http"
	DefaultRegion  = "cn-beijing"
	DefaultTimeout = 10 * time.Second

	// ServiceName identifies the platform in request signatures.
	ServiceName = "ml_platform"
	// APIVersion pins the action API version.
	APIVersion = "2021-10-01"
)

// Config holds endpoint settings and signing credentials of the platform
// API client.
type Config struct {
	AccessKeyID     string        `json:"accessKeyID,omitempty" yaml:"accessKeyID,omitempty"`
	SecretAccessKey string        `json:"secretAccessKey,omitempty" yaml:"secretAccessKey,omitempty"`
	Host            string        `json:"host,omitempty" yaml:"host,omitempty"`
	Scheme          string        `json:"scheme,omitempty" yaml:"scheme,omitempty"`
	Region          string        `json:"region,omitempty" yaml:"region,omitempty"`
	Timeout         time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// DefaultConfig returns a config pointing at the production endpoint.
func DefaultConfig() *Config {
	return &Config{
		Host:    DefaultHost,
		Scheme:  DefaultScheme,
		Region:  DefaultRegion,
		Timeout: DefaultTimeout,
	}
}

// Init fills unset fields with defaults.
func (c *Config) Init() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Scheme == "" {
		c.Scheme = DefaultScheme
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
}

// Validate checks the config is usable for signing requests.
func (c *Config) Validate() error {
	if c.AccessKeyID == "" {
		return fmt.Errorf("access key ID is required")
	}
	if c.SecretAccessKey == "" {
		return fmt.Errorf("secret access key is required")
	}
	return nil
}

// Client calls the platform action API. All requests are POSTs carrying a
// JSON form, signed by the provider SDK.
type Client struct {
	client *base.Client
	logger *logrus.Logger
}

// New returns a platform client for the given config. A nil logger falls
// back to the logrus standard logger.
func New(config *Config, logger *logrus.Logger) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	config.Init()
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	info := &base.ServiceInfo{
		Timeout: config.Timeout,
		Scheme:  config.Scheme,
		Host:    config.Host,
		Header:  http.Header{"Accept": []string{"application/json"}},
		Credentials: base.Credentials{
			AccessKeyID:     config.AccessKeyID,
			SecretAccessKey: config.SecretAccessKey,
			Service:         ServiceName,
			Region:          config.Region,
		},
	}
	return &Client{
		client: base.NewClient(info, apiInfoList()),
		logger: logger,
	}
}

type envelopeError struct {
	Code    string `json:"Code"`
	CodeN   int    `json:"CodeN"`
	Message string `json:"Message"`
}

type envelope struct {
	ResponseMetadata struct {
		RequestID string         `json:"RequestId"`
		Error     *envelopeError `json:"Error"`
	} `json:"ResponseMetadata"`
	Result json.RawMessage `json:"Result"`
}

// CallAPI invokes a registered action with the given form payload and
// returns the envelope Result.
func (c *Client) CallAPI(ctx context.Context, action string, form any) (json.RawMessage, error) {
	if _, ok := c.client.ApiInfoList[action]; !ok {
		return nil, &APIError{API: action, Code: CodeOther, Message: fmt.Sprintf("unregistered action %q", action)}
	}
	body, err := json.Marshal(form)
	if err != nil {
		return nil, &APIError{API: action, Code: CodeOther, Message: err.Error()}
	}

	ctx, span := tracing.StartSpan(ctx, action, "CLIENT")
	data, statusCode, callErr := c.client.CtxJson(ctx, action, url.Values{}, string(body))
	span.WithAttributes(map[string]string{"http.status_code": strconv.Itoa(statusCode)})
	span.SetStatusFromHTTPCode(statusCode)

	result, apiErr := decodeEnvelope(action, data, callErr)
	tracing.EndSpan(span, apiErr)
	if apiErr != nil {
		return nil, apiErr
	}
	return result, nil
}

// decodeEnvelope normalizes the three failure modes of a call: a provider
// error descriptor, a success without Result, and everything else.
func decodeEnvelope(action string, data []byte, callErr error) (json.RawMessage, error) {
	if callErr != nil {
		var env envelope
		if err := json.Unmarshal(data, &env); err == nil && env.ResponseMetadata.Error != nil {
			provider := env.ResponseMetadata.Error
			return nil, &APIError{API: action, Code: provider.Code, CodeN: provider.CodeN, Message: provider.Message}
		}
		return nil, &APIError{API: action, Code: CodeOther, Message: callErr.Error()}
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &APIError{API: action, Code: CodeOther, Message: err.Error()}
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return nil, &APIError{API: action, Code: CodeMissingResult, Message: "successful response but missing key: Result"}
	}
	return env.Result, nil
}

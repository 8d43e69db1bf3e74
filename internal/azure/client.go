// Package azure is the Azure Resource Manager access layer of the check:
// metric queries, metric definitions, resource group and virtual machine
// listings, and resource provider registration.
//
// Every call goes through an azcore ARM pipeline. Listings and
// registration use the armresources and armcompute clients; the legacy
// OData-filter metrics API has no SDK client and is sent as raw requests
// on the same pipeline.
package azure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"checkazure/internal/domain"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v5"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

const (
	// DefaultEndpoint is the public-cloud Resource Manager endpoint.
	DefaultEndpoint = "https://management.azure.com"

	// DefaultApplicationID prefixes the User-Agent of every request.
	DefaultApplicationID = "check_azure"

	moduleName     = "checkazure"
	moduleVersion  = "v1.0.0"
	defaultTimeout = 60 * time.Second

	headerClientRequestID      = "x-ms-client-request-id"
	headerRequestID            = "x-ms-request-id"
	headerCorrelationRequestID = "x-ms-correlation-request-id"

	codeMissingRegistration = "MissingSubscriptionRegistration"
)

// ClientOptions configures a Client. The zero value targets the public
// cloud with a 60 second HTTP timeout.
type ClientOptions struct {
	arm.ClientOptions

	// Endpoint overrides the Resource Manager endpoint (sovereign clouds,
	// tests). The token audience follows the endpoint.
	Endpoint string

	// Logger receives one V(1) line per HTTP attempt.
	Logger logr.Logger
}

// Client talks to Azure Resource Manager on behalf of one subscription.
type Client struct {
	subscriptionID string
	endpoint       string
	arm            *arm.Client
	groups         *armresources.ResourceGroupsClient
	providers      *armresources.ProvidersClient
	vms            *armcompute.VirtualMachinesClient
}

// NewClient returns a client for subscriptionID authenticated by cred.
//
// Resource provider auto-registration and pipeline retries are turned
// off: the check registers Microsoft.Insights itself and retries through
// its own policy.
func NewClient(subscriptionID string, cred azcore.TokenCredential, opts *ClientOptions) (*Client, error) {
	if opts == nil {
		opts = &ClientOptions{}
	}
	armOpts := opts.ClientOptions
	if endpoint := strings.TrimRight(opts.Endpoint, "/"); endpoint != "" && endpoint != DefaultEndpoint {
		armOpts.Cloud = cloud.Configuration{
			ActiveDirectoryAuthorityHost: armOpts.Cloud.ActiveDirectoryAuthorityHost,
			Services: map[cloud.ServiceName]cloud.ServiceConfiguration{
				cloud.ResourceManager: {Endpoint: endpoint, Audience: endpoint},
			},
		}
	}
	armOpts.DisableRPRegistration = true
	armOpts.Retry.MaxRetries = -1
	if armOpts.Telemetry.ApplicationID == "" {
		armOpts.Telemetry.ApplicationID = DefaultApplicationID
	}
	if armOpts.Transport == nil {
		armOpts.Transport = &http.Client{Timeout: defaultTimeout}
	}
	armOpts.PerCallPolicies = append([]policy.Policy{runtime.NewRequestIDPolicy()}, armOpts.PerCallPolicies...)
	armOpts.PerRetryPolicies = append(append([]policy.Policy{}, armOpts.PerRetryPolicies...), tracePolicy{log: opts.Logger})

	base, err := arm.NewClient(moduleName, moduleVersion, cred, &armOpts)
	if err != nil {
		return nil, fmt.Errorf("azure: failed to create client: %w", err)
	}
	groups, err := armresources.NewResourceGroupsClient(subscriptionID, cred, &armOpts)
	if err != nil {
		return nil, fmt.Errorf("azure: failed to create resource groups client: %w", err)
	}
	providers, err := armresources.NewProvidersClient(subscriptionID, cred, &armOpts)
	if err != nil {
		return nil, fmt.Errorf("azure: failed to create providers client: %w", err)
	}
	vms, err := armcompute.NewVirtualMachinesClient(subscriptionID, cred, &armOpts)
	if err != nil {
		return nil, fmt.Errorf("azure: failed to create virtual machines client: %w", err)
	}

	return &Client{
		subscriptionID: subscriptionID,
		endpoint:       strings.TrimRight(base.Endpoint(), "/"),
		arm:            base,
		groups:         groups,
		providers:      providers,
		vms:            vms,
	}, nil
}

// SubscriptionID returns the subscription the client is bound to.
func (c *Client) SubscriptionID() string { return c.subscriptionID }

// Endpoint returns the Resource Manager endpoint requests are sent to.
func (c *Client) Endpoint() string { return c.endpoint }

// --- Correlation ---

// NewCorrelationID returns a fresh identifier for WithCorrelationID.
func NewCorrelationID() string { return uuid.NewString() }

// WithCorrelationID tags every request sent with the returned context,
// SDK clients included, with id as x-ms-correlation-request-id. Azure
// support can then find all requests of one check run together.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	h := http.Header{}
	h.Set(headerCorrelationRequestID, id)
	return policy.WithHTTPHeader(ctx, h)
}

// tracePolicy logs every attempt once it has an answer.
type tracePolicy struct {
	log logr.Logger
}

func (p tracePolicy) Do(req *policy.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := req.Next()

	raw := req.Raw()
	kv := []any{
		"method", raw.Method,
		"path", raw.URL.Path,
		"requestID", raw.Header.Get(headerClientRequestID),
		"correlationID", raw.Header.Get(headerCorrelationRequestID),
		"duration", time.Since(start).String(),
	}
	if err != nil {
		p.log.V(1).Info("azure request failed", append(kv, "error", err.Error())...)
		return resp, err
	}
	p.log.V(1).Info("azure request", append(kv, "status", resp.StatusCode)...)
	return resp, nil
}

// --- Errors ---

// APIError is a non-2xx answer from Resource Manager.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string

	// Response is the SDK error the answer was decoded from.
	Response *azcore.ResponseError
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("azure: %d %s: %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("azure: %d: %s", e.StatusCode, msg)
}

// Unwrap maps the HTTP status to a domain sentinel so callers can use
// errors.Is(err, domain.ErrNotFound) and friends. The SDK error stays
// reachable through errors.As.
func (e *APIError) Unwrap() []error {
	var errs []error
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		errs = append(errs, domain.ErrUnauthorized)
	case http.StatusNotFound:
		errs = append(errs, domain.ErrNotFound)
	case http.StatusTooManyRequests:
		errs = append(errs, domain.ErrThrottled)
	}
	if e.Response != nil {
		errs = append(errs, e.Response)
	}
	return errs
}

// IsMissingRegistration reports whether err says the subscription is not
// registered for the resource provider namespace it called.
func IsMissingRegistration(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && strings.EqualFold(apiErr.Code, codeMissingRegistration)
}

// Retryable reports whether the request may succeed if repeated.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// armErrorBody covers both the ARM envelope ({"error":{...}}) and the
// flat body returned by older Insights API versions.
type armErrorBody struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// wrapError turns an *azcore.ResponseError anywhere in err into an
// *APIError. Other errors are returned as they are.
func wrapError(err error) error {
	var respErr *azcore.ResponseError
	if !errors.As(err, &respErr) {
		return err
	}

	apiErr := &APIError{StatusCode: respErr.StatusCode, Code: respErr.ErrorCode, Response: respErr}
	resp := respErr.RawResponse
	if resp == nil {
		return apiErr
	}

	apiErr.RequestID = resp.Header.Get(headerRequestID)
	if apiErr.RequestID == "" && resp.Request != nil {
		apiErr.RequestID = resp.Request.Header.Get(headerClientRequestID)
	}

	data, _ := runtime.Payload(resp)
	var body armErrorBody
	if err := json.Unmarshal(data, &body); err == nil {
		code, msg := body.Code, body.Message
		if body.Error != nil {
			code, msg = body.Error.Code, body.Error.Message
		}
		apiErr.Message = msg
		if apiErr.Code == "" {
			apiErr.Code = code
		}
	} else if len(data) > 0 {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

// --- Raw requests ---

// resourceURL joins an ARM path (with or without leading slash) to the
// endpoint and appends the api-version and extra query parameters.
func (c *Client) resourceURL(path, apiVersion string, query url.Values) string {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("api-version", apiVersion)
	// ARM expects %20 rather than '+' inside $filter.
	encoded := strings.ReplaceAll(q.Encode(), "+", "%20")
	return runtime.JoinPaths(c.endpoint, path) + "?" + encoded
}

// doJSON sends a GET through the ARM pipeline and decodes the JSON answer
// into out. rawURL must point at the configured endpoint so the bearer
// token is never sent elsewhere, e.g. via a forged nextLink.
func (c *Client) doJSON(ctx context.Context, rawURL string, out any) error {
	if !strings.HasPrefix(rawURL, c.endpoint+"/") {
		return fmt.Errorf("azure: refusing to call %q outside %s", rawURL, c.endpoint)
	}

	req, err := runtime.NewRequest(ctx, http.MethodGet, rawURL)
	if err != nil {
		return fmt.Errorf("azure: failed to build request: %w", err)
	}
	req.Raw().Header.Set("Accept", "application/json")

	resp, err := c.arm.Pipeline().Do(req)
	if err != nil {
		return fmt.Errorf("azure: request failed: %w", err)
	}
	if !runtime.HasStatusCode(resp, http.StatusOK) {
		return wrapError(runtime.NewResponseError(resp))
	}
	if err := runtime.UnmarshalAsJSON(resp, out); err != nil {
		return fmt.Errorf("azure: failed to decode response: %w", err)
	}
	return nil
}

// listPage is the ARM list envelope.
type listPage[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"nextLink"`
}

// listAll follows nextLink until the collection is exhausted.
func listAll[T any](ctx context.Context, c *Client, rawURL string) ([]T, error) {
	var all []T
	for rawURL != "" {
		var page listPage[T]
		if err := c.doJSON(ctx, rawURL, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Value...)
		rawURL = page.NextLink
	}
	return all, nil
}

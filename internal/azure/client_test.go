package azure

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"checkazure/internal/domain"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/go-logr/logr/funcr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSubscription = "00000000-0000-0000-0000-000000000001"

// --- Test helpers ---

type staticCredential struct {
	mu     sync.Mutex
	token  string
	err    error
	scopes []string
}

func (c *staticCredential) GetToken(_ context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scopes = opts.Scopes
	if c.err != nil {
		return azcore.AccessToken{}, c.err
	}
	return azcore.AccessToken{Token: c.token, ExpiresOn: time.Now().Add(time.Hour)}, nil
}

// testOptions points a client at srv. httptest serves plain HTTP, so the
// bearer policy has to be told to send the token anyway.
func testOptions(srv *httptest.Server) *ClientOptions {
	opts := &ClientOptions{Endpoint: srv.URL}
	opts.InsecureAllowCredentialWithHTTP = true
	opts.Transport = srv.Client()
	return opts
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *staticCredential) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cred := &staticCredential{token: "test-token"}
	c, err := NewClient(testSubscription, cred, testOptions(srv))
	require.NoError(t, err)
	return c, cred
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func ptrFloat(f float64) *float64 { return &f }

// --- Construction ---

func TestNewClient_Endpoint(t *testing.T) {
	cred := &staticCredential{token: "t"}

	c, err := NewClient(testSubscription, cred, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultEndpoint, c.Endpoint())
	assert.Equal(t, testSubscription, c.SubscriptionID())

	c, err = NewClient(testSubscription, cred, &ClientOptions{Endpoint: "https://management.chinacloudapi.cn/"})
	require.NoError(t, err)
	assert.Equal(t, "https://management.chinacloudapi.cn", c.Endpoint())
}

func TestClient_RefusesPlainHTTPWithoutOptIn(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c, err := NewClient(testSubscription, &staticCredential{token: "t"}, &ClientOptions{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = c.ListResourceGroups(context.Background())
	require.Error(t, err)
	assert.Zero(t, calls.Load(), "the token must not travel over plain HTTP")
}

// --- Request shape ---

func TestClient_SetsAuthAndRequestHeaders(t *testing.T) {
	var got http.Header
	c, cred := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeJSON(t, w, http.StatusOK, map[string]any{"value": []any{}})
	})

	_, err := c.ListResourceGroups(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", got.Get("Authorization"))
	assert.True(t, strings.HasPrefix(got.Get("User-Agent"), DefaultApplicationID+" "), "User-Agent %q", got.Get("User-Agent"))
	_, err = uuid.Parse(got.Get("x-ms-client-request-id"))
	assert.NoError(t, err, "request id should be a UUID")
	require.Len(t, cred.scopes, 1)
	assert.Equal(t, c.Endpoint()+"/.default", cred.scopes[0])
}

func TestClient_CorrelationIDOnEveryRequest(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("x-ms-correlation-request-id"))
		mu.Unlock()
		switch {
		case strings.HasSuffix(r.URL.Path, "/register"):
			writeJSON(t, w, http.StatusOK, map[string]any{"namespace": "Microsoft.Insights", "registrationState": "Registered"})
		default:
			writeJSON(t, w, http.StatusOK, map[string]any{"value": []any{}})
		}
	})

	id := NewCorrelationID()
	ctx := WithCorrelationID(context.Background(), id)

	_, err := c.RegisterProvider(ctx, "Microsoft.Insights")
	require.NoError(t, err)
	_, err = c.ListVirtualMachines(ctx)
	require.NoError(t, err)
	_, _, err = c.NewMetricsPager("subscriptions/s/resourceGroups/rg/providers/Microsoft.Compute/virtualMachines/vm", "x").Next(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{id, id, id}, seen)
}

func TestClient_LogsEachRequest(t *testing.T) {
	var lines []string
	log := funcr.New(func(prefix, args string) { lines = append(lines, args) }, funcr.Options{Verbosity: 1})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"value": []any{}})
	}))
	defer srv.Close()
	opts := testOptions(srv)
	opts.Logger = log

	c, err := NewClient(testSubscription, &staticCredential{token: "t"}, opts)
	require.NoError(t, err)
	_, err = c.ListResourceGroups(context.Background())
	require.NoError(t, err)

	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"msg"="azure request"`)
	assert.Contains(t, lines[0], `"status"=200`)
	assert.Contains(t, lines[0], "/subscriptions/"+testSubscription+"/resourcegroups")
}

func TestClient_TokenFailure(t *testing.T) {
	var calls atomic.Int32
	c, cred := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	cred.err = errors.New("AADSTS7000215: invalid client secret")

	_, err := c.ListResourceGroups(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid client secret")
	assert.Zero(t, calls.Load(), "no request should be sent without a token")
}

func TestClient_RefusesForeignNextLink(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(t, w, http.StatusOK, map[string]any{
			"value":    []any{},
			"nextLink": "https://attacker.example/steal",
		})
	})

	_, _, err := c.NewMetricsPager("subscriptions/s/resourceGroups/rg/providers/P/t/n", "x").Next(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing")
	assert.EqualValues(t, 1, calls.Load())
}

// --- Error mapping ---

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      any
		wantIs    error
		wantCode  string
		wantMsg   string
		retryable bool
	}{
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			body:     map[string]any{"error": map[string]any{"code": "InvalidAuthenticationToken", "message": "expired"}},
			wantIs:   domain.ErrUnauthorized,
			wantCode: "InvalidAuthenticationToken",
			wantMsg:  "expired",
		},
		{
			name:     "forbidden",
			status:   http.StatusForbidden,
			body:     map[string]any{"error": map[string]any{"code": "AuthorizationFailed", "message": "no access"}},
			wantIs:   domain.ErrUnauthorized,
			wantCode: "AuthorizationFailed",
			wantMsg:  "no access",
		},
		{
			name:     "not found with flat legacy body",
			status:   http.StatusNotFound,
			body:     map[string]any{"code": "ResourceNotFound", "message": "missing"},
			wantIs:   domain.ErrNotFound,
			wantCode: "ResourceNotFound",
			wantMsg:  "missing",
		},
		{
			name:      "throttled",
			status:    http.StatusTooManyRequests,
			body:      map[string]any{"error": map[string]any{"code": "TooManyRequests", "message": "slow down"}},
			wantIs:    domain.ErrThrottled,
			wantCode:  "TooManyRequests",
			wantMsg:   "slow down",
			retryable: true,
		},
		{
			name:      "server error",
			status:    http.StatusBadGateway,
			body:      map[string]any{"error": map[string]any{"code": "BadGateway", "message": "upstream"}},
			wantCode:  "BadGateway",
			wantMsg:   "upstream",
			retryable: true,
		},
	}

	calls := map[string]func(*Client) error{
		"sdk listing": func(c *Client) error {
			_, err := c.ListResourceGroups(context.Background())
			return err
		},
		"metrics query": func(c *Client) error {
			_, _, err := c.NewMetricsPager("subscriptions/s/resourceGroups/rg/providers/P/t/n", "x").Next(context.Background())
			return err
		},
	}

	for _, tt := range tests {
		for callName, call := range calls {
			t.Run(tt.name+"/"+callName, func(t *testing.T) {
				var requests atomic.Int32
				c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
					requests.Add(1)
					writeJSON(t, w, tt.status, tt.body)
				})

				err := call(c)
				require.Error(t, err)

				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.status, apiErr.StatusCode)
				assert.Equal(t, tt.wantCode, apiErr.Code)
				assert.Equal(t, tt.wantMsg, apiErr.Message)
				assert.NotEmpty(t, apiErr.RequestID)
				assert.Equal(t, tt.retryable, apiErr.Retryable())
				if tt.wantIs != nil {
					assert.ErrorIs(t, err, tt.wantIs)
				}

				var respErr *azcore.ResponseError
				assert.ErrorAs(t, err, &respErr, "the SDK error stays reachable")
				assert.EqualValues(t, 1, requests.Load(), "the pipeline must not retry on its own")
			})
		}
	}
}

func TestClient_NonJSONErrorBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-ms-request-id", "req-42")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("service unavailable\n"))
	})

	_, err := c.ListVirtualMachines(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "service unavailable", apiErr.Message)
	assert.Equal(t, "req-42", apiErr.RequestID)
	assert.Equal(t, "azure: 503: service unavailable", apiErr.Error())
}

// --- Metrics ---

func TestMetricsPager_QueryAndPaging(t *testing.T) {
	const resourceID = "subscriptions/" + testSubscription + "/resourceGroups/rg1/providers/Microsoft.Compute/virtualMachines/web01"
	filter := "name.value eq 'Percentage CPU' and aggregationType eq 'Average'"

	var requests atomic.Int32
	var c *Client
	c, _ = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		switch n {
		case 1:
			assert.Equal(t, "/"+resourceID+"/providers/microsoft.insights/metrics", r.URL.Path)
			assert.Equal(t, "2016-09-01", r.URL.Query().Get("api-version"))
			assert.Equal(t, filter, r.URL.Query().Get("$filter"))
			assert.NotContains(t, r.URL.RawQuery, "+", "spaces must be percent-encoded")
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			writeJSON(t, w, http.StatusOK, map[string]any{
				"value":    []any{},
				"nextLink": c.Endpoint() + "/page2?token=abc",
			})
		case 2:
			assert.Equal(t, "/page2", r.URL.Path)
			writeJSON(t, w, http.StatusOK, map[string]any{
				"value": []any{map[string]any{
					"name": map[string]any{"value": "Percentage CPU", "localizedValue": "Percentage CPU"},
					"unit": "Percent",
					"data": []any{map[string]any{"timeStamp": "2024-01-01T00:00:00Z", "average": 12.5}},
				}},
			})
		default:
			t.Errorf("unexpected request %d", n)
		}
	})

	pager := c.NewMetricsPager(resourceID, filter)
	m, ok, err := pager.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Percentage CPU", m.Name.Value)
	require.Len(t, m.Points(), 1)
	assert.Equal(t, ptrFloat(12.5), m.Points()[0].Average)
	assert.Nil(t, m.Points()[0].Maximum)

	_, ok, err = pager.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.EqualValues(t, 2, requests.Load())
}

func TestMetric_PointsFromTimeseries(t *testing.T) {
	var m Metric
	require.NoError(t, json.Unmarshal([]byte(`{
		"name": {"value": "Requests"},
		"timeseries": [{"data": []}, {"data": [{"timeStamp": "2024-01-01T00:00:00Z", "total": 42}]}]
	}`), &m))

	points := m.Points()
	require.Len(t, points, 1)
	assert.Equal(t, ptrFloat(42), points[0].Total)
}

func TestListMetricDefinitions(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/providers/microsoft.insights/metricDefinitions"))
		assert.Equal(t, "2018-01-01", r.URL.Query().Get("api-version"))
		writeJSON(t, w, http.StatusOK, map[string]any{"value": []any{
			map[string]any{
				"name":                      map[string]any{"value": "Percentage CPU"},
				"unit":                      "Percent",
				"primaryAggregationType":    "Average",
				"supportedAggregationTypes": []string{"Average", "Maximum"},
			},
		}})
	})

	defs, err := c.ListMetricDefinitions(context.Background(), "subscriptions/s/resourceGroups/rg/providers/Microsoft.Compute/virtualMachines/vm")
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "Percentage CPU", defs[0].Name.Value)
	assert.Equal(t, []string{"Average", "Maximum"}, defs[0].SupportedAggregationTypes)
}

// --- Resources ---

func TestListResourceGroups_FollowsNextLink(t *testing.T) {
	var requests atomic.Int32
	var c *Client
	c, _ = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			assert.Equal(t, "/subscriptions/"+testSubscription+"/resourcegroups", r.URL.Path)
			writeJSON(t, w, http.StatusOK, map[string]any{
				"value":    []any{map[string]any{"id": "/subscriptions/s/resourceGroups/rg1", "name": "rg1", "location": "westeurope"}},
				"nextLink": c.Endpoint() + "/subscriptions/" + testSubscription + "/resourcegroups?page=2",
			})
			return
		}
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		writeJSON(t, w, http.StatusOK, map[string]any{"value": []any{map[string]any{"name": "rg2", "location": "northeurope"}}})
	})

	groups, err := c.ListResourceGroups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ResourceGroup{
		{ID: "/subscriptions/s/resourceGroups/rg1", Name: "rg1", Location: "westeurope"},
		{Name: "rg2", Location: "northeurope"},
	}, groups)
}

func TestListVirtualMachines(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/subscriptions/"+testSubscription+"/providers/Microsoft.Compute/virtualMachines", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{"value": []any{
			map[string]any{"name": "web01", "location": "westeurope"},
			map[string]any{"name": "web02", "location": "westeurope"},
		}})
	})

	vms, err := c.ListVirtualMachines(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []VirtualMachine{
		{Name: "web01", Location: "westeurope"},
		{Name: "web02", Location: "westeurope"},
	}, vms)
}

func TestRegisterProvider(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/subscriptions/"+testSubscription+"/providers/Microsoft.Insights/register", r.URL.Path)
		assert.Equal(t, "2021-04-01", r.URL.Query().Get("api-version"))
		writeJSON(t, w, http.StatusOK, map[string]any{"namespace": "Microsoft.Insights", "registrationState": "Registered"})
	})

	reg, err := c.RegisterProvider(context.Background(), "Microsoft.Insights")
	require.NoError(t, err)
	assert.Equal(t, &ProviderRegistration{Namespace: "Microsoft.Insights", RegistrationState: "Registered"}, reg)
}

func TestResourceID(t *testing.T) {
	got := ResourceID("sub", "rg", "/Microsoft.Sql/servers/db01/databases/", "orders")
	assert.Equal(t, "subscriptions/sub/resourceGroups/rg/providers/Microsoft.Sql/servers/db01/databases/orders", got)
}

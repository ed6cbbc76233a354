package httpclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// maxRedirects bounds redirect chains; both news sites redirect http to https
// and trailing-slash variants.
const maxRedirects = 5

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a page-fetching client with the specified timeout.
func NewRestyClient(timeout time.Duration) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(timeout)}
}

// NewRestyJSONClient returns a resty.Client preconfigured for JSON APIs
// (classifier, downstream publishers).
func NewRestyJSONClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
}

func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	c.SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects))
	return c
}

// Get performs an HTTP GET with the given headers. Non-2xx statuses are not
// errors; callers inspect StatusCode.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// Close drops idle keep-alive connections held by the underlying transport.
func (r *RestyClient) Close() {
	if r == nil || r.client == nil {
		return
	}
	r.client.GetClient().CloseIdleConnections()
}

type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }

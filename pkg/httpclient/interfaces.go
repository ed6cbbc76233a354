package httpclient

import "context"

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// Closer is implemented by clients that hold pooled connections.
type Closer interface {
	Close()
}

// Release closes c when it holds connections; other clients are left alone.
func Release(c Client) {
	if closer, ok := c.(Closer); ok {
		closer.Close()
	}
}

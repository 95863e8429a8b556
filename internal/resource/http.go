package resource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	beanerrors "github.com/xraph/beans/errors"
)

const defaultHTTPTimeout = 10 * time.Second

// HTTPLocator fetches documents over http(s).
type HTTPLocator struct {
	client *resty.Client
}

// NewHTTPLocator creates a locator with the given request timeout.
func NewHTTPLocator(timeout time.Duration) *HTTPLocator {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return NewHTTPLocatorWithClient(resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetHeader("Accept", "application/xml, application/yaml, application/json, text/plain, */*"))
}

// NewHTTPLocatorWithClient creates a locator on a preconfigured client.
func NewHTTPLocatorWithClient(client *resty.Client) *HTTPLocator {
	return &HTTPLocator{client: client}
}

// Open issues a GET for descriptor. Any non-2xx answer is treated as a
// missing resource.
func (l *HTTPLocator) Open(ctx context.Context, descriptor string) (io.ReadCloser, error) {
	resp, err := l.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(descriptor)
	if err != nil {
		return nil, beanerrors.ErrResourceNotFound(descriptor, err)
	}

	body := resp.RawBody()
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		if body != nil {
			body.Close()
		}
		return nil, beanerrors.ErrResourceNotFound(descriptor, fmt.Errorf("unexpected status %s", resp.Status()))
	}
	return body, nil
}

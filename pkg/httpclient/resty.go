package httpclient

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

type RestyClient struct {
	client *resty.Client
}

// New builds an HTTP client bound to baseURL. bearerToken may be empty for
// public endpoints.
func New(baseURL string, timeout time.Duration, bearerToken string) HTTPClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	if bearerToken != "" {
		client.SetAuthToken(bearerToken)
	}

	return &RestyClient{client: client}
}

func (rc *RestyClient) Get(ctx context.Context, endpoint string, queryParams map[string]string, headers map[string]string, result interface{}) (*BaseResponse, error) {
	req := rc.client.R().SetContext(ctx).SetResult(result)
	if queryParams != nil {
		req.SetQueryParams(queryParams)
	}
	return rc.execute(req, http.MethodGet, endpoint, headers)
}

func (rc *RestyClient) Post(ctx context.Context, endpoint string, body interface{}, headers map[string]string, result interface{}) (*BaseResponse, error) {
	req := rc.client.R().SetContext(ctx).SetBody(body).SetResult(result)
	return rc.execute(req, http.MethodPost, endpoint, headers)
}

func (rc *RestyClient) execute(req *resty.Request, method, endpoint string, headers map[string]string) (*BaseResponse, error) {
	if headers != nil {
		req.SetHeaders(headers)
	}

	resp, err := req.Execute(method, endpoint)
	if err != nil {
		return nil, err
	}

	return &BaseResponse{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
		Headers:    resp.Header(),
	}, nil
}

package client

import (
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// New builds a resty client for an upstream JSON API authenticated via X-API-Key.
func New(baseURL, apiKey string, timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	if apiKey != "" {
		c.SetHeader("X-API-Key", apiKey)
	}

	c.OnError(func(req *resty.Request, err error) {
		zap.L().Warn("upstream request failed",
			zap.String("url", req.URL),
			zap.String("method", req.Method),
			zap.Error(err),
		)
	})

	return c
}

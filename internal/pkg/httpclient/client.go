// Package httpclient 提供带链路追踪的 JSON HTTP 客户端。
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Resolver 把服务名解析为基础地址，例如 http://10.0.0.3:8080。
type Resolver interface {
	ResolveURL(serviceName string) (string, error)
}

// StaticResolver 使用固定的服务名到地址映射。
type StaticResolver map[string]string

func (s StaticResolver) ResolveURL(serviceName string) (string, error) {
	u, ok := s[serviceName]
	if !ok || u == "" {
		return "", fmt.Errorf("no address configured for service %s", serviceName)
	}
	return strings.TrimRight(u, "/"), nil
}

// StatusError 表示下游返回了非 2xx 状态码。
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("service %s returned status %d: %s", e.Service, e.StatusCode, e.Body)
}

// Client 是可追踪的 HTTP 客户端，超时完全由调用方的 context 控制。
type Client struct {
	Tracer     trace.Tracer
	HTTPClient *http.Client
	Resolver   Resolver
}

func NewClient(tracer trace.Tracer, resolver Resolver) *Client {
	return &Client{
		Tracer: tracer,
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		Resolver: resolver,
	}
}

// PostJSON 向 serviceName 的 path 发送 JSON 请求，out 非空时解码响应体。
func (c *Client) PostJSON(ctx context.Context, serviceName, path string, in, out any) error {
	ctx, span := c.Tracer.Start(ctx, "call-"+serviceName, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	fail := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	base, err := c.Resolver.ResolveURL(serviceName)
	if err != nil {
		return fail(err)
	}
	body, err := json.Marshal(in)
	if err != nil {
		return fail(errors.Wrap(err, "marshal request"))
	}
	target := base + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fail(err)
	}
	req.Header.Set("Content-Type", "application/json")
	span.SetAttributes(
		attribute.String("http.url", target),
		attribute.String("http.method", http.MethodPost),
	)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fail(errors.Wrapf(err, "call %s", serviceName))
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fail(&StatusError{Service: serviceName, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))})
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fail(errors.Wrapf(err, "decode %s response", serviceName))
	}
	return nil
}

// Package apigw adapts the submission handler to AWS Lambda invocations
// carrying API Gateway REST proxy events.
package apigw

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/shineum/contact-form-relay/internal/handler"
)

// Adapter converts API Gateway proxy events to handler requests.
type Adapter struct {
	handler *handler.Handler
}

// New creates an Adapter around h.
func New(h *handler.Handler) *Adapter {
	return &Adapter{handler: h}
}

// Handle is the Lambda entry point. A silent handler result becomes the
// zero APIGatewayProxyResponse: no status, no headers, no body. The
// returned error is always nil so the runtime never reports a crash.
func (a *Adapter) Handle(ctx context.Context, ev events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	req := toRequest(ctx, ev)

	var res handler.Result
	if ev.HTTPMethod == http.MethodOptions {
		res = a.handler.Preflight(req)
	} else {
		res = a.handler.Handle(ctx, req)
	}

	if res.Silent {
		return events.APIGatewayProxyResponse{}, nil
	}
	return events.APIGatewayProxyResponse{
		StatusCode: res.Response.StatusCode,
		Headers:    res.Response.Headers,
		Body:       res.Response.Body,
	}, nil
}

func toRequest(ctx context.Context, ev events.APIGatewayProxyRequest) handler.Request {
	body := ev.Body
	if ev.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(ev.Body)
		if err != nil {
			slog.Debug("undecodable base64 body", "error", err)
			body = ""
		} else {
			body = string(decoded)
		}
	}

	return handler.Request{
		Method:    ev.HTTPMethod,
		Headers:   flattenHeaders(ev),
		Body:      body,
		RequestID: requestID(ctx, ev),
	}
}

// flattenHeaders prefers the single-value header map and falls back to
// the first value of each multi-value header.
func flattenHeaders(ev events.APIGatewayProxyRequest) map[string]string {
	if len(ev.Headers) > 0 {
		return ev.Headers
	}
	out := make(map[string]string, len(ev.MultiValueHeaders))
	for k, v := range ev.MultiValueHeaders {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func requestID(ctx context.Context, ev events.APIGatewayProxyRequest) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return ev.RequestContext.RequestID
}

// Command gateway-lambda runs the entity gateway as an HTTP-triggered
// Lambda function behind API Gateway.
package main

import (
	"context"
	"encoding/base64"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/gin-gonic/gin"

	"storefront/internal/app"
	"storefront/internal/config"
)

var engine *gin.Engine

func toHTTPRequest(ctx context.Context, req events.APIGatewayProxyRequest) (*http.Request, error) {
	body := req.Body
	if req.IsBase64Encoded {
		b, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return nil, err
		}
		body = string(b)
	}

	q := url.Values{}
	for k, vs := range req.MultiValueQueryStringParameters {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	for k, v := range req.QueryStringParameters {
		if _, ok := q[k]; !ok {
			q.Set(k, v)
		}
	}
	target := req.Path
	if enc := q.Encode(); enc != "" {
		target += "?" + enc
	}

	r, err := http.NewRequestWithContext(ctx, req.HTTPMethod, target, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, v := range req.Headers {
		r.Header.Set(k, v)
	}
	return r, nil
}

func handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	r, err := toHTTPRequest(ctx, req)
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: `{"success":false,"message":"Invalid request"}`}, nil
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, r)

	headers := make(map[string]string, len(w.Header()))
	for k := range w.Header() {
		headers[k] = w.Header().Get(k)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: w.Code,
		Headers:    headers,
		Body:       w.Body.String(),
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	// A function instance has no writable shared disk, so storage is remote.
	if cfg.StoreBackend == "file" {
		cfg.StoreBackend = "dynamo"
	}
	if cfg.BlobBackend == "local" {
		cfg.BlobBackend = "s3"
	}

	r, _, err := app.Gateway(context.Background(), cfg)
	if err != nil {
		log.Fatalf("gateway: %v", err)
	}
	engine = r
	lambda.Start(handler)
}

package main

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ProxiesToEngine(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine = gin.New()
	engine.POST("/api/echo", func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		c.Header("X-Partition", c.Query("partitionKey"))
		c.String(http.StatusCreated, string(b))
	})

	resp, err := handler(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodPost,
		Path:                  "/api/echo",
		QueryStringParameters: map[string]string{"partitionKey": "PRODUCTS"},
		Headers:               map[string]string{"Content-Type": "text/plain"},
		Body:                  base64.StdEncoding.EncodeToString([]byte("hello")),
		IsBase64Encoded:       true,
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "hello", resp.Body)
	assert.Equal(t, "PRODUCTS", resp.Headers["X-Partition"])
}

func TestHandler_BadBody(t *testing.T) {
	resp, err := handler(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Path:            "/api/echo",
		Body:            "%%%",
		IsBase64Encoded: true,
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// Package api holds the wire types shared by the gateway and its clients.
package api

import "storefront/internal/domain"

// Response is the envelope every gateway endpoint returns.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

func OK[T any](data T, message string) Response[T] {
	return Response[T]{Success: true, Data: data, Message: message}
}

func Fail(message string) Response[any] {
	return Response[any]{Success: false, Message: message}
}

type UploadRequest struct {
	FileName      string `json:"fileName"`
	ContainerName string `json:"containerName"`
	ContentType   string `json:"contentType"`
	FileData      string `json:"fileData"`
}

// StatusUpdateRequest changes an order's status. A non-zero Version makes
// the change conditional on the order still being at that version.
type StatusUpdateRequest struct {
	Status  domain.OrderStatus `json:"status"`
	Version int64              `json:"version,omitempty"`
}

const (
	MsgGenericFailure = "Something went wrong. Please try again."
	MsgConflict       = "The record was changed by someone else. Reload it and try again."
)

package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// NoResponse tells the Respond function to not respond to the request. In these
// cases the app layer code has already done so.
type NoResponse struct{}

// NewNoResponse constructs a no reponse value.
func NewNoResponse() NoResponse {
	return NoResponse{}
}

// Encode implements the Encoder interface.
func (NoResponse) Encode() ([]byte, string, error) {
	return nil, "", nil
}

// JSONResponse represents a JSON response with generic data type
type JSONResponse[T any] struct {
	Data   T
	Status int
}

func (j *JSONResponse[T]) Encode() ([]byte, string, error) {
	data, err := json.Marshal(j.Data)
	if err != nil {
		return nil, "", err
	}
	return data, "application/json; charset=utf-8", nil
}

func (j *JSONResponse[T]) HTTPStatus() int {
	if j.Status == 0 {
		return http.StatusOK
	}
	return j.Status
}

func NewJSONResponse[T any](data T) *JSONResponse[T] {
	return &JSONResponse[T]{Data: data}
}

func NewJSONResponseWithStatus[T any](data T, status int) *JSONResponse[T] {
	return &JSONResponse[T]{Data: data, Status: status}
}

// HTMLResponse is a rendered page.
type HTMLResponse struct {
	Body   []byte
	Status int
}

func NewHTMLResponse(body []byte, status int) *HTMLResponse {
	return &HTMLResponse{Body: body, Status: status}
}

func (h *HTMLResponse) Encode() ([]byte, string, error) {
	return h.Body, "text/html; charset=utf-8", nil
}

func (h *HTMLResponse) HTTPStatus() int {
	if h.Status == 0 {
		return http.StatusOK
	}
	return h.Status
}

// Redirect sends the client to another location, 303 See Other by default.
type Redirect struct {
	Location string
	Status   int
}

func NewRedirect(location string) Redirect {
	return Redirect{Location: location, Status: http.StatusSeeOther}
}

func (rd Redirect) Encode() ([]byte, string, error) {
	return nil, "", nil
}

func (rd Redirect) HTTPStatus() int {
	if rd.Status == 0 {
		return http.StatusSeeOther
	}
	return rd.Status
}

// NoContent is an empty response with the given status.
type NoContent struct {
	Status int
}

func NewNoContent() NoContent {
	return NoContent{Status: http.StatusNoContent}
}

func (NoContent) Encode() ([]byte, string, error) {
	return nil, "", nil
}

func (n NoContent) HTTPStatus() int {
	return n.Status
}

// =============================================================================

type httpStatus interface {
	HTTPStatus() int
}

// StatusCode is the status Respond will write for resp.
func StatusCode(resp Encoder) int {
	switch v := resp.(type) {
	case nil:
		return http.StatusNoContent
	case httpStatus:
		return v.HTTPStatus()
	case error:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

// Respond sends a response to the client.
func Respond(ctx context.Context, w http.ResponseWriter, resp Encoder) error {
	if _, ok := resp.(NoResponse); ok {
		return nil
	}

	// If the context has been canceled, it means the client is no longer
	// waiting for a response.
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.Canceled) {
			return errors.New("client disconnected, do not send response")
		}
	}

	statusCode := StatusCode(resp)

	if rd, ok := resp.(Redirect); ok {
		w.Header().Set("Location", rd.Location)
		w.WriteHeader(statusCode)
		return nil
	}

	if statusCode == http.StatusNoContent {
		w.WriteHeader(statusCode)
		return nil
	}

	data, contentType, err := resp.Encode()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return fmt.Errorf("respond: encode: %w", err)
	}

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(statusCode)

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("respond: write: %w", err)
	}

	return nil
}

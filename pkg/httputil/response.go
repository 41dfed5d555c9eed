// Package httputil contains helpers for fasthttp handlers
package httputil

import (
	"encoding/json"

	"github.com/valyala/fasthttp"
)

// ErrorBody is the JSON body of an error response
type ErrorBody struct {
	Error string `json:"error"`
}

// WriteJSON writes data as a JSON response with the given status
func WriteJSON(ctx *fasthttp.RequestCtx, data any, status int) {
	body, err := json.Marshal(data)
	if err != nil {
		ctx.SetContentType("application/json")
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString(`{"error":"failed to marshal response"}`)
		return
	}

	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

// WriteError writes an error response
func WriteError(ctx *fasthttp.RequestCtx, err error, status int) {
	message := "internal server error"
	if err != nil {
		message = err.Error()
	}
	WriteJSON(ctx, ErrorBody{Error: message}, status)
}

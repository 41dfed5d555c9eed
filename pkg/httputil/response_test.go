package httputil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
)

func TestWriteJSON(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}

	WriteJSON(ctx, map[string]int{"inFlight": 2}, fasthttp.StatusOK)

	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "application/json", string(ctx.Response.Header.ContentType()))
	assert.JSONEq(t, `{"inFlight":2}`, string(ctx.Response.Body()))
}

func TestWriteJSON_MarshalFailure(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}

	WriteJSON(ctx, map[string]any{"bad": make(chan int)}, fasthttp.StatusOK)

	assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "failed to marshal response")
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"With error", errors.New("downloads directory missing"), `{"error":"downloads directory missing"}`},
		{"Nil error", nil, `{"error":"internal server error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := &fasthttp.RequestCtx{}
			WriteError(ctx, tt.err, fasthttp.StatusServiceUnavailable)

			assert.Equal(t, fasthttp.StatusServiceUnavailable, ctx.Response.StatusCode())
			assert.JSONEq(t, tt.want, string(ctx.Response.Body()))
		})
	}
}

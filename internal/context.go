package internal

import (
	"context"
	"net/http"
)

const HeaderCorrelationId string = "Correlation-Id"

type ctxKeyCorrelationId struct{}

func CtxWithCorrelationId(ctx context.Context, correlationId string) context.Context {
	return context.WithValue(ctx, ctxKeyCorrelationId{}, correlationId)
}

func CorrelationIdFromCtx(ctx context.Context) string {
	item := ctx.Value(ctxKeyCorrelationId{})
	correlationId, ok := item.(string)
	if ok {
		return correlationId
	}
	return ""
}

// CtxFromRequest attaches the request's correlation id to its context,
// generating one when the caller didn't provide it.
func CtxFromRequest(request *http.Request) context.Context {
	correlationId := request.Header.Get(HeaderCorrelationId)
	if correlationId == "" {
		correlationId = GenerateId()
	}
	return CtxWithCorrelationId(request.Context(), correlationId)
}

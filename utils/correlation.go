package utils

import "context"

type contextKey string

const contextKeyCorrelationId = contextKey("correlation_id")

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return context.WithValue(ctx, contextKeyCorrelationId, correlationId)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	cid, ok := ctx.Value(contextKeyCorrelationId).(string)
	return cid, ok && cid != ""
}

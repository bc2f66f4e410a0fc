package logging

import (
	"context"
)

const (
	RequestIDKey   = "request_id"
	OrderIDKey     = "order_id"
	ServiceNameKey = "service_name"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func WithOrderID(ctx context.Context, orderID int64) context.Context {
	return context.WithValue(ctx, OrderIDKey, orderID)
}

func WithServiceName(ctx context.Context, serviceName string) context.Context {
	return context.WithValue(ctx, ServiceNameKey, serviceName)
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

func GetOrderID(ctx context.Context) int64 {
	if orderID, ok := ctx.Value(OrderIDKey).(int64); ok {
		return orderID
	}
	return 0
}

func GetServiceName(ctx context.Context) string {
	if serviceName, ok := ctx.Value(ServiceNameKey).(string); ok {
		return serviceName
	}
	return ""
}

func GetLogFields(ctx context.Context) []interface{} {
	fields := make([]interface{}, 0, 6)

	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}

	if orderID := GetOrderID(ctx); orderID != 0 {
		fields = append(fields, "order_id", orderID)
	}

	if serviceName := GetServiceName(ctx); serviceName != "" {
		fields = append(fields, "service_name", serviceName)
	}

	return fields
}

// Package observability wires the client's request spans to an OTLP
// collector. The client itself only creates spans through the global tracer
// provider; without InitTracer those spans are no-ops, so library users pay
// nothing unless they opt in:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("my-service"))
//	defer tp.Shutdown(ctx)
package observability

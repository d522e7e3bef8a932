package usecase

import (
	"go.opentelemetry.io/otel"
)

const tracerName = "github.com/bibbank/guarantee-messaging/internal/application/usecase"

var tracer = otel.Tracer(tracerName)

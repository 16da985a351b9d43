package observability

// Config управляет трейсами, метриками OpenTelemetry и propagator
type Config struct {
	// Enabled включает экспорт OTLP, при false ставятся noop провайдеры
	Enabled bool
	// OTLPEndpoint - адрес OTLP gRPC коллектора, например "otel-collector:4317"
	OTLPEndpoint string
	// SamplingRatio - доля сэмплируемых корневых трейсов, 0..1
	SamplingRatio float64
	ServiceName   string
	// DeploymentEnvironment - local или docker
	DeploymentEnvironment string
	ServiceVersion        string
}

package grpc

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// Health оборачивает стандартный gRPC health service
// Пустое имя сервиса - общий статус readiness
type Health struct {
	srv *health.Server
}

// New создаёт health service с начальным общим статусом
// NOT_SERVING до тех пор, пока хранилище не ответило на ping
func New(initialStatus grpc_health_v1.HealthCheckResponse_ServingStatus) *Health {
	srv := health.NewServer()
	srv.SetServingStatus("", initialStatus)
	return &Health{srv: srv}
}

// Register регистрирует сервис, вызывать до grpcSrv.Serve
func (h *Health) Register(grpcSrv *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(grpcSrv, h.srv)
}

// SetServing устанавливает статус SERVING
func (h *Health) SetServing(serviceName string) {
	h.srv.SetServingStatus(serviceName, grpc_health_v1.HealthCheckResponse_SERVING)
}

// SetNotServing устанавливает статус NOT_SERVING
func (h *Health) SetNotServing(serviceName string) {
	h.srv.SetServingStatus(serviceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
}

// Shutdown переводит все сервисы в NOT_SERVING и игнорирует дальнейшие изменения
func (h *Health) Shutdown() {
	h.srv.Shutdown()
}

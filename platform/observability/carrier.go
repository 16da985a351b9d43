package observability

import (
	"github.com/segmentio/kafka-go"
	"google.golang.org/grpc/metadata"
)

// metadataCarrier адаптирует gRPC metadata к propagation.TextMapCarrier
type metadataCarrier struct {
	md metadata.MD
}

// NewMetadataCarrier оборачивает входящие или исходящие gRPC metadata
func NewMetadataCarrier(md metadata.MD) *metadataCarrier {
	if md == nil {
		md = metadata.MD{}
	}
	return &metadataCarrier{md: md}
}

func (c *metadataCarrier) Get(key string) string {
	vals := c.md.Get(key)
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func (c *metadataCarrier) Set(key, value string) {
	c.md.Set(key, value)
}

func (c *metadataCarrier) Keys() []string {
	out := make([]string, 0, len(c.md))
	for k := range c.md {
		out = append(out, k)
	}
	return out
}

// HeaderCarrier адаптирует заголовки Kafka сообщения к propagation.TextMapCarrier
// Set заменяет существующий заголовок с тем же ключом
type HeaderCarrier struct {
	headers *[]kafka.Header
}

// NewHeaderCarrier оборачивает заголовки m
// Изменения через Set видны в m
func NewHeaderCarrier(m *kafka.Message) HeaderCarrier {
	return HeaderCarrier{headers: &m.Headers}
}

func (c HeaderCarrier) Get(key string) string {
	for _, h := range *c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c HeaderCarrier) Set(key, value string) {
	for i, h := range *c.headers {
		if h.Key == key {
			(*c.headers)[i].Value = []byte(value)
			return
		}
	}
	*c.headers = append(*c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c HeaderCarrier) Keys() []string {
	out := make([]string, 0, len(*c.headers))
	for _, h := range *c.headers {
		out = append(out, h.Key)
	}
	return out
}

package preview

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"smplat-platform/pkg/config"
	"smplat-platform/pkg/errutil"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const signatureHeader = "x-preview-signature"

type Service struct {
	hub     *Hub
	history *History
	node    *snowflake.Node

	sharedSecret []byte
	keepAlive    time.Duration
}

type ServiceParams struct {
	fx.In
	Config  *config.Config
	Hub     *Hub
	History *History
	Node    *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		hub:          p.Hub,
		history:      p.History,
		node:         p.Node,
		sharedSecret: []byte(p.Config.Preview.SharedSecret),
		keepAlive:    p.Config.Preview.KeepAliveInterval,
	}
}

// HandleStream serves GET /v1/marketing-preview/stream. The connection stays
// open until the client goes away; keep-alive comments flush on a fixed
// interval so intermediaries do not drop the idle stream.
func (s *Service) HandleStream(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		_ = c.Error(errutil.Internal("streaming unsupported", nil))
		return
	}

	clientID := s.node.Generate().String()
	events := s.hub.Subscribe(clientID)
	defer s.hub.Unsubscribe(clientID)

	zapLog := zap.L().With(zap.String("client_id", clientID))
	zapLog.Info("preview client connected", zap.Int("connected", s.hub.Len()))

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	fmt.Fprintf(c.Writer, "event: ready\ndata: {\"clientId\":%q}\n\n", clientID)
	flusher.Flush()

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			zapLog.Info("preview client disconnected")
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(c.Writer, ": keep-alive\n\n"); err != nil {
				zapLog.Info("preview client write failed, dropping", zap.Error(err))
				return
			}
			flusher.Flush()
		case payload, open := <-events:
			if !open {
				return
			}
			if _, err := fmt.Fprintf(c.Writer, "event: marketing-preview\ndata: %s\n\n", payload); err != nil {
				zapLog.Info("preview client write failed, dropping", zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}

// HandlePublish serves POST /v1/marketing-preview/stream. The CMS calls it on
// every draft save; the rendered delta fans out to all connected clients.
func (s *Service) HandlePublish(c *gin.Context) {
	ctx := c.Request.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	signature := []byte(c.GetHeader(signatureHeader))
	if len(s.sharedSecret) == 0 || subtle.ConstantTimeCompare(signature, s.sharedSecret) != 1 {
		_ = c.Error(errutil.Unauthorized("invalid preview signature", nil))
		return
	}

	var env Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		_ = c.Error(errutil.BadRequest("invalid preview payload", err))
		return
	}
	if env.Collection == "" {
		_ = c.Error(errutil.BadRequest("collection is required", nil))
		return
	}

	route := ResolveRoute(env.Collection, env.Slug)
	if route == "" {
		_ = c.Error(errutil.BadRequest(fmt.Sprintf("cannot resolve route for collection %q", env.Collection), nil))
		return
	}

	blocks, validation, diagnostics := Normalize(env.Sections)
	variant := VariantDescriptor(env.Persona, env.Campaign, env.FeatureFlags)

	if validation.Rendered == 0 {
		_ = c.Error(errutil.UnprocessableEntity("no renderable sections", nil))
		return
	}

	broadcast := &Broadcast{
		Route:       route,
		Variant:     variant,
		BlockKinds:  BlockKinds(blocks),
		Validation:  validation,
		Diagnostics: diagnostics,
		Markup:      Render(blocks),
		PublishedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(broadcast)
	if err != nil {
		_ = c.Error(errutil.Internal("failed to encode broadcast", err))
		return
	}

	delivered := s.hub.Broadcast(payload)
	zapLog.Info("preview delta broadcast",
		zap.String("route", route),
		zap.String("variant", variant),
		zap.Int("delivered", delivered),
		zap.Int("rendered", validation.Rendered),
	)

	// Best effort. The CMS already has its acknowledgement either way.
	go func() {
		recordCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.history.Record(recordCtx, broadcast, &env); err != nil {
			zapLog.Warn("failed to persist preview delta", zap.Error(err), zap.String("variant", variant))
		}
	}()

	c.JSON(http.StatusOK, PublishResponse{
		Acknowledged: true,
		Validation:   validation,
		Diagnostics:  diagnostics,
		Variant:      variant,
	})
}

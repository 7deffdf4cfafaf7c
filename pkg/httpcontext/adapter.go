package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/studio/pkg/logger"
)

const (
	HeaderRequestID = "X-Request-ID"

	maxRequestIDLength = 64
)

type clientKey struct{}

// Client describes who is on the other end of a request.
type Client struct {
	RequestID string
	IP        string
	UserAgent string
}

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	timeout    time.Duration
	trustProxy bool
}

// NewAdapter constructs an Adapter. With trustProxy the client address is read from
// X-Forwarded-For and X-Real-IP; otherwise only the socket address counts.
func NewAdapter(timeout time.Duration, trustProxy bool) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{
		timeout:    timeout,
		trustProxy: trustProxy,
	}
}

// Attach creates a context with timeout derived from the adapter and enriches it with the
// request's Client. The request id is echoed back in the response.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	timeout := 5 * time.Second
	if a != nil {
		timeout = a.timeout
	}
	stdCtx, cancel := context.WithTimeout(context.Background(), timeout)

	client := a.Client(ctx)
	ctx.Response.Header.Set(HeaderRequestID, client.RequestID)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, client.RequestID)
	stdCtx = context.WithValue(stdCtx, clientKey{}, client)
	return stdCtx, cancel
}

// Client extracts the request id, address and user agent. A nil Adapter trusts no proxy.
func (a *Adapter) Client(ctx *fasthttp.RequestCtx) Client {
	trustProxy := a != nil && a.trustProxy
	return Client{
		RequestID: requestID(ctx),
		IP:        remoteIP(ctx, trustProxy),
		UserAgent: string(ctx.Request.Header.UserAgent()),
	}
}

// ClientFrom returns the Client stored by Attach.
func ClientFrom(ctx context.Context) (Client, bool) {
	if ctx == nil {
		return Client{}, false
	}
	client, ok := ctx.Value(clientKey{}).(Client)
	return client, ok
}

func remoteIP(ctx *fasthttp.RequestCtx, trustProxy bool) string {
	if trustProxy {
		if forwarded := string(ctx.Request.Header.Peek("X-Forwarded-For")); forwarded != "" {
			if first := strings.TrimSpace(strings.Split(forwarded, ",")[0]); first != "" {
				return first
			}
		}
		if realIP := strings.TrimSpace(string(ctx.Request.Header.Peek("X-Real-IP"))); realIP != "" {
			return realIP
		}
	}
	if ip := ctx.RemoteIP(); ip != nil && !ip.IsUnspecified() {
		return ip.String()
	}
	return ""
}

// requestID keeps a caller supplied id when it is short and printable, since it ends up in
// logs and response headers.
func requestID(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek(HeaderRequestID)))
	if header == "" || len(header) > maxRequestIDLength {
		return uuid.NewString()
	}
	for _, r := range header {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return uuid.NewString()
		}
	}
	return header
}

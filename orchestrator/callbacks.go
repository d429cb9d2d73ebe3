package orchestrator

import (
	"context"
	"strconv"
	"strings"
)

// callbackHandler handles a callback; arg is the data after the prefix.
type callbackHandler func(ctx context.Context, session *Session, arg string) Reply

type callbackRoute struct {
	prefix string
	exact  bool
	handle callbackHandler
}

// callbackRouter dispatches callback data by prefix. Routes are tried in
// order, so longer prefixes sharing a stem must come first.
type callbackRouter struct {
	routes []callbackRoute
}

func (r *callbackRouter) Exact(data string, h callbackHandler) {
	r.routes = append(r.routes, callbackRoute{prefix: data, exact: true, handle: h})
}

func (r *callbackRouter) Prefix(prefix string, h callbackHandler) {
	r.routes = append(r.routes, callbackRoute{prefix: prefix, handle: h})
}

func (r *callbackRouter) dispatch(ctx context.Context, session *Session, data string) (Reply, bool) {
	for _, route := range r.routes {
		if route.exact {
			if data == route.prefix {
				return route.handle(ctx, session, ""), true
			}
			continue
		}
		if arg, ok := strings.CutPrefix(data, route.prefix); ok {
			return route.handle(ctx, session, arg), true
		}
	}
	return Reply{}, false
}

func parseID(arg string) (int64, bool) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

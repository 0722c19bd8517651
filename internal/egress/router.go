package egress

import (
	"time"

	"lectern/internal/config"
)

// Router selects backend credentials by session language attribute. Routing
// is a plain attribute-keyed lookup with a default fallback, injected as
// configuration rather than scattered conditionals.
type Router struct {
	cfg   *config.Config
	build func(route config.EgressRoute) (API, error)
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithClientFactory overrides how routed credentials become clients. Used by
// tests to substitute fakes.
func WithClientFactory(build func(route config.EgressRoute) (API, error)) RouterOption {
	return func(r *Router) {
		if build != nil {
			r.build = build
		}
	}
}

// NewRouter builds a credential router from configuration.
func NewRouter(cfg *config.Config, opts ...RouterOption) *Router {
	router := &Router{
		cfg: cfg,
		build: func(route config.EgressRoute) (API, error) {
			return New(route.URL, route.APIKey, route.APISecret,
				WithTimeout(time.Duration(cfg.Egress.RequestTimeout)*time.Second))
		},
	}
	for _, opt := range opts {
		opt(router)
	}
	return router
}

// ClientFor returns a backend client using the credentials routed for the
// supplied language, falling back to the default credential set.
func (r *Router) ClientFor(language string) (API, error) {
	return r.build(r.cfg.RouteFor(language))
}

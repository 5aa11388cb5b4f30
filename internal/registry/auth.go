package registry

import (
	"context"
	"log/slog"
	"maps"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"resty.dev/v3"

	"transcribot/internal/config"
	"transcribot/internal/core"
	"transcribot/pkg/retry"
)

// loginDetail is the registry's exact signal that the session lapsed.
const loginDetail = "Authentication credentials were not provided."

var authRetries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "transcribot_registry_auth_retries_total",
	Help: "Requests retried after a login or CSRF round-trip",
}, []string{"reason"})

type request struct {
	method string
	path   string
	query  map[string]string
	form   map[string]string
	json   any
	result any
}

// The request lifecycle is a small state machine with a bounded transition
// budget: one login and one CSRF harvest per request, never more. This
// replaces unbounded re-auth loops.
type reqState int

const (
	stateFresh reqState = iota
	stateNeedsLogin
	stateNeedsCsrf
	stateReady
	stateSent
)

type authenticator struct {
	Logger *slog.Logger
	Config *config.Config
	http   *resty.Client

	csrf string
}

func (a *authenticator) send(ctx context.Context, req request) (*resty.Response, error) {
	st := stateFresh
	loginBudget, csrfBudget := 1, 1

	for {
		switch st {
		case stateNeedsLogin:
			if loginBudget == 0 {
				return nil, core.ErrAuth
			}
			loginBudget--
			if err := a.login(ctx); err != nil {
				return nil, err
			}
			st = stateReady

		case stateNeedsCsrf:
			if csrfBudget == 0 {
				return nil, core.ErrAuth
			}
			csrfBudget--
			if err := a.harvestCsrf(ctx, req.path); err != nil {
				return nil, err
			}
			st = stateReady

		case stateFresh, stateReady:
			resp, err := a.exec(ctx, req)
			if err != nil {
				return nil, err
			}

			if resp.StatusCode() == http.StatusForbidden {
				if strings.Contains(resp.String(), loginDetail) {
					authRetries.WithLabelValues("login").Inc()
					st = stateNeedsLogin
					continue
				}
				if req.method != http.MethodGet {
					authRetries.WithLabelValues("csrf").Inc()
					st = stateNeedsCsrf
					continue
				}
			}

			st = stateSent
			return resp, nil

		case stateSent:
			panic("unreachable: request already sent")
		}
	}
}

// exec performs one attempt, with a single bounded retry on transport
// failure. HTTP-level outcomes are returned to the state machine as-is.
func (a *authenticator) exec(ctx context.Context, req request) (*resty.Response, error) {
	var resp *resty.Response

	attempt := func() error {
		r := a.http.R().WithContext(ctx)
		if req.query != nil {
			r.SetQueryParams(req.query)
		}
		if req.result != nil {
			// The registry bodies are always JSON even when its proxies
			// mislabel the content type.
			r.SetResult(req.result)
			r.SetForceResponseContentType("application/json")
		}
		if req.json != nil {
			r.SetBody(req.json)
			if a.csrf != "" {
				r.SetHeader("X-CSRFToken", a.csrf)
			}
		}
		if req.form != nil {
			form := maps.Clone(req.form)
			if a.csrf != "" {
				form["csrfmiddlewaretoken"] = a.csrf
			}
			r.SetFormData(form)
		}

		var err error
		resp, err = r.Execute(req.method, req.path)
		return err
	}

	err := retry.WrapWithBudget(attempt, func(error, int) bool { return true }, 1)()
	return resp, err
}

// harvestCsrf issues a GET to the same path to pick up the csrftoken
// cookie for the retried unsafe request.
func (a *authenticator) harvestCsrf(ctx context.Context, path string) error {
	resp, err := a.http.R().WithContext(ctx).Get(path)
	if err != nil {
		return err
	}
	a.storeCsrf(resp)
	return nil
}

func (a *authenticator) login(ctx context.Context) error {
	a.Logger.Info("registry session lapsed, logging in")

	resp, err := a.http.R().WithContext(ctx).Get(a.Config.RegistryLoginURL)
	if err != nil {
		return err
	}
	a.storeCsrf(resp)

	form := map[string]string{
		"email":    a.Config.RegistryEmail,
		"password": a.Config.RegistryPassword,
	}
	if a.csrf != "" {
		form["csrfmiddlewaretoken"] = a.csrf
	}

	resp, err = a.http.R().WithContext(ctx).
		SetFormData(form).
		Post(a.Config.RegistryLoginURL)
	if err != nil {
		return err
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return core.ErrAuth
	}
	a.storeCsrf(resp)
	return nil
}

func (a *authenticator) storeCsrf(resp *resty.Response) {
	for _, ck := range resp.Cookies() {
		if ck.Name == "csrftoken" && ck.Value != "" {
			a.csrf = ck.Value
		}
	}
}

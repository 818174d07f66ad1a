package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/pet-marketplace/api"
	"github.com/irsalhamdi/pet-marketplace/config"
	"github.com/irsalhamdi/pet-marketplace/core/auth"
	"github.com/irsalhamdi/pet-marketplace/core/cart"
	"github.com/irsalhamdi/pet-marketplace/core/order"
	"github.com/irsalhamdi/pet-marketplace/store"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

type TestEnv struct {
	*httptest.Server
	Session       *scs.SessionManager
	Carts         *cart.Repository
	Orders        *order.Store
	Paypal        *mockPaypal
	Stripe        *mockStripe
	WebhookSecret string
}

// NewTestEnv serves the api over an in-memory store, with payment providers
// replaced by local mocks. opts can adjust the api configuration.
func NewTestEnv(t *testing.T, opts ...func(*api.APIConfig)) (*TestEnv, error) {
	t.Helper()

	log, _ := test.NewNullLogger()
	backend := store.NewMemory()

	env := &TestEnv{
		Carts:         cart.NewRepository(store.NewJSON[[]cart.Cart](backend, log), cart.DefaultKey),
		Orders:        order.NewStore(backend),
		Paypal:        &mockPaypal{},
		Stripe:        &mockStripe{},
		WebhookSecret: "whsec_test",
	}

	env.Session = scs.New()
	env.Session.Store = auth.NewSessionStore(backend)

	ppSrv := httptest.NewServer(env.Paypal.handle())
	t.Cleanup(ppSrv.Close)

	pp, err := paypal.NewClient("client-id", "secret", ppSrv.URL)
	if err != nil {
		return nil, err
	}

	stSrv := httptest.NewServer(env.Stripe.handle())
	t.Cleanup(stSrv.Close)

	strp := &stripecl.API{}
	strp.Init("sk_test_123", &stripe.Backends{
		API: stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL:               stripe.String(stSrv.URL),
			MaxNetworkRetries: stripe.Int64(0),
			LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
		}),
	})

	cfg := api.APIConfig{
		Log:     log,
		Backend: backend,
		Carts:   env.Carts,
		Orders:  env.Orders,
		Session: env.Session,
		Paypal:  pp,
		Stripe:  strp,
		StripeCfg: config.Stripe{
			WebhookSecret: env.WebhookSecret,
			SuccessURL:    "http://localhost/success",
			CancelURL:     "http://localhost/cancel",
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	env.Server = httptest.NewServer(api.APIMux(cfg))
	t.Cleanup(env.Server.Close)

	env.Logout()
	return env, nil
}

// Login commits a session for the user the way the account portal does and
// hands its cookie to the client.
func (env *TestEnv) Login(t *testing.T, userID int, role string) {
	t.Helper()

	ctx, err := env.Session.Load(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	env.Session.Put(ctx, auth.UserIDKey, userID)
	env.Session.Put(ctx, auth.RoleKey, role)

	token, _, err := env.Session.Commit(ctx)
	if err != nil {
		t.Fatal(err)
	}

	u, err := url.Parse(env.URL)
	if err != nil {
		t.Fatal(err)
	}
	env.Client().Jar.SetCookies(u, []*http.Cookie{{Name: env.Session.Cookie.Name, Value: token, Path: "/"}})
}

func (env *TestEnv) Logout() {
	jar, _ := cookiejar.New(nil)
	env.Client().Jar = jar
}

// do sends body as JSON and returns the response status with its raw body.
func (env *TestEnv) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}

	r, err := http.NewRequest(method, env.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	w, err := env.Client().Do(r)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	b, err := io.ReadAll(w.Body)
	if err != nil {
		t.Fatal(err)
	}
	return w.StatusCode, b
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("cannot unmarshal %s: %v", b, err)
	}
	return v
}

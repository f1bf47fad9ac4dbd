package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/kv"
	"storefront/internal/metrics"
	cartrepo "storefront/internal/repository/cart"
	identityrepo "storefront/internal/repository/identity"
	productrepo "storefront/internal/repository/product"
	"storefront/internal/seed"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/service/directory"
	productsvc "storefront/internal/service/product"
	"storefront/internal/service/session"
)

type testApp struct {
	router  *gin.Engine
	session *session.Manager
	metrics *metrics.Collector
	store   *kv.Store
}

// newTestApp wires the real services over an in-memory store with the demo catalog.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	store := kv.New(kv.NewMemory(), nil)
	products := productrepo.NewKV(store, nil)
	if err := seed.Apply(ctx, products); err != nil {
		t.Fatalf("seed: %v", err)
	}
	collector := metrics.NewCollector("storefront_test")
	mgr := session.New(
		directory.New(identityrepo.NewKV(store, nil), nil),
		cartsvc.New(cartrepo.NewKV(store), nil),
		nil,
		session.WithRecorder(collector),
	)
	if _, err := mgr.OnAppStart(ctx); err != nil {
		t.Fatalf("app start: %v", err)
	}

	router, err := buildRouter(zap.NewNop(), store, Deps{
		Session:  mgr,
		Products: productsvc.New(products),
		Metrics:  collector,
	}, []string{"http://localhost:5173"})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return &testApp{router: router, session: mgr, metrics: collector, store: store}
}

func (a *testApp) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubProductService struct {
	err error
}

func (s *stubProductService) List(context.Context, string) ([]domain.Product, error) {
	return nil, s.err
}

func (s *stubProductService) Get(context.Context, string) (*domain.Product, error) {
	return nil, s.err
}

func (s *stubProductService) Categories(context.Context) ([]string, error) {
	return nil, s.err
}

func TestBuildRouter_RequiresServices(t *testing.T) {
	if _, err := buildRouter(zap.NewNop(), nil, Deps{}, nil); err == nil {
		t.Fatalf("expected error without services")
	}
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t)
	rec := app.do(http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name  string
		store Pinger
		want  int
	}{
		{name: "ready", store: stubPinger{}, want: http.StatusOK},
		{name: "unreachable", store: stubPinger{err: errors.New("down")}, want: http.StatusServiceUnavailable},
		{name: "not configured", store: nil, want: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/readyz", readyHandler(tc.store))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestRequireSession_Unauthorized(t *testing.T) {
	app := newTestApp(t)
	for _, route := range []struct{ method, path, body string }{
		{http.MethodGet, "/cart", ""},
		{http.MethodPost, "/cart/items", `{"productId":"demo-tee"}`},
		{http.MethodDelete, "/cart", ""},
		{http.MethodPost, "/checkout", ""},
	} {
		rec := app.do(route.method, route.path, route.body)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d body=%s", route.method, route.path, rec.Code, rec.Body.String())
		}
	}
}

func TestRequireSession_SetsOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app := newTestApp(t)
	identity, err := app.session.Signup(context.Background(), directory.SignupInput{Email: "a@x.com", Password: "secret1", DisplayName: "Ann"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	router := gin.New()
	router.Use(requireSession(app.session))
	router.GET("/test", func(c *gin.Context) {
		if got := ownerFrom(c); got != identity.ID {
			t.Fatalf("expected owner %s in context, got %q", identity.ID, got)
		}
		if !session.CurrentRequired(c.Request.Context()) {
			t.Fatalf("expected request context to require the current owner")
		}
		c.Status(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireSession_MutationAfterLogoutIsRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app := newTestApp(t)
	if _, err := app.session.Signup(context.Background(), directory.SignupInput{Email: "a@x.com", Password: "secret1", DisplayName: "Ann"}); err != nil {
		t.Fatalf("signup: %v", err)
	}

	h := &handlers{session: app.session, products: productsvc.New(productrepo.NewKV(app.store, nil)), logger: zap.NewNop()}
	router := gin.New()
	router.Use(requireSession(app.session))
	router.POST("/cart/items", func(c *gin.Context) {
		// Sign out between the session check and the mutation.
		if err := app.session.Logout(context.Background()); err != nil {
			t.Fatalf("logout: %v", err)
		}
		h.addItem(c)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(`{"title":"Shoe","priceCents":5000}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)
	app.do(http.MethodGet, "/healthz", "")

	rec := app.do(http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `storefront_test_http_requests_total{method="GET",route="/healthz",status="200"} 1`) {
		t.Fatalf("expected request counter in metrics output")
	}
}

func TestCORSPreflight(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodOptions, "/cart/items", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}
}

func TestUnexpectedErrorIs500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app := newTestApp(t)
	router, err := buildRouter(zap.NewNop(), nil, Deps{
		Session:  app.session,
		Products: &stubProductService{err: errors.New("boom")},
	}, nil)
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Fatalf("internal error text leaked: %s", rec.Body.String())
	}
}

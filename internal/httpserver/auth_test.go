package httpserver

import (
	"net/http"
	"strings"
	"testing"
)

func TestSignupHandler_Created(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodPost, "/auth/signup", `{"email":"A@X.com","password":"secret1","name":"Ann"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var body sessionResponse
	decode(t, rec, &body)
	if body.Identity == nil || body.Identity.Email != "a@x.com" {
		t.Fatalf("unexpected identity: %+v", body.Identity)
	}
	if len(body.Cart.Lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", body.Cart)
	}
	if strings.Contains(rec.Body.String(), "secret1") {
		t.Fatalf("password leaked in response: %s", rec.Body.String())
	}
}

func TestSignupHandler_Validation(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodPost, "/auth/signup", `{"email":"nope","password":"secret1","name":"Ann"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"field":"email"`) {
		t.Fatalf("expected field in body: %s", rec.Body.String())
	}

	rec = app.do(http.MethodPost, "/auth/signup", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestSignupHandler_Duplicate(t *testing.T) {
	app := newTestApp(t)
	app.do(http.MethodPost, "/auth/signup", `{"email":"a@x.com","password":"secret1","name":"Ann"}`)

	rec := app.do(http.MethodPost, "/auth/signup", `{"email":"a@x.com","password":"other12","name":"Imposter"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestLoginHandler_InvalidCredentials(t *testing.T) {
	app := newTestApp(t)
	app.do(http.MethodPost, "/auth/signup", `{"email":"a@x.com","password":"secret1","name":"Ann"}`)

	rec := app.do(http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"badpass"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rec.Code, rec.Body.String())
	}
	// The previous session survives the failed attempt.
	if rec := app.do(http.MethodGet, "/me", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected session to survive, got %d", rec.Code)
	}
}

func TestLoginLogoutRoundTrip(t *testing.T) {
	app := newTestApp(t)
	app.do(http.MethodPost, "/auth/signup", `{"email":"a@x.com","password":"secret1","name":"Ann"}`)
	if rec := app.do(http.MethodPost, "/cart/items", `{"productId":"demo-tee"}`); rec.Code != http.StatusCreated {
		t.Fatalf("add item: %d %s", rec.Code, rec.Body.String())
	}

	if rec := app.do(http.MethodPost, "/auth/logout", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := app.do(http.MethodGet, "/me", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec.Code)
	}

	rec := app.do(http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"secret1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var body sessionResponse
	decode(t, rec, &body)
	if len(body.Cart.Lines) != 1 || body.Cart.Lines[0].Title != "Slim Fit Tee" {
		t.Fatalf("expected saved cart restored, got %+v", body.Cart)
	}
}

func TestMeHandler_Success(t *testing.T) {
	app := newTestApp(t)
	app.do(http.MethodPost, "/auth/signup", `{"email":"me@example.com","password":"secret1","name":"Me"}`)

	rec := app.do(http.MethodGet, "/me", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"email":"me@example.com"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

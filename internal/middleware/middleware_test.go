package middleware

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/service-booking/internal/booking"
    "github.com/iliyamo/service-booking/internal/model"
    "github.com/iliyamo/service-booking/internal/session"
    "github.com/iliyamo/service-booking/internal/utils"
)

func TestMapError(t *testing.T) {
    cases := []struct {
        name   string
        err    error
        status int
        code   string
    }{
        {"validation", &booking.ValidationError{Issues: []booking.FieldIssue{{Field: "date", Message: "is required"}}}, 400, "VALIDATION_FAILED"},
        {"transition", fmt.Errorf("wrapped: %w", &booking.InvalidTransitionError{ID: 1, From: "accepted", To: "rejected"}), 409, "INVALID_TRANSITION"},
        {"not found", &booking.NotFoundError{ID: 7}, 404, "NOT_FOUND"},
        {"sync pending", fmt.Errorf("booking 1: %w", booking.ErrSyncPending), 409, "SYNC_PENDING"},
        {"persistence", fmt.Errorf("save: %w: %w", booking.ErrPersistence, errors.New("timeout")), 503, "PERSISTENCE_UNAVAILABLE"},
        {"anonymous", session.Authorize(nil).Err(), 401, "UNAUTHORIZED"},
        {"echo 404", echo.ErrNotFound, 404, "NOT_FOUND"},
        {"unknown", errors.New("boom"), 500, "INTERNAL_SERVER_ERROR"},
    }
    for _, tc := range cases {
        he := MapError(tc.err)
        if he.Status != tc.status || he.Code != tc.code {
            t.Errorf("%s: got %d %s, want %d %s", tc.name, he.Status, he.Code, tc.status, tc.code)
        }
    }

    he := MapError(&booking.ValidationError{Issues: []booking.FieldIssue{{Field: "date", Message: "is required"}}})
    if len(he.Errors) != 1 || he.Errors[0].Field != "date" {
        t.Fatalf("field errors not carried: %+v", he.Errors)
    }
    id := model.Identity{ID: 1, Role: model.RoleProvider}
    he = MapError(session.Authorize(&id, model.RoleAdmin).Err())
    if he.Status != http.StatusForbidden || he.Action == nil || he.Action.Value != "/v1/provider" {
        t.Fatalf("forbidden mapping %+v", he)
    }
}

type brokenRevoker struct{}

func (brokenRevoker) Revoke(context.Context, string, time.Time) error { return errors.New("down") }
func (brokenRevoker) Revoked(context.Context, string) (bool, error)   { return false, errors.New("down") }

func serve(mw echo.MiddlewareFunc, authz string) (*httptest.ResponseRecorder, *model.Identity) {
    e := echo.New()
    e.HTTPErrorHandler = ErrorHandler(zerolog.Nop())
    var seen *model.Identity
    e.GET("/", func(c echo.Context) error {
        if id, ok := session.FromContext(c.Request().Context()); ok {
            seen = &id
        }
        return c.NoContent(http.StatusOK)
    }, mw)
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    if authz != "" {
        req.Header.Set(echo.HeaderAuthorization, authz)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec, seen
}

func TestAuthenticate(t *testing.T) {
    id := model.Identity{ID: 4, Role: model.RoleCustomer, Name: "Rohan"}
    tok, err := utils.NewAccessToken("k", id, time.Minute)
    if err != nil {
        t.Fatal(err)
    }
    mw := Authenticate("k", session.NewMemoryRevoker(), zerolog.Nop())

    rec, seen := serve(mw, "")
    if rec.Code != http.StatusOK || seen != nil {
        t.Fatalf("anonymous request: %d %v", rec.Code, seen)
    }
    rec, seen = serve(mw, "Bearer "+tok.Token)
    if rec.Code != http.StatusOK || seen == nil || *seen != id {
        t.Fatalf("valid token: %d %v", rec.Code, seen)
    }
    if rec, _ = serve(mw, "Basic abc"); rec.Code != http.StatusUnauthorized {
        t.Fatalf("non-bearer scheme: %d", rec.Code)
    }
    if rec, _ = serve(Authenticate("k", brokenRevoker{}, zerolog.Nop()), "Bearer "+tok.Token); rec.Code != http.StatusServiceUnavailable {
        t.Fatalf("revocation lookup failure: %d", rec.Code)
    }
}

func TestRequireView_RedirectsWithSeeOther(t *testing.T) {
    rec, _ := serve(RequireView(model.RoleAdmin), "")
    if rec.Code != http.StatusSeeOther || rec.Header().Get(echo.HeaderLocation) != session.LoginPath {
        t.Fatalf("got %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
    }
}

func TestCaptureWriterTracksFullSize(t *testing.T) {
    rec := httptest.NewRecorder()
    cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
    _, _ = cw.Write([]byte("abc"))
    _, _ = cw.Write([]byte("def"))
    if cw.buf.String() != "abcd" || cw.size != 6 || rec.Body.String() != "abcdef" {
        t.Fatalf("buf=%q size=%d body=%q", cw.buf.String(), cw.size, rec.Body.String())
    }
}

func TestPayloadRoundTrip(t *testing.T) {
    h := http.Header{"Content-Type": {"application/json"}}
    bs, err := encodePayload(201, h, []byte(`{"ok":true}`))
    if err != nil {
        t.Fatal(err)
    }
    status, hdr, body, ok := decodePayload(bs)
    if !ok || status != 201 || hdr.Get("Content-Type") != "application/json" || string(body) != `{"ok":true}` {
        t.Fatalf("decoded %d %v %q %v", status, hdr, body, ok)
    }
    if _, _, _, ok := decodePayload([]byte{1, 2}); ok {
        t.Fatal("short payload must not decode")
    }
}

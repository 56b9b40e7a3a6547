package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/launchdeck/launchdeck/internal/auth"
	"github.com/launchdeck/launchdeck/internal/booking"
	"github.com/launchdeck/launchdeck/internal/catalog"
	"github.com/launchdeck/launchdeck/internal/graph"
	"github.com/launchdeck/launchdeck/internal/handler/dto"
	"github.com/launchdeck/launchdeck/internal/middleware"
	"github.com/launchdeck/launchdeck/internal/model"
)

// fakeAPI returns canned results and records the arguments it saw.
type fakeAPI struct {
	err error

	gotPageSize int
	gotAfter    *string
	gotRC       *graph.RequestContext
	gotIDs      []int
	gotEmail    string
}

func strPtr(s string) *string { return &s }

func testLaunch(id int) model.Launch {
	return model.Launch{
		ID:     id,
		Cursor: fmt.Sprint(1000 + id),
		Site:   strPtr("KSC LC 39A"),
		Mission: model.Mission{
			Name:              fmt.Sprintf("Mission %d", id),
			MissionPatchSmall: strPtr("small.png"),
			MissionPatchLarge: strPtr("large.png"),
		},
		Rocket: model.Rocket{ID: "falcon9", Name: "Falcon 9", Type: "FT"},
	}
}

func (f *fakeAPI) Launches(_ context.Context, rc *graph.RequestContext, pageSize int, after *string) (model.Page, error) {
	f.gotRC, f.gotPageSize, f.gotAfter = rc, pageSize, after
	if f.err != nil {
		return model.Page{}, f.err
	}
	return model.Page{
		Launches:  []model.Launch{testLaunch(2), testLaunch(1)},
		EndCursor: strPtr("1001"),
		HasMore:   true,
	}, nil
}

func (f *fakeAPI) Launch(_ context.Context, rc *graph.RequestContext, id int) (*graph.LaunchView, error) {
	f.gotRC = rc
	if f.err != nil {
		return nil, f.err
	}
	return &graph.LaunchView{Launch: testLaunch(id), IsBooked: true}, nil
}

func (f *fakeAPI) LaunchViews(_ context.Context, _ *graph.RequestContext, launches []model.Launch) ([]graph.LaunchView, error) {
	views := make([]graph.LaunchView, len(launches))
	for i, l := range launches {
		views[i] = graph.LaunchView{Launch: l, IsBooked: l.ID == 2}
	}
	return views, nil
}

func (f *fakeAPI) Me(_ context.Context, rc *graph.RequestContext) (*graph.UserView, error) {
	f.gotRC = rc
	if f.err != nil {
		return nil, f.err
	}
	return &graph.UserView{
		ID:         "01HUSER",
		Email:      "ada@example.com",
		Token:      auth.EncodeToken("ada@example.com"),
		Trips:      []model.Launch{testLaunch(1)},
		TripErrors: []graph.TripError{{LaunchID: 99, Message: "launch not found"}},
	}, nil
}

func (f *fakeAPI) Login(_ context.Context, email string) (string, error) {
	f.gotEmail = email
	if f.err != nil {
		return "", f.err
	}
	return auth.EncodeToken(email), nil
}

func (f *fakeAPI) BookTrips(_ context.Context, rc *graph.RequestContext, ids []int) (model.TripUpdateResponse, error) {
	f.gotRC, f.gotIDs = rc, ids
	if f.err != nil {
		return model.TripUpdateResponse{}, f.err
	}
	return model.TripUpdateResponse{
		Success:  false,
		Message:  booking.MessageBookFailed + "[-1]",
		Launches: []model.Launch{testLaunch(1)},
	}, nil
}

func (f *fakeAPI) CancelTrip(_ context.Context, rc *graph.RequestContext, id int) (model.TripUpdateResponse, error) {
	f.gotRC, f.gotIDs = rc, []int{id}
	if f.err != nil {
		return model.TripUpdateResponse{}, f.err
	}
	return model.TripUpdateResponse{
		Success:  true,
		Message:  booking.MessageCancelled,
		Launches: []model.Launch{testLaunch(id)},
	}, nil
}

func (f *fakeAPI) MissionPatch(m model.Mission, size model.PatchSize) *string {
	return m.Patch(size)
}

func newTestRouter(api API) http.Handler {
	h := New(api, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Identity)
	r.Get("/launches", h.ListLaunches)
	r.Get("/launches/{id}", h.GetLaunch)
	r.Get("/me", h.Me)
	r.Post("/login", h.Login)
	r.Post("/trips", h.BookTrips)
	r.Delete("/trips/{launchId}", h.CancelTrip)
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)
	return r
}

func serve(t *testing.T, h http.Handler, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range header {
		req.Header[http.CanonicalHeaderKey(k)] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return v
}

func TestHandler_NotFound(t *testing.T) {
	t.Parallel()

	rec := serve(t, newTestRouter(&fakeAPI{}), http.MethodGet, "/nonexistent", "", nil)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", got)
	}
	if resp := decode[dto.ErrorResponse](t, rec); resp.Code != "NOT_FOUND" {
		t.Errorf("unexpected error code: %s", resp.Code)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	rec := serve(t, newTestRouter(&fakeAPI{}), http.MethodPut, "/launches", "", nil)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rec.Code)
	}
	if resp := decode[dto.ErrorResponse](t, rec); resp.Code != "METHOD_NOT_ALLOWED" {
		t.Errorf("unexpected error code: %s", resp.Code)
	}
}

func TestListLaunches(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	rec := serve(t, newTestRouter(api), http.MethodGet, "/launches?pageSize=2&after=1003&patchSize=small", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if api.gotPageSize != 2 || api.gotAfter == nil || *api.gotAfter != "1003" {
		t.Errorf("unexpected arguments: pageSize=%d after=%v", api.gotPageSize, api.gotAfter)
	}

	resp := decode[dto.LaunchListResponse](t, rec)
	if len(resp.Launches) != 2 || !resp.HasMore || resp.Cursor == nil || *resp.Cursor != "1001" {
		t.Fatalf("unexpected page: %+v", resp)
	}
	if !resp.Launches[0].IsBooked || resp.Launches[1].IsBooked {
		t.Errorf("unexpected booking flags: %+v", resp.Launches)
	}
	if p := resp.Launches[0].Mission.MissionPatch; p == nil || *p != "small.png" {
		t.Errorf("expected small patch, got %v", p)
	}
}

func TestListLaunches_Defaults(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	rec := serve(t, newTestRouter(api), http.MethodGet, "/launches", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if api.gotPageSize != 20 || api.gotAfter != nil {
		t.Errorf("unexpected defaults: pageSize=%d after=%v", api.gotPageSize, api.gotAfter)
	}
	resp := decode[dto.LaunchListResponse](t, rec)
	if p := resp.Launches[0].Mission.MissionPatch; p == nil || *p != "large.png" {
		t.Errorf("expected large patch by default, got %v", p)
	}
}

func TestListLaunches_EmptyAfterStartsFromBeginning(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	rec := serve(t, newTestRouter(api), http.MethodGet, "/launches?after=", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if api.gotAfter != nil {
		t.Errorf("expected nil cursor for empty after, got %q", *api.gotAfter)
	}
}

func TestListLaunches_InvalidPageSize(t *testing.T) {
	t.Parallel()

	for _, size := range []string{"0", "-3", "ten"} {
		t.Run(size, func(t *testing.T) {
			t.Parallel()
			rec := serve(t, newTestRouter(&fakeAPI{}), http.MethodGet, "/launches?pageSize="+size, "", nil)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", rec.Code)
			}
			if resp := decode[dto.ErrorResponse](t, rec); resp.Code != "INVALID_PAGE_SIZE" {
				t.Errorf("unexpected error code: %s", resp.Code)
			}
		})
	}
}

func TestGetLaunch(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	token := auth.EncodeToken("ada@example.com")
	rec := serve(t, newTestRouter(api), http.MethodGet, "/launches/7", "",
		http.Header{"Authorization": {"Bearer " + token}, middleware.RequestIDHeader: {"req-7"}})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	resp := decode[dto.LaunchResponse](t, rec)
	if resp.ID != 7 || !resp.IsBooked || resp.Rocket.Name != "Falcon 9" {
		t.Errorf("unexpected launch: %+v", resp)
	}
	if api.gotRC.Identity.Email != "ada@example.com" || api.gotRC.RequestID != "req-7" {
		t.Errorf("unexpected request context: %+v", api.gotRC)
	}
}

func TestGetLaunch_InvalidID(t *testing.T) {
	t.Parallel()

	rec := serve(t, newTestRouter(&fakeAPI{}), http.MethodGet, "/launches/abc", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestHandleError_Mapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unauthenticated", booking.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"not found", catalog.ErrNotFound, http.StatusNotFound, "LAUNCH_NOT_FOUND"},
		{"upstream", fmt.Errorf("%w: status 503", catalog.ErrUpstreamUnavailable), http.StatusBadGateway, "UPSTREAM_UNAVAILABLE"},
		{"invalid email", graph.ErrInvalidEmail, http.StatusBadRequest, "INVALID_EMAIL"},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := serve(t, newTestRouter(&fakeAPI{err: tt.err}), http.MethodGet, "/launches/1", "", nil)
			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
			resp := decode[dto.ErrorResponse](t, rec)
			if resp.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, resp.Code)
			}
			if tt.name == "internal" && strings.Contains(resp.Error, "disk") {
				t.Error("internal error details leaked to client")
			}
		})
	}
}

func TestMe(t *testing.T) {
	t.Parallel()

	rec := serve(t, newTestRouter(&fakeAPI{}), http.MethodGet, "/me", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	resp := decode[dto.UserResponse](t, rec)
	if resp.Email != "ada@example.com" || len(resp.Trips) != 1 || !resp.Trips[0].IsBooked {
		t.Errorf("unexpected user: %+v", resp)
	}
	if len(resp.TripErrors) != 1 || resp.TripErrors[0].LaunchID != 99 {
		t.Errorf("unexpected trip errors: %+v", resp.TripErrors)
	}
}

func TestMe_Unauthenticated(t *testing.T) {
	t.Parallel()

	rec := serve(t, newTestRouter(&fakeAPI{err: booking.ErrUnauthenticated}), http.MethodGet, "/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	rec := serve(t, newTestRouter(api), http.MethodPost, "/login", `{"email":"ada@example.com"}`, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if api.gotEmail != "ada@example.com" {
		t.Errorf("unexpected email: %q", api.gotEmail)
	}
	if resp := decode[dto.LoginResponse](t, rec); resp.Token != auth.EncodeToken("ada@example.com") {
		t.Errorf("unexpected token: %q", resp.Token)
	}
}

func TestLogin_InvalidJSON(t *testing.T) {
	t.Parallel()

	rec := serve(t, newTestRouter(&fakeAPI{}), http.MethodPost, "/login", `{"email":`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	if resp := decode[dto.ErrorResponse](t, rec); resp.Code != "INVALID_JSON" {
		t.Errorf("unexpected error code: %s", resp.Code)
	}
}

func TestBookTrips(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	rec := serve(t, newTestRouter(api), http.MethodPost, "/trips", `{"launchIds":[1,-1]}`, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if len(api.gotIDs) != 2 || api.gotIDs[0] != 1 || api.gotIDs[1] != -1 {
		t.Errorf("unexpected ids: %v", api.gotIDs)
	}

	resp := decode[dto.TripUpdateResponse](t, rec)
	if resp.Success || !strings.HasPrefix(resp.Message, booking.MessageBookFailed) {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(resp.Launches) != 1 || !resp.Launches[0].IsBooked {
		t.Errorf("expected booked launch in response: %+v", resp.Launches)
	}
}

func TestBookTrips_MissingIDs(t *testing.T) {
	t.Parallel()

	rec := serve(t, newTestRouter(&fakeAPI{}), http.MethodPost, "/trips", `{}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
	if resp := decode[dto.ErrorResponse](t, rec); resp.Code != "MISSING_LAUNCH_IDS" {
		t.Errorf("unexpected error code: %s", resp.Code)
	}
}

func TestBookTrips_BodyTooLarge(t *testing.T) {
	t.Parallel()

	h := New(&fakeAPI{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 8)
		h.BookTrips(w, r)
	})

	rec := serve(t, handler, http.MethodPost, "/trips", `{"launchIds":[1,2,3,4,5,6]}`, nil)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected status 413, got %d", rec.Code)
	}
}

func TestCancelTrip(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	rec := serve(t, newTestRouter(api), http.MethodDelete, "/trips/5", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	resp := decode[dto.TripUpdateResponse](t, rec)
	if !resp.Success || resp.Message != booking.MessageCancelled {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(resp.Launches) != 1 || resp.Launches[0].ID != 5 || resp.Launches[0].IsBooked {
		t.Errorf("unexpected launches: %+v", resp.Launches)
	}
}

func TestCancelTrip_InvalidID(t *testing.T) {
	t.Parallel()

	rec := serve(t, newTestRouter(&fakeAPI{}), http.MethodDelete, "/trips/five", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

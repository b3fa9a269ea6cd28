package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/daily-briefing/internal/domain/auth"
	"github.com/yanqian/daily-briefing/internal/domain/briefing"
	"github.com/yanqian/daily-briefing/internal/domain/wardrobe"
	"github.com/yanqian/daily-briefing/internal/infra/config"
	apperrors "github.com/yanqian/daily-briefing/pkg/errors"
	"github.com/yanqian/daily-briefing/pkg/util"
)

// Wednesday 2024-07-10, the current cycle started Sunday 2024-07-07.
var fixedNow = time.Date(2024, 7, 10, 8, 0, 0, 0, time.UTC)

func TestRouter_HealthNeedsNoToken(t *testing.T) {
	server, _ := newRouterUnderTest(t, &stubWardrobe{}, &stubBriefing{})

	rec := performRequest(server, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_RejectsMissingAndForgedTokens(t *testing.T) {
	server, _ := newRouterUnderTest(t, &stubWardrobe{}, &stubBriefing{})

	rec := performRequest(server, http.MethodGet, "/api/v1/wardrobe/preview", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "unauthorized", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])

	other := auth.NewService(auth.Config{Secret: "another-secret", TokenTTL: time.Hour}, newTestLogger())
	forged, err := other.Issue(context.Background(), "mallory")
	require.NoError(t, err)
	rec = performRequest(server, http.MethodGet, "/api/v1/wardrobe/preview", forged.Token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, apperrors.CodeInvalidToken, decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_ScheduleDefaultsToCurrentCycle(t *testing.T) {
	schedule := wardrobe.NewSchedule()
	schedule[time.Monday] = wardrobe.ScheduleEntry{Outfit: &wardrobe.Outfit{
		Footwear: wardrobe.Footwear{Category: "sneakers", Item: "white sneakers"},
		Bottoms:  "navy",
		Belt:     "brown",
		Shirt:    wardrobe.Shirt{Category: "polo", Color: "white"},
	}}
	wr := &stubWardrobe{
		scheduleFn: func(ctx context.Context, weekOf time.Time) (wardrobe.Schedule, bool, error) {
			require.Equal(t, "2024-07-07", util.ISODate(weekOf))
			return schedule, true, nil
		},
	}
	server, token := newRouterUnderTest(t, wr, &stubBriefing{})

	rec := performRequest(server, http.MethodGet, "/api/v1/wardrobe/schedule", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		WeekOf   string                     `json:"weekOf"`
		Schedule map[string]json.RawMessage `json:"schedule"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "2024-07-07", body.WeekOf)
	require.Contains(t, string(body.Schedule["Monday"]), "white sneakers")
}

func TestRouter_ScheduleExplicitWeek(t *testing.T) {
	wr := &stubWardrobe{
		scheduleFn: func(ctx context.Context, weekOf time.Time) (wardrobe.Schedule, bool, error) {
			require.Equal(t, "2024-06-30", util.ISODate(weekOf))
			return nil, false, nil
		},
	}
	server, token := newRouterUnderTest(t, wr, &stubBriefing{})

	rec := performRequest(server, http.MethodGet, "/api/v1/wardrobe/schedule?week=2024-06-30", token)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "schedule_not_found", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])

	rec = performRequest(server, http.MethodGet, "/api/v1/wardrobe/schedule?week=June", token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_PreviewRendersCurrentCycle(t *testing.T) {
	wr := &stubWardrobe{
		previewFn: func(ctx context.Context, now time.Time) (wardrobe.Result, error) {
			require.True(t, now.Equal(fixedNow))
			return wardrobe.Result{
				Status:   wardrobe.StatusPreview,
				Summary:  "<b>Monday</b>",
				WeekOf:   time.Date(2024, 7, 7, 0, 0, 0, 0, time.UTC),
				Schedule: wardrobe.NewSchedule(),
			}, nil
		},
	}
	server, token := newRouterUnderTest(t, wr, &stubBriefing{})

	rec := performRequest(server, http.MethodGet, "/api/v1/wardrobe/preview", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		WeekOf string `json:"weekOf"`
		HTML   string `json:"html"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "2024-07-07", body.WeekOf)
	require.Equal(t, "<b>Monday</b>", body.HTML)
}

func TestRouter_PreviewMissingSchedule(t *testing.T) {
	wr := &stubWardrobe{
		previewFn: func(ctx context.Context, now time.Time) (wardrobe.Result, error) {
			return wardrobe.Result{Status: wardrobe.StatusScheduleMissing, Summary: wardrobe.MsgScheduleMissing}, nil
		},
	}
	server, token := newRouterUnderTest(t, wr, &stubBriefing{})

	rec := performRequest(server, http.MethodGet, "/api/v1/wardrobe/preview", token)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, wardrobe.MsgScheduleMissing, decodeErrorBody(t, rec.Body.Bytes())["error"]["message"])
}

func TestRouter_RunBriefing(t *testing.T) {
	br := &stubBriefing{
		runFn: func(ctx context.Context) (briefing.Report, error) {
			require.NoError(t, ctx.Err())
			return briefing.Report{RunID: "run-1", Slot: util.SlotMorning, Date: "2024-07-10"}, nil
		},
	}
	server, token := newRouterUnderTest(t, &stubWardrobe{}, br)

	rec := performRequest(server, http.MethodPost, "/api/v1/briefings/run", token)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var report briefing.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Equal(t, "run-1", report.RunID)
	require.Equal(t, util.SlotMorning, report.Slot)
}

func TestRouter_DomainErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"in progress", apperrors.Wrap(apperrors.CodeRunInProgress, "a briefing run is already in progress", nil), http.StatusConflict, apperrors.CodeRunInProgress},
		{"upstream", apperrors.Wrap(apperrors.CodeUpstream, "send failed", nil), http.StatusBadGateway, apperrors.CodeUpstream},
		{"not found", apperrors.Wrap(apperrors.CodeNotFound, "no schedule", nil), http.StatusNotFound, apperrors.CodeNotFound},
		{"unexpected", apperrors.Wrap(apperrors.CodePersistence, "disk full", nil), http.StatusInternalServerError, "preview_send_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			br := &stubBriefing{
				previewFn: func(ctx context.Context) (briefing.Report, error) { return briefing.Report{}, tc.err },
			}
			server, token := newRouterUnderTest(t, &stubWardrobe{}, br)

			rec := performRequest(server, http.MethodPost, "/api/v1/wardrobe/preview/send", token)
			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, tc.code, decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
		})
	}
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	handler := NewHandler(HandlerConfig{Location: time.UTC, GenerationDay: time.Sunday}, &stubWardrobe{}, &stubBriefing{}, newTestLogger())
	server := NewRouter(cfg, handler, auth.NewService(auth.Config{Secret: "test-secret"}, newTestLogger()))

	require.Equal(t, http.StatusOK, performRequest(server, http.MethodGet, "/healthz", "").Code)
	rec := performRequest(server, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "rate_limit_exceeded", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func performRequest(server *http.Server, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newRouterUnderTest(t *testing.T, wr wardrobe.Service, br briefing.Service) (*http.Server, string) {
	t.Helper()
	authSvc := auth.NewService(auth.Config{Secret: "test-secret", Issuer: "daily-briefing", TokenTTL: time.Hour}, newTestLogger())
	token, err := authSvc.Issue(context.Background(), "operator@example.com")
	require.NoError(t, err)

	handler := NewHandler(HandlerConfig{Location: time.UTC, GenerationDay: time.Sunday}, wr, br, newTestLogger())
	handler.now = func() time.Time { return fixedNow }
	return NewRouter(testConfig(), handler, authSvc), token.Token
}

func testConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubWardrobe struct {
	previewFn  func(ctx context.Context, now time.Time) (wardrobe.Result, error)
	scheduleFn func(ctx context.Context, weekOf time.Time) (wardrobe.Schedule, bool, error)
}

func (s *stubWardrobe) Run(ctx context.Context, now time.Time) (wardrobe.Result, error) {
	return wardrobe.Result{}, nil
}

func (s *stubWardrobe) Preview(ctx context.Context, now time.Time) (wardrobe.Result, error) {
	if s.previewFn != nil {
		return s.previewFn(ctx, now)
	}
	return wardrobe.Result{Status: wardrobe.StatusScheduleMissing, Summary: wardrobe.MsgScheduleMissing}, nil
}

func (s *stubWardrobe) Schedule(ctx context.Context, weekOf time.Time) (wardrobe.Schedule, bool, error) {
	if s.scheduleFn != nil {
		return s.scheduleFn(ctx, weekOf)
	}
	return nil, false, nil
}

type stubBriefing struct {
	runFn     func(ctx context.Context) (briefing.Report, error)
	previewFn func(ctx context.Context) (briefing.Report, error)
}

func (s *stubBriefing) Run(ctx context.Context) (briefing.Report, error) {
	if s.runFn != nil {
		return s.runFn(ctx)
	}
	return briefing.Report{}, nil
}

func (s *stubBriefing) SendPreview(ctx context.Context) (briefing.Report, error) {
	if s.previewFn != nil {
		return s.previewFn(ctx)
	}
	return briefing.Report{}, nil
}

func (s *stubBriefing) Clean(ctx context.Context) (int, error) {
	return 0, nil
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

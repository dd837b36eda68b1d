package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuqie6/SkillForge/internal/dto"
	"github.com/yuqie6/SkillForge/internal/eventbus"
	"github.com/yuqie6/SkillForge/internal/leaderboard"
	"github.com/yuqie6/SkillForge/internal/repository"
	"github.com/yuqie6/SkillForge/internal/schema"
	"github.com/yuqie6/SkillForge/internal/service"
	"github.com/yuqie6/SkillForge/internal/testutil"
)

type testEnv struct {
	handler http.Handler
	skills  *service.SkillService
	hub     *eventbus.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.OpenTestDB(t)
	hub := eventbus.NewHub()
	skills := service.NewSkillService(
		service.NewProgressStore(repository.NewStore(db)),
		service.NewCalculator(nil, nil),
		hub,
	)
	h := NewHandler(Deps{
		Skills:      skills,
		Board:       leaderboard.NewStoreBoard(skills),
		Hub:         hub,
		Name:        "skillforge",
		Version:     "test",
		Storage:     "sqlite",
		CORSOrigins: []string{"http://localhost:3000"},
	})
	return &testEnv{handler: h, skills: skills, hub: hub}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestCreateAndListSkills(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/skills", `{"name":"Blacksmithing"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[dto.SkillDTO](t, rec)
	assert.Equal(t, "Blacksmithing", created.Name)
	assert.Equal(t, 1, created.CurrentLevel)
	assert.Equal(t, int64(0), created.TotalXP)
	assert.Equal(t, int64(100), created.XPToNextLevel)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	// 无前缀路径同样可用
	rec = env.do(t, http.MethodGet, "/skills", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]dto.SkillDTO](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestListSkillsEmptyIsArray(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/skills", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateSkillRejections(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/skills", `{"name":"Go"}`).Code)

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{}`},
		{"blank name", `{"name":"   "}`},
		{"duplicate", `{"name":"Go"}`},
		{"malformed", `{"name":`},
		{"unknown field", `{"name":"X","level":9}`},
		{"empty body", ``},
		{"too long", fmt.Sprintf(`{"name":%q}`, strings.Repeat("a", schema.MaxSkillNameLen+1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/skills", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode[dto.ErrorResponse](t, rec).Error)
		})
	}

	rec := env.do(t, http.MethodPost, "/api/skills", `{"name":"Go"}`)
	assert.Equal(t, "Skill 'Go' already exists", decode[dto.ErrorResponse](t, rec).Error)
}

func TestLogSessionFlow(t *testing.T) {
	env := newTestEnv(t)
	created := decode[dto.SkillDTO](t, env.do(t, http.MethodPost, "/api/skills", `{"name":"Archery"}`))

	rec := env.do(t, http.MethodPost, "/api/sessions", fmt.Sprintf(`{"skill_id":%d,"duration_minutes":150}`, created.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	skill := decode[dto.SkillDTO](t, rec)
	assert.Equal(t, 2, skill.CurrentLevel)
	assert.Equal(t, int64(150), skill.TotalXP)
	assert.Equal(t, int64(250), skill.XPToNextLevel)
	assert.Equal(t, int64(50), skill.ProgressXP)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/skills/%d/sessions", created.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	sessions := decode[[]dto.TrainingSessionDTO](t, rec)
	require.Len(t, sessions, 1)
	assert.Equal(t, 150, sessions[0].DurationMinutes)
	assert.Equal(t, int64(150), sessions[0].XPAwarded)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/skills/%d", created.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(150), decode[dto.SkillDTO](t, rec).TotalXP)
}

func TestLogSessionRejections(t *testing.T) {
	env := newTestEnv(t)
	created := decode[dto.SkillDTO](t, env.do(t, http.MethodPost, "/api/skills", `{"name":"Archery"}`))

	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"zero duration", fmt.Sprintf(`{"skill_id":%d,"duration_minutes":0}`, created.ID), http.StatusBadRequest, "Duration must be between 1 and 1440 minutes"},
		{"too long", fmt.Sprintf(`{"skill_id":%d,"duration_minutes":1441}`, created.ID), http.StatusBadRequest, "Duration must be between 1 and 1440 minutes"},
		{"missing duration", fmt.Sprintf(`{"skill_id":%d}`, created.ID), http.StatusBadRequest, ""},
		{"missing skill", `{"duration_minutes":10}`, http.StatusBadRequest, ""},
		{"unknown skill", `{"skill_id":999,"duration_minutes":10}`, http.StatusNotFound, "Skill not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/sessions", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, decode[dto.ErrorResponse](t, rec).Error)
			}
		})
	}

	skill, err := env.skills.GetSkill(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), skill.TotalXP)
}

func TestDeleteSkill(t *testing.T) {
	env := newTestEnv(t)
	created := decode[dto.SkillDTO](t, env.do(t, http.MethodPost, "/api/skills", `{"name":"Fishing"}`))
	env.do(t, http.MethodPost, "/api/sessions", fmt.Sprintf(`{"skill_id":%d,"duration_minutes":30}`, created.ID))

	path := fmt.Sprintf("/api/skills/%d", created.ID)
	rec := env.do(t, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Skill 'Fishing' and all its sessions have been deleted", decode[dto.MessageResponse](t, rec).Message)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, path, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, path+"/sessions", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/skills/abc", "").Code)
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusMethodNotAllowed, env.do(t, http.MethodPut, "/api/skills", `{}`).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, env.do(t, http.MethodGet, "/api/sessions", "").Code)
}

func TestLeaderboard(t *testing.T) {
	env := newTestEnv(t)
	a := decode[dto.SkillDTO](t, env.do(t, http.MethodPost, "/api/skills", `{"name":"A"}`))
	b := decode[dto.SkillDTO](t, env.do(t, http.MethodPost, "/api/skills", `{"name":"B"}`))
	env.do(t, http.MethodPost, "/api/sessions", fmt.Sprintf(`{"skill_id":%d,"duration_minutes":10}`, a.ID))
	env.do(t, http.MethodPost, "/api/sessions", fmt.Sprintf(`{"skill_id":%d,"duration_minutes":90}`, b.ID))

	rec := env.do(t, http.MethodGet, "/api/leaderboard?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]dto.LeaderboardEntryDTO](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, dto.LeaderboardEntryDTO{Rank: 1, SkillID: b.ID, Name: "B", TotalXP: 90}, entries[0])

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/leaderboard?limit=-2", "").Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	h := decode[dto.HealthDTO](t, rec)
	assert.True(t, h.OK)
	assert.Equal(t, "skillforge", h.Name)
	assert.Equal(t, "sqlite", h.Storage)
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/skills", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/skills", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(&service.ValidationError{Field: "name", Msg: "x"}))
	assert.Equal(t, http.StatusBadRequest, statusFor(&service.DuplicateNameError{Name: "x"}))
	assert.Equal(t, http.StatusNotFound, statusFor(fmt.Errorf("wrap: %w", &service.NotFoundError{SkillID: 1})))
	assert.Equal(t, http.StatusInternalServerError, statusFor(&service.StorageError{Op: "x", Err: errors.New("disk")}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}

func TestRecoverMiddleware(t *testing.T) {
	h := recoverMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestEventsStream(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ready\n", line)

	// ready 之后订阅已建立
	_, err = env.skills.CreateSkill(context.Background(), "Streaming")
	require.NoError(t, err)

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event: "+eventbus.TypeSkillCreated) {
			break
		}
	}
	data, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, data, `"name":"Streaming"`)
}

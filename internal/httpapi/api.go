package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yuqie6/SkillForge/internal/dto"
	"github.com/yuqie6/SkillForge/internal/eventbus"
	"github.com/yuqie6/SkillForge/internal/leaderboard"
	"github.com/yuqie6/SkillForge/internal/schema"
)

// SkillEngine HTTP 层依赖的进度引擎操作
type SkillEngine interface {
	CreateSkill(ctx context.Context, name string) (schema.Skill, error)
	LogSession(ctx context.Context, skillID int64, durationMinutes int) (schema.Skill, error)
	DeleteSkill(ctx context.Context, skillID int64) (schema.Skill, error)
	ListSkills(ctx context.Context) ([]schema.Skill, error)
	GetSkill(ctx context.Context, skillID int64) (schema.Skill, error)
	ListSessions(ctx context.Context, skillID int64) ([]schema.TrainingSession, error)
}

type Deps struct {
	Skills      SkillEngine
	Board       leaderboard.Board
	Hub         *eventbus.Hub
	Name        string
	Version     string
	Storage     string
	CORSOrigins []string
}

const defaultLeaderboardLimit = 10

type apiServer struct {
	deps      Deps
	startTime time.Time
}

// NewHandler 构建完整的 HTTP 处理链（路由 + 中间件）
func NewHandler(deps Deps) http.Handler {
	if deps.Hub == nil {
		deps.Hub = eventbus.NewHub()
	}
	a := &apiServer{deps: deps, startTime: time.Now()}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.wrapGET(a.handleHealth))
	for _, prefix := range []string{"/api", ""} {
		a.registerJSONRoutes(mux, prefix)
	}

	var h http.Handler = mux
	h = corsMiddleware(deps.CORSOrigins, h)
	h = recoverMiddleware(h)
	h = requestLogMiddleware(h)
	return h
}

func (a *apiServer) registerJSONRoutes(mux *http.ServeMux, prefix string) {
	mux.HandleFunc(prefix+"/skills", a.wrapMethods(map[string]http.HandlerFunc{
		http.MethodGet:  a.listSkills,
		http.MethodPost: a.createSkill,
	}))
	mux.HandleFunc(prefix+"/skills/{id}", a.wrapMethods(map[string]http.HandlerFunc{
		http.MethodGet:    a.getSkill,
		http.MethodDelete: a.deleteSkill,
	}))
	mux.HandleFunc(prefix+"/skills/{id}/sessions", a.wrapGET(a.listSkillSessions))
	mux.HandleFunc(prefix+"/sessions", a.wrapPOST(a.logSession))
	mux.HandleFunc(prefix+"/leaderboard", a.wrapGET(a.getLeaderboard))
	mux.HandleFunc(prefix+"/events", a.wrapGET(a.handleSSE))
}

func (a *apiServer) wrapGET(fn http.HandlerFunc) http.HandlerFunc {
	return a.wrapMethods(map[string]http.HandlerFunc{http.MethodGet: fn})
}

func (a *apiServer) wrapPOST(fn http.HandlerFunc) http.HandlerFunc {
	return a.wrapMethods(map[string]http.HandlerFunc{http.MethodPost: fn})
}

func (a *apiServer) wrapMethods(handlers map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn, ok := handlers[r.Method]
		if !ok {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		fn(w, r)
	}
}

func (a *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.HealthDTO{
		OK:        true,
		Name:      a.deps.Name,
		Version:   a.deps.Version,
		Storage:   a.deps.Storage,
		StartedAt: a.startTime.Format(time.RFC3339),
	})
}

func (a *apiServer) listSkills(w http.ResponseWriter, r *http.Request) {
	skills, err := a.deps.Skills.ListSkills(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSkillDTOs(skills))
}

func (a *apiServer) createSkill(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateSkillRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == nil {
		writeError(w, http.StatusBadRequest, "Skill name is required")
		return
	}
	skill, err := a.deps.Skills.CreateSkill(r.Context(), *req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.NewSkillDTO(skill))
}

func (a *apiServer) getSkill(w http.ResponseWriter, r *http.Request) {
	id, ok := skillIDFromPath(w, r)
	if !ok {
		return
	}
	skill, err := a.deps.Skills.GetSkill(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSkillDTO(skill))
}

func (a *apiServer) deleteSkill(w http.ResponseWriter, r *http.Request) {
	id, ok := skillIDFromPath(w, r)
	if !ok {
		return
	}
	skill, err := a.deps.Skills.DeleteSkill(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{
		Message: fmt.Sprintf("Skill '%s' and all its sessions have been deleted", skill.Name),
	})
}

func (a *apiServer) listSkillSessions(w http.ResponseWriter, r *http.Request) {
	id, ok := skillIDFromPath(w, r)
	if !ok {
		return
	}
	sessions, err := a.deps.Skills.ListSessions(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewTrainingSessionDTOs(sessions))
}

func (a *apiServer) logSession(w http.ResponseWriter, r *http.Request) {
	var req dto.LogSessionRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SkillID == nil || req.DurationMinutes == nil {
		writeError(w, http.StatusBadRequest, "skill_id and duration_minutes are required")
		return
	}
	skill, err := a.deps.Skills.LogSession(r.Context(), *req.SkillID, *req.DurationMinutes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSkillDTO(skill))
}

func (a *apiServer) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	if a.deps.Board == nil {
		writeError(w, http.StatusServiceUnavailable, "leaderboard not configured")
		return
	}
	limit := defaultLeaderboardLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	entries, err := a.deps.Board.Top(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]dto.LeaderboardEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.LeaderboardEntryDTO{Rank: e.Rank, SkillID: e.SkillID, Name: e.Name, TotalXP: e.TotalXP})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *apiServer) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "stream not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	sub := a.deps.Hub.Subscribe(ctx, 32)

	_, _ = io.WriteString(w, "event: ready\n")
	_, _ = io.WriteString(w, "data: {}\n\n")
	flusher.Flush()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, "event: ping\n")
			_, _ = io.WriteString(w, "data: {}\n\n")
			flusher.Flush()
		case evt, ok := <-sub:
			if !ok {
				return
			}
			b, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			_, _ = io.WriteString(w, "event: "+sanitizeSSEName(evt.Type)+"\n")
			_, _ = io.WriteString(w, "data: ")
			_, _ = w.Write(b)
			_, _ = io.WriteString(w, "\n\n")
			flusher.Flush()
		}
	}
}

func sanitizeSSEName(name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return "message"
	}
	n = strings.ReplaceAll(n, "\n", "")
	n = strings.ReplaceAll(n, "\r", "")
	return n
}

func skillIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseInt64Param(r.PathValue("id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "Skill not found")
		return 0, false
	}
	return id, true
}

package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/colonyops/buildsched/internal/core/schedule"
	"github.com/colonyops/buildsched/internal/data/stores"
	"github.com/colonyops/buildsched/internal/scheduler"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.app.DB.Conn().PingContext(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "clients": s.hub.Clients()})
}

// GET /projects
func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.app.Projects.ListProjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// requireProject answers 404 for unknown projects before a coordinator is
// created for them.
func (s *Server) requireProject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "projectID")
		if _, err := s.app.Projects.GetProject(r.Context(), id); err != nil {
			if errors.Is(err, stores.ErrProjectNotFound) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GET /projects/{projectID}/schedule
func (s *Server) getSchedule(w http.ResponseWriter, r *http.Request) {
	board, err := s.app.Board(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// POST /projects/{projectID}/reload
func (s *Server) reload(w http.ResponseWriter, r *http.Request) {
	c, ok := s.coordinator(w, r)
	if !ok {
		return
	}
	if err := c.Reload(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.getSchedule(w, r)
}

// GET /projects/{projectID}/export?format=csv|json|daily&per_phase=true
func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	board, err := s.app.Board(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	perPhase, _ := strconv.ParseBool(r.URL.Query().Get("per_phase"))

	switch format := r.URL.Query().Get("format"); format {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", board.Project.ID+"-schedule.csv"))
		if err := schedule.WriteCSV(w, board.Export(perPhase)); err != nil {
			s.log.Error().Err(err).Msg("writing csv export")
		}
	case "json":
		writeJSON(w, http.StatusOK, board.Export(perPhase))
	case "daily":
		days, err := schedule.DailyBreakdown(board.Tasks)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, days)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown export format %q", format))
	}
}

// POST /projects/{projectID}/warnings/{warningID}/dismiss
func (s *Server) dismissWarning(w http.ResponseWriter, r *http.Request) {
	c, ok := s.coordinator(w, r)
	if !ok {
		return
	}
	c.Dismiss(chi.URLParam(r, "warningID"))
	w.WriteHeader(http.StatusNoContent)
}

type orderModeRequest struct {
	Mode schedule.SortMode `json:"mode"`
}

// PUT /projects/{projectID}/order/mode
func (s *Server) setOrderMode(w http.ResponseWriter, r *http.Request) {
	var req orderModeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, ok := s.coordinator(w, r)
	if !ok {
		return
	}

	prefs, err := s.app.Preferences.SetMode(r.Context(), c.ProjectID(), c.Tasks(), req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// POST /projects/{projectID}/order/{taskID}/{direction}
func (s *Server) moveInOrder(w http.ResponseWriter, r *http.Request) {
	c, ok := s.coordinator(w, r)
	if !ok {
		return
	}

	dir := scheduler.Direction(chi.URLParam(r, "direction"))
	prefs, err := s.app.Preferences.Move(r.Context(), c.ProjectID(), c.Tasks(), chi.URLParam(r, "taskID"), dir)
	if err != nil {
		writeTaskError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// PUT /projects/{projectID}/tasks/{taskID}
func (s *Server) saveTask(w http.ResponseWriter, r *http.Request) {
	var edit scheduler.TaskEdit
	if err := decodeJSON(r, &edit); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	edit.TaskID = chi.URLParam(r, "taskID")

	c, ok := s.coordinator(w, r)
	if !ok {
		return
	}
	if err := c.SaveTask(r.Context(), edit); err != nil {
		writeTaskError(w, err)
		return
	}
	s.writeTask(w, c, edit.TaskID)
}

// GET /projects/{projectID}/tasks/{taskID}/detail
func (s *Server) canOpenDetail(w http.ResponseWriter, r *http.Request) {
	c, ok := s.coordinator(w, r)
	if !ok {
		return
	}
	taskID := chi.URLParam(r, "taskID")
	writeJSON(w, http.StatusOK, map[string]any{
		"task_id": taskID,
		"open":    c.ShouldOpenDetail(taskID),
	})
}

// POST /projects/{projectID}/tasks/{taskID}/drag/begin
func (s *Server) beginDrag(w http.ResponseWriter, r *http.Request) {
	c, ok := s.coordinator(w, r)
	if !ok {
		return
	}
	if err := c.BeginDrag(chi.URLParam(r, "taskID")); err != nil {
		writeTaskError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /projects/{projectID}/tasks/{taskID}/drag/cancel
func (s *Server) cancelDrag(w http.ResponseWriter, r *http.Request) {
	c, ok := s.coordinator(w, r)
	if !ok {
		return
	}
	c.CancelDrag(chi.URLParam(r, "taskID"))
	w.WriteHeader(http.StatusNoContent)
}

// dragEndRequest carries calendar dates as YYYY-MM-DD.
type dragEndRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// POST /projects/{projectID}/tasks/{taskID}/drag/end
//
// The new dates are applied at once and written after the debounce; the
// response reflects local state, not storage.
func (s *Server) endDrag(w http.ResponseWriter, r *http.Request) {
	var req dragEndRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, err := schedule.ParseDate(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := schedule.ParseDate(req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, ok := s.coordinator(w, r)
	if !ok {
		return
	}
	taskID := chi.URLParam(r, "taskID")
	if err := c.EndDrag(taskID, start, end); err != nil {
		writeTaskError(w, err)
		return
	}
	s.writeTask(w, c, taskID)
}

type moveRequest struct {
	Days int `json:"days"`
}

// POST /projects/{projectID}/tasks/{taskID}/move
func (s *Server) moveTask(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, ok := s.coordinator(w, r)
	if !ok {
		return
	}
	taskID := chi.URLParam(r, "taskID")
	if err := c.Move(taskID, req.Days); err != nil {
		writeTaskError(w, err)
		return
	}
	s.writeTask(w, c, taskID)
}

// GET /notifications?visible=true
func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	if visible, _ := strconv.ParseBool(r.URL.Query().Get("visible")); visible {
		writeJSON(w, http.StatusOK, s.app.Notices.Visible())
		return
	}

	history, err := s.app.Notices.History(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// DELETE /notifications
func (s *Server) clearNotifications(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Notices.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// taskResponse is a task with the state of its latest edit.
type taskResponse struct {
	Task  schedule.Task       `json:"task"`
	State scheduler.EditState `json:"state"`
}

func (s *Server) writeTask(w http.ResponseWriter, c *scheduler.Coordinator, taskID string) {
	t, ok := c.Task(taskID)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("task %s not found", taskID))
		return
	}
	writeJSON(w, http.StatusOK, taskResponse{Task: t, State: c.State(taskID)})
}

func (s *Server) coordinator(w http.ResponseWriter, r *http.Request) (*scheduler.Coordinator, bool) {
	c, err := s.app.Coordinator(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return nil, false
	}
	return c, true
}

func writeTaskError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrTaskNotFound), errors.Is(err, schedule.ErrPhaseNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, schedule.ErrInvalidRange):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, scheduler.ErrNotLoaded):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

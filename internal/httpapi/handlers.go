package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"task-manager/internal/export"
	"task-manager/internal/model"
	"task-manager/internal/task"
)

const (
	msgTitleRequired = "Task title is required"
	msgNotFound      = "Task not found"
	msgDeleted       = "Task deleted successfully"
)

// writeServiceError maps service errors to responses. Anything that is not a
// validation or lookup failure is logged and answered with failMsg.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, failMsg string) {
	switch {
	case errors.Is(err, task.ErrTitleRequired):
		writeError(w, http.StatusBadRequest, msgTitleRequired)
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, msgNotFound)
	default:
		s.logger.ErrorContext(r.Context(), "task operation failed",
			"rid", RequestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"err", err)
		writeError(w, http.StatusInternalServerError, failMsg)
	}
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	filters, err := parseListFilters(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tasks, err := s.service.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to fetch tasks. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, filterTasks(tasks, filters))
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	created, err := s.service.Create(r.Context(), req.Title, req.Description)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to create task. Please try again.")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	found, err := s.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to fetch task. Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var patch model.TaskPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeDecodeError(w, err)
		return
	}

	updated, err := s.service.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to update task. Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err, "Failed to delete task. Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msgDeleted})
}

func (s *Server) handleExportTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format, err := export.ParseFormat(q.Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "format must be json, csv or pdf")
		return
	}
	filters, err := parseListFilters(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tasks, err := s.service.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to export tasks. Please try again.")
		return
	}

	body, err := export.Export(filterTasks(tasks, filters), format)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to export tasks. Please try again.")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename()))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

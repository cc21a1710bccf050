// Package api exposes the insights service over HTTP as JSON, with XLSX
// variants for the class summary and parent reports.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/p-n-ai/pai-insights/internal/analytics"
	"github.com/p-n-ai/pai-insights/internal/insights"
	"github.com/p-n-ai/pai-insights/internal/quizgen"
	"github.com/p-n-ai/pai-insights/internal/report"
	"github.com/p-n-ai/pai-insights/internal/store"
	"github.com/p-n-ai/pai-insights/internal/student"
)

const maxBodyBytes = 1 << 20

// Check is a named readiness probe.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Config holds the dependencies of the HTTP handler.
type Config struct {
	Service *insights.Service
	Quizzes *quizgen.Generator
	Push    http.Handler // websocket endpoint for live notifications; optional
	Checks  []Check
}

type server struct {
	svc     *insights.Service
	quizzes *quizgen.Generator
	checks  []Check
}

// NewHandler builds the HTTP router. The websocket endpoint is mounted
// outside the request logger so the connection can be hijacked.
func NewHandler(cfg Config) http.Handler {
	s := &server{svc: cfg.Service, quizzes: cfg.Quizzes, checks: cfg.Checks}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("GET /students", s.handleStudents)
	mux.HandleFunc("GET /students/{id}/profile", s.handleProfile)
	mux.HandleFunc("POST /students/{id}/quiz-results", s.handleQuizResults)
	mux.HandleFunc("POST /students/{id}/chat-logs", s.handleChatLogs)
	mux.HandleFunc("POST /students/{id}/activities", s.handleActivity)
	mux.HandleFunc("POST /students/{id}/goals", s.handleGoal)
	mux.HandleFunc("POST /students/{id}/moods", s.handleMood)

	mux.HandleFunc("GET /analytics/class-summary", s.handleClassSummary)
	mux.HandleFunc("GET /analytics/class-summary.xlsx", s.handleClassSummaryXLSX)
	mux.HandleFunc("GET /analytics/overview", s.handleOverview)
	mux.HandleFunc("GET /performance-data", s.handlePerformance)
	mux.HandleFunc("GET /teacher-stats", s.handleTeacherStats)
	mux.HandleFunc("GET /interventions", s.handleInterventions)
	mux.HandleFunc("GET /assignments", s.handleAssignments)
	mux.HandleFunc("POST /assignments", s.handleCreateAssignment)

	mux.HandleFunc("GET /parents/{id}/progress", s.handleParentProgress)
	mux.HandleFunc("GET /parents/{id}/recommendations", s.handleParentRecommendations)
	mux.HandleFunc("GET /parents/{id}/reports", s.handleParentReport)
	mux.HandleFunc("GET /parents/{id}/reports.xlsx", s.handleParentReportXLSX)
	mux.HandleFunc("GET /parents/{id}/notifications", s.handleNotifications)
	mux.HandleFunc("POST /parents/{id}/notifications/generate", s.handleGenerateNotifications)
	mux.HandleFunc("POST /parents/{id}/notifications/{nid}/read", s.handleMarkRead)

	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /daily-quiz", s.handleDailyQuiz)
	mux.HandleFunc("POST /custom-quiz", s.handleCustomQuiz)

	root := http.NewServeMux()
	if cfg.Push != nil {
		root.Handle("GET /ws/notifications", cfg.Push)
	}
	root.Handle("/", logRequests(mux))
	return root
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	for _, c := range s.checks {
		if err := c.Ping(ctx); err != nil {
			slog.Warn("readiness check failed", "check", c.Name, "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "check": c.Name})
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

func studentQuery(r *http.Request) insights.StudentQuery {
	q := r.URL.Query()
	return insights.StudentQuery{
		Grade:   q.Get("grade"),
		Section: q.Get("section"),
		School:  q.Get("school"),
		Search:  q.Get("search"),
	}
}

// period reads the period query parameter. Missing means weekly.
func period(r *http.Request) analytics.Period {
	p := r.URL.Query().Get("period")
	if p == "" {
		return analytics.PeriodWeekly
	}
	return analytics.ParsePeriod(p)
}

func wantsXLSX(r *http.Request) bool {
	return r.URL.Query().Get("format") == "xlsx"
}

func (s *server) handleStudents(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Students(r.Context(), studentQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.StudentProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type quizResultsRequest struct {
	SummaryData map[string]student.Answer `json:"summary_data"`
}

func (s *server) handleQuizResults(w http.ResponseWriter, r *http.Request) {
	var req quizResultsRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.svc.RecordQuiz(r.Context(), r.PathValue("id"), req.SummaryData)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"status":  "Quiz results saved",
		"summary": res.Entries,
		"id":      res.ID,
	})
}

type chatLogsRequest struct {
	Messages []student.ChatLog `json:"messages"`
}

func (s *server) handleChatLogs(w http.ResponseWriter, r *http.Request) {
	var req chatLogsRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.svc.RecordChat(r.Context(), r.PathValue("id"), req.Messages); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"status": "Chat log saved", "count": len(req.Messages)})
}

func (s *server) handleActivity(w http.ResponseWriter, r *http.Request) {
	var a student.Activity
	if !decode(w, r, &a) {
		return
	}
	saved, err := s.svc.RecordActivity(r.Context(), r.PathValue("id"), a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *server) handleGoal(w http.ResponseWriter, r *http.Request) {
	var g student.Goal
	if !decode(w, r, &g) {
		return
	}
	saved, err := s.svc.RecordGoal(r.Context(), r.PathValue("id"), g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

type moodRequest struct {
	Mood string `json:"mood"`
}

func (s *server) handleMood(w http.ResponseWriter, r *http.Request) {
	var req moodRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.svc.RecordMood(r.Context(), r.PathValue("id"), req.Mood); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "Mood saved"})
}

func (s *server) handleClassSummary(w http.ResponseWriter, r *http.Request) {
	if wantsXLSX(r) {
		s.handleClassSummaryXLSX(w, r)
		return
	}
	sum, err := s.svc.ClassSummary(r.Context(), studentQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *server) handleClassSummaryXLSX(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.ClassSummary(r.Context(), studentQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeWorkbook(w, r, "class-summary.xlsx", func(out io.Writer) error {
		return report.WriteClassSummary(out, sum)
	})
}

func (s *server) handleOverview(w http.ResponseWriter, r *http.Request) {
	o, err := s.svc.Overview(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	data, err := s.svc.PerformanceData(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *server) handleTeacherStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.TeacherStats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *server) handleInterventions(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Interventions(r.Context(), studentQuery(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleAssignments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := s.svc.Assignments(r.Context(), q.Get("grade"), q.Get("section"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	var a student.Assignment
	if !decode(w, r, &a) {
		return
	}
	saved, err := s.svc.CreateAssignment(r.Context(), a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *server) handleParentProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.ParentProgress(r.Context(), r.PathValue("id"), period(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handleParentRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := s.svc.ParentRecommendations(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

type parentReportResponse struct {
	Student string           `json:"student"`
	Report  analytics.Report `json:"report"`
}

func (s *server) handleParentReport(w http.ResponseWriter, r *http.Request) {
	if wantsXLSX(r) {
		s.handleParentReportXLSX(w, r)
		return
	}
	rep, info, err := s.svc.ParentReport(r.Context(), r.PathValue("id"), period(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, parentReportResponse{Student: info.Name, Report: rep})
}

func (s *server) handleParentReportXLSX(w http.ResponseWriter, r *http.Request) {
	rep, info, err := s.svc.ParentReport(r.Context(), r.PathValue("id"), period(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("report-%s-%s.xlsx", info.ID, rep.Period)
	writeWorkbook(w, r, name, func(out io.Writer) error {
		return report.WriteParentReport(out, info.Name, rep)
	})
}

func (s *server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	ns, err := s.svc.Notifications(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ns)
}

func (s *server) handleGenerateNotifications(w http.ResponseWriter, r *http.Request) {
	created, err := s.svc.GenerateParentNotifications(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"created": len(created), "notifications": created})
}

func (s *server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.MarkNotificationRead(r.Context(), r.PathValue("id"), r.PathValue("nid")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "Notification marked as read"})
}

func (s *server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req insights.ChatRequest
	if !decode(w, r, &req) {
		return
	}
	reply, err := s.svc.Chat(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *server) handleDailyQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := s.quizzes.Daily(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

type customQuizResponse struct {
	Topic      string             `json:"topic"`
	Difficulty string             `json:"difficulty"`
	Questions  []quizgen.Question `json:"questions"`
}

func (s *server) handleCustomQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizgen.CustomRequest
	if !decode(w, r, &req) {
		return
	}
	qs, err := s.quizzes.Custom(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if qs == nil {
		qs = []quizgen.Question{}
	}
	req = req.Normalize()
	writeJSON(w, http.StatusOK, customQuizResponse{Topic: req.Topic, Difficulty: req.Difficulty, Questions: qs})
}

// decode reads a JSON body into v and answers 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

// writeError maps service errors onto status codes. Unexpected errors are
// logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, insights.ErrInvalidInput),
		errors.Is(err, student.ErrInvalidSummary),
		errors.Is(err, quizgen.ErrTopicRequired):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// writeWorkbook renders into memory first so a rendering error can still
// become a 500.
func writeWorkbook(w http.ResponseWriter, r *http.Request, filename string, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		writeError(w, r, fmt.Errorf("render %s: %w", filename, err))
		return
	}
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("failed to write workbook", "file", filename, "error", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

package server

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/jonathan/a11y-audit/internal/audit"
	"github.com/jonathan/a11y-audit/internal/server/middleware"
	"github.com/jonathan/a11y-audit/internal/types"
)

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAudit runs an audit of ?url= and returns the report.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if _, err := audit.Validate(target); err != nil {
		s.errorResponse(w, http.StatusBadRequest, types.InvalidURLMessage)
		return
	}

	report, err := s.runner.RunWithProgress(r.Context(), target, nil)
	if err != nil {
		s.logger.Warn("audit failed",
			zap.String("url", target),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err),
		)
		s.errorResponse(w, HTTPStatus(err), errorMessage(err))
		return
	}

	s.jsonResponse(w, http.StatusOK, report)
}

// handleAuditStream runs an audit and streams each check result as it completes.
func (s *Server) handleAuditStream(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if _, err := audit.Validate(target); err != nil {
		s.errorResponse(w, http.StatusBadRequest, types.InvalidURLMessage)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	report, err := s.runner.RunWithProgress(r.Context(), target, func(ev audit.ProgressEvent) {
		switch ev.Step {
		case audit.StepCheck:
			_ = sse.WriteEvent("check", ev.Content)
		case audit.StepComplete:
			// The report is sent once the run returns.
		default:
			_ = sse.WriteEvent("progress", ev)
		}
	})
	if err != nil {
		s.logger.Warn("streamed audit failed",
			zap.String("url", target),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err),
		)
		sse.WriteError(HTTPStatus(err), errorMessage(err))
		return
	}
	sse.WriteComplete(report)
}

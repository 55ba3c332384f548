package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wattson-io/wattson-core/internal/actuation"
	"github.com/wattson-io/wattson-core/internal/agent"
	"github.com/wattson-io/wattson-core/internal/audit"
	"github.com/wattson-io/wattson-core/internal/building"
)

// apiSource tags actuations initiated through the REST surface.
const apiSource = "api"

// ─── Chat ───

type chatRequest struct {
	Message  string `json:"message"`
	Actor    string `json:"actor"`
	Language string `json:"language"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeInternal, "chat service not configured")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Message == "" {
		writeBadRequest(w, "message is required")
		return
	}
	if req.Actor == "" {
		req.Actor = "operator"
	}
	if req.Language == "" {
		req.Language = "en"
	}

	reply, err := s.chat.Process(r.Context(), req.Actor, req.Message, req.Language)
	if err != nil {
		s.logger.Error("chat processing failed", "error", err)
		writeInternalError(w, "failed to process message")
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

// ─── Agents ───

func (s *Server) handleListAgents(w http.ResponseWriter, _ *http.Request) {
	if s.orchestrator == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeInternal, "agent roster not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"agents": s.orchestrator.Agents(),
	})
}

type teachRequest struct {
	Agent       string `json:"agent"`
	Instruction string `json:"instruction"`
}

func (s *Server) handleTeach(w http.ResponseWriter, r *http.Request) {
	if s.orchestrator == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeInternal, "agent roster not configured")
		return
	}

	var req teachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Agent == "" || req.Instruction == "" {
		writeBadRequest(w, "agent and instruction are required")
		return
	}

	msg, err := s.orchestrator.Teach(r.Context(), req.Agent, req.Instruction)
	if err != nil {
		if errors.Is(err, agent.ErrAgentNotFound) {
			writeNotFound(w, "no agent matches "+req.Agent)
			return
		}
		s.logger.Error("teaching failed", "agent", req.Agent, "error", err)
		writeInternalError(w, "failed to record instruction")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// ─── Building ───

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.building.Snapshot(r.Context())
	if err != nil {
		s.logger.Error("snapshot failed", "error", err)
		writeInternalError(w, "failed to assemble snapshot")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.building.ListRooms(r.Context())
	if err != nil {
		s.logger.Error("listing rooms failed", "error", err)
		writeInternalError(w, "failed to list rooms")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	room, err := s.building.GetRoom(r.Context(), id)
	if err != nil {
		if errors.Is(err, building.ErrRoomNotFound) {
			writeNotFound(w, "room "+id+" not found")
			return
		}
		s.logger.Error("getting room failed", "room_id", id, "error", err)
		writeInternalError(w, "failed to get room")
		return
	}

	sensors, err := s.building.ListSensorsByRoom(r.Context(), id)
	if err != nil {
		s.logger.Error("listing room sensors failed", "room_id", id, "error", err)
		writeInternalError(w, "failed to list room sensors")
		return
	}
	devices, err := s.building.ListDevicesByRoom(r.Context(), id)
	if err != nil {
		s.logger.Error("listing room devices failed", "room_id", id, "error", err)
		writeInternalError(w, "failed to list room devices")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"room":    room,
		"sensors": sensors,
		"devices": devices,
	})
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.building.ListDevices(r.Context())
	if err != nil {
		s.logger.Error("listing devices failed", "error", err)
		writeInternalError(w, "failed to list devices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices})
}

type deviceCommandRequest struct {
	Command string `json:"command"`
}

func (s *Server) handleDeviceCommand(w http.ResponseWriter, r *http.Request) {
	if s.actuator == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeInternal, "actuation not configured")
		return
	}
	id := chi.URLParam(r, "id")

	var req deviceCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.actuator.Apply(r.Context(), id, req.Command, apiSource); err != nil {
		switch {
		case errors.Is(err, actuation.ErrInvalidCommand):
			writeBadRequest(w, "command must be ON or OFF")
		case errors.Is(err, actuation.ErrDeviceNotFound):
			writeNotFound(w, "device "+id+" not found")
		default:
			s.logger.Error("device command failed", "device_id", id, "error", err)
			writeInternalError(w, "failed to apply command")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"device_id": id,
		"status":    req.Command,
	})
}

// ─── Audit ───

func (s *Server) handleListDecisions(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r)

	var (
		decisions []audit.Decision
		err       error
	)
	if agentName := r.URL.Query().Get("agent"); agentName != "" {
		decisions, err = s.audit.ListDecisionsByAgent(r.Context(), agentName, limit)
	} else {
		decisions, err = s.audit.ListDecisions(r.Context(), limit)
	}
	if err != nil {
		s.logger.Error("listing decisions failed", "error", err)
		writeInternalError(w, "failed to list decisions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"decisions": decisions})
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.audit.ListAlerts(r.Context(), queryLimit(r))
	if err != nil {
		s.logger.Error("listing alerts failed", "error", err)
		writeInternalError(w, "failed to list alerts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

func (s *Server) handleAcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.audit.AcknowledgeAlert(r.Context(), id); err != nil {
		if errors.Is(err, audit.ErrAlertNotFound) {
			writeNotFound(w, "alert "+id+" not found")
			return
		}
		s.logger.Error("acknowledging alert failed", "alert_id", id, "error", err)
		writeInternalError(w, "failed to acknowledge alert")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"alert_id": id, "acknowledged": "true"})
}

func (s *Server) handleListSafetyEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.audit.ListSafetyEvents(r.Context(), queryLimit(r))
	if err != nil {
		s.logger.Error("listing safety events failed", "error", err)
		writeInternalError(w, "failed to list safety events")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"safety_events": events})
}

// queryLimit parses the limit query parameter; 0 lets the repository apply
// its default.
func queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ordos-scada/ordos-core/internal/ied"
)

// handleListDevices returns the fleet from the registry snapshot.
//
// Query parameters:
//   - connected: "true"/"false" filters by current reachability
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices := s.registry.Devices()

	if filter := r.URL.Query().Get("connected"); filter != "" {
		want := filter == "true"
		filtered := make([]*ied.Device, 0, len(devices))
		for _, d := range devices {
			if d.IsConnected == want {
				filtered = append(filtered, d)
			}
		}
		devices = filtered
	}

	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns a single device with its recording history.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dev, err := s.registry.GetDevice(id)
	if err != nil {
		if errors.Is(err, ied.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	writeJSON(w, http.StatusOK, dev)
}

// CreateDeviceRequest is the JSON body for provisioning a device.
type CreateDeviceRequest struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	IPAddress string `json:"ip_address"`
}

// handleCreateDevice provisions a new device. An ID is generated when the
// request omits one.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req CreateDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeBadRequest(w, "name is required")
		return
	}

	dev := &ied.Device{
		ID:        req.ID,
		Name:      req.Name,
		IPAddress: req.IPAddress,
	}
	if dev.ID == "" {
		dev.ID = ied.GenerateID()
	}

	if err := s.repo.Create(r.Context(), dev); err != nil {
		switch {
		case errors.Is(err, ied.ErrDeviceExists):
			writeError(w, http.StatusConflict, ErrCodeConflict, "device already exists")
		case errors.Is(err, ied.ErrInvalidDevice):
			writeBadRequest(w, err.Error())
		default:
			s.logger.Error("failed to create device", "error", err)
			writeInternalError(w, "failed to create device")
		}
		return
	}

	if err := s.registry.Refresh(r.Context()); err != nil {
		s.logger.Warn("snapshot refresh after create failed", "error", err)
	}

	writeJSON(w, http.StatusCreated, dev)
}

// handleDeleteDevice removes a device and its retrieval history.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ied.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("failed to delete device", "device_id", id, "error", err)
		writeInternalError(w, "failed to delete device")
		return
	}

	if err := s.registry.Refresh(r.Context()); err != nil {
		s.logger.Warn("snapshot refresh after delete failed", "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleListRecordings returns a device's disturbance recordings.
func (s *Server) handleListRecordings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	recordings, err := s.repo.ListRecordings(r.Context(), id)
	if err != nil {
		if errors.Is(err, ied.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("failed to list recordings", "device_id", id, "error", err)
		writeInternalError(w, "failed to list recordings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"recordings": recordings, "count": len(recordings)})
}

// handleListFiles returns a device's retrieved files.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	files, err := s.repo.ListIEDFiles(r.Context(), id)
	if err != nil {
		if errors.Is(err, ied.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("failed to list files", "device_id", id, "error", err)
		writeInternalError(w, "failed to list files")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"files": files, "count": len(files)})
}

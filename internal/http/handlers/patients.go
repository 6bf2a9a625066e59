package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/txtalert/platform/internal/patients"
	"github.com/txtalert/platform/pkg/logging"
)

// PatientsHandler serves read-only patient lookups for admins.
type PatientsHandler struct {
	store  patients.Store
	logger *logging.Logger
}

func NewPatientsHandler(store patients.Store, logger *logging.Logger) *PatientsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &PatientsHandler{store: store, logger: logger.Component("patients_handler")}
}

type patientResponse struct {
	TeID         string    `json:"te_id"`
	Owner        string    `json:"owner"`
	ActiveMSISDN string    `json:"active_msisdn,omitempty"`
	MSISDNs      []string  `json:"msisdns"`
	LastClinicID string    `json:"last_clinic_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Get handles GET /admin/patients/{te_id}. Soft-deleted patients are not
// exposed.
func (h *PatientsHandler) Get(w http.ResponseWriter, r *http.Request) {
	teID := chi.URLParam(r, "te_id")

	p, err := h.store.GetByTeID(r.Context(), teID)
	if err != nil {
		if errors.Is(err, patients.ErrNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		h.logger.Error("patient lookup failed", "te_id", teID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := patientResponse{
		TeID:         p.TeID,
		Owner:        p.Owner,
		ActiveMSISDN: p.ActiveMSISDN,
		MSISDNs:      p.MSISDNs,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if resp.MSISDNs == nil {
		resp.MSISDNs = []string{}
	}
	if p.LastClinicID != uuid.Nil {
		resp.LastClinicID = p.LastClinicID.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

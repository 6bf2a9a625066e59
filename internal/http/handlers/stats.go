package handlers

import (
	"database/sql"
	"net/http"

	"github.com/txtalert/platform/pkg/logging"
)

// StatsHandler reports aggregate platform numbers straight from the
// database.
type StatsHandler struct {
	db     *sql.DB
	logger *logging.Logger
}

func NewStatsHandler(db *sql.DB, logger *logging.Logger) *StatsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatsHandler{db: db, logger: logger.Component("stats_handler")}
}

type statsResponse struct {
	Patients       int            `json:"patients"`
	VisitsByStatus map[string]int `json:"visits_by_status"`
	RemindersSent  int            `json:"reminders_sent"`
}

// Get handles GET /admin/stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := statsResponse{VisitsByStatus: map[string]int{}}

	err := h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM patients WHERE NOT deleted`).Scan(&resp.Patients)
	if err != nil {
		h.logger.Error("patient count failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	rows, err := h.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM visits GROUP BY status`)
	if err != nil {
		h.logger.Error("visit counts failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			h.logger.Error("visit count scan failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		resp.VisitsByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		h.logger.Error("visit counts failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	err = h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sms_sends`).Scan(&resp.RemindersSent)
	if err != nil {
		h.logger.Error("send count failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

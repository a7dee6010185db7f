package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/carson-networks/project-ledger/internal/logging"
)

const pingTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type response struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

type Handler struct {
	DB Pinger
}

// NewHandler creates a status handler. db may be nil for the in-memory backend.
func NewHandler(db Pinger) Handler {
	return Handler{DB: db}
}

func (h *Handler) Handler(w http.ResponseWriter, req *http.Request, logData *logging.LogData) error {
	if req.Method != http.MethodGet {
		w.WriteHeader(http.StatusBadRequest)
		return errors.New("status: method not GET")
	}

	body := response{Status: "ok", Storage: "memory"}
	code := http.StatusOK
	var pingErr error
	if h.DB != nil {
		body.Storage = "ok"
		ctx, cancel := context.WithTimeout(req.Context(), pingTimeout)
		stopTimer := logData.AddTiming("pingMs")
		pingErr = h.DB.PingContext(ctx)
		stopTimer()
		cancel()
		if pingErr != nil {
			body.Status = "unavailable"
			body.Storage = "unreachable"
			code = http.StatusServiceUnavailable
		}
	}
	logData.AddData("storage", body.Storage)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		return err
	}
	if pingErr != nil {
		return errors.Join(errors.New("status: storage ping failed"), pingErr)
	}
	return nil
}

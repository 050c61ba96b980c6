package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"swarm-defense/internal/game"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 4 << 10

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()
	resp := map[string]interface{}{
		"status":   "ok",
		"ticks":    snap.Ticks,
		"gameOver": snap.GameOver,
	}
	if h.peerStats != nil {
		resp["peer"] = h.peerStats()
	}
	writeJSON(w, resp)
}

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	// Lock-free: the snapshot is immutable once published
	writeJSON(w, h.engine.Snapshot())
}

func (h *routerHandlers) handleClick(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := decodeJSON(w, r, &req); err != nil || req.X == nil || req.Y == nil {
		writeError(w, "x and y are required", http.StatusBadRequest)
		return
	}

	if !h.engine.Click(*req.X, *req.Y) {
		if h.engine.Snapshot().GameOver {
			writeError(w, "Run is over", http.StatusConflict)
			return
		}
		writeError(w, "Too many pending clicks", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]bool{"queued": true})
}

func (h *routerHandlers) handleGetShop(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"items": game.GetAllWeapons(),
		"coins": h.engine.Snapshot().Coins,
	})
}

func (h *routerHandlers) handleShopBuy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID string `json:"itemId"`
	}
	if err := decodeJSON(w, r, &req); err != nil || req.ItemID == "" {
		writeError(w, "itemId is required", http.StatusBadRequest)
		return
	}

	killed, err := h.engine.Purchase(req.ItemID)
	switch {
	case errors.Is(err, game.ErrUnknownItem):
		writeError(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, game.ErrInsufficientCoins):
		writeError(w, err.Error(), http.StatusPaymentRequired)
		return
	case errors.Is(err, game.ErrGameOver):
		writeError(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		log.Printf("❌ Purchase %q failed: %v", req.ItemID, err)
		writeError(w, "Purchase failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"success": true,
		"itemId":  req.ItemID,
		"killed":  killed,
		"coins":   h.engine.Snapshot().Coins,
	})
}

func (h *routerHandlers) handleFrame(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		writeError(w, "Rendering disabled", http.StatusNotFound)
		return
	}

	start := time.Now()
	var buf bytes.Buffer
	if err := h.renderer.EncodePNG(&buf, h.engine.Snapshot()); err != nil {
		log.Printf("❌ Frame render failed: %v", err)
		writeError(w, "Render failed", http.StatusInternalServerError)
		return
	}
	RecordRender(time.Since(start))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (h *routerHandlers) handleRestart(w http.ResponseWriter, r *http.Request) {
	log.Println("🔄 Restart requested via API")
	h.engine.Restart()
	writeJSON(w, map[string]bool{"success": true})
}

// Helper functions

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

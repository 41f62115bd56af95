package hotplug

import (
	"encoding/json"
	"fmt"
	"net/http"

	"tailscale.com/tsweb"
)

// AttachAdminRoutes serves the hub state under /debug/. These routes are
// accessible only over localhost/via Tailscale.
func (h *Hub) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	debug.HandleFunc("hotplug", "connected devices and feed subscribers", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		devices := h.Devices()
		fmt.Fprintf(w, "subscribers: %d\n", h.SubscriberCount())
		fmt.Fprintf(w, "devices: %d\n", len(devices))
		for _, d := range devices {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", d.Key, d.Name, d.Path)
		}
	})

	debug.HandleSilentFunc("hotplug-api", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		resp := struct {
			Subscribers int          `json:"subscribers"`
			Devices     []DeviceInfo `json:"devices"`
		}{
			Subscribers: h.SubscriberCount(),
			Devices:     h.Devices(),
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, "Failed to encode devices", http.StatusInternalServerError)
		}
	})
}

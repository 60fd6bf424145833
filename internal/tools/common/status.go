package common

import (
	"time"

	"github.com/trestlehq/trestle-mcp/internal/server"
	"github.com/trestlehq/trestle-mcp/internal/trestle"
)

// AuthStatusData builds the secret-free session status report shared by the
// trestle_auth_status tool and the trestle://session resource. It reports
// whether token material exists and when it lapses, never the material
// itself.
func AuthStatusData(sc *server.ServerContext) map[string]interface{} {
	status := sc.Sessions().Status()

	data := map[string]interface{}{
		"state":             status.State,
		"authenticated":     status.State == trestle.StateValid,
		"has_refresh_token": status.HasRefreshToken,
		"read_only":         sc.ReadOnly(),
	}
	if status.Identity != "" {
		data["identity"] = status.Identity
	}
	if !status.AcquiredAt.IsZero() {
		data["acquired_at"] = status.AcquiredAt.Format(time.RFC3339)
	}
	if !status.Expiry.IsZero() {
		data["expiry"] = status.Expiry.Format(time.RFC3339)
	}
	if status.State == trestle.StateValid {
		data["expires_in"] = time.Until(status.Expiry).Round(time.Second).String()
	}
	return data
}

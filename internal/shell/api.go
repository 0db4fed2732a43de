package shell

// Routes served by Server.
const (
	routeHealth   = "/healthz"
	routeMessages = "/api/v1/messages"
	routeHosts    = "/api/v1/hosts"
	routeCheck    = "/api/v1/hosts/check"
	routeDisable  = "/api/v1/hosts/disable"
	routeEnable   = "/api/v1/hosts/enable"
)

// HostRequest is the body of the disable and enable endpoints.
type HostRequest struct {
	URL  string `json:"url"`
	Mode string `json:"mode,omitempty"`
}

// HostStatus describes one host.
type HostStatus struct {
	Host     string `json:"host"`
	Disabled bool   `json:"disabled"`
	Mode     string `json:"mode,omitempty"`
}

// HostList lists every opted-out host.
type HostList struct {
	Persistent []string `json:"persistent"`
	Session    []string `json:"session"`
}

// errorResponse is the body of every error reply.
type errorResponse struct {
	Error string `json:"error"`
}

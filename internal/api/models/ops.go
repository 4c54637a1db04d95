package models

// Health represents the health status of the service.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SystemStatus represents the overall system status.
type SystemStatus struct {
	Status    HealthStatus           `json:"status"`
	Time      Timestamp              `json:"time"`
	Directory DirectoryStatus        `json:"directory"`
	Refresh   map[string]interface{} `json:"refresh,omitempty"`
	Providers []ProviderStatus       `json:"providers"`
}

// DirectoryStatus describes the station directory.
type DirectoryStatus struct {
	Loaded          bool       `json:"loaded"`
	StationCount    int        `json:"stationCount"`
	Provider        string     `json:"provider,omitempty"`
	LastRefreshedAt *Timestamp `json:"lastRefreshedAt,omitempty"`
	LastAttemptAt   *Timestamp `json:"lastAttemptAt,omitempty"`
	LastError       *string    `json:"lastError,omitempty"`
}

// ProviderStatus represents the status of an external provider.
type ProviderStatus struct {
	Provider            string       `json:"provider"`
	Role                string       `json:"role,omitempty"`
	Status              HealthStatus `json:"status"`
	CircuitState        string       `json:"circuitState"`
	ConsecutiveFailures uint32       `json:"consecutiveFailures"`
	Calls               uint64       `json:"calls"`
	Failures            uint64       `json:"failures"`
	LastStatusCode      int          `json:"lastStatusCode,omitempty"`
	LastSuccessAt       *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt       *Timestamp   `json:"lastFailureAt,omitempty"`
	Message             *string      `json:"message,omitempty"`
}

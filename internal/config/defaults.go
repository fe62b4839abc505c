package config

const (
	defaultRequestsTable  = "Requests"
	defaultCodePrefix     = "EXP"
	defaultApproverRole   = "managers"
	defaultMaxEvidence    = 5
	defaultRequestTimeout = 10
	defaultGatewayBind    = "127.0.0.1:8642"
	defaultDedupDir       = "~/.local/share/payflow"
	defaultLogDir         = "~/.local/share/payflow/logs"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Store: Store{
			RequestsTable: defaultRequestsTable,
			CodePrefix:    defaultCodePrefix,
		},
		Approvals: Approvals{
			ApproverRole: defaultApproverRole,
			MaxEvidence:  defaultMaxEvidence,
		},
		Notifications: Notifications{
			RequestTimeout: defaultRequestTimeout,
		},
		Gateway: Gateway{
			Bind: defaultGatewayBind,
		},
		Dedup: Dedup{
			Dir: defaultDedupDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Dir:    defaultLogDir,
		},
	}
}

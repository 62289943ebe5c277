package messages

// Removal messages for the privileged removal protocol.
const (
	RemovalSessionBusy        = "another removal session is in progress"
	RemovalAuthDenied         = "not authorized to remove cached packages"
	RemovalAuthFailedFmt      = "authorization failed: %v"
	RemovalAuthorizerRequired = "removal authorizer is required"
	RemovalExecutorRequired   = "removal executor is required"

	RemovalResolveLockDirFmt = "resolve lock dir: %w"
	RemovalOpenLockFmt       = "open lock %s: %w"
	RemovalLockFmt           = "lock %s: %w"
	// RemovalLockBusyFmt formats lock timeouts; the timeout precedes the busy sentinel.
	RemovalLockBusyFmt = "waited %s for session lock: %w"
)

// Helper messages for the D-Bus removal helper and its client.
const (
	HelperExportFmt        = "export %s: %w"
	HelperRequestNameFmt   = "request bus name %s: %w"
	HelperNameTakenFmt     = "bus name %s is already owned; another helper is running"
	HelperConnectFmt       = "connect to system bus: %w"
	HelperCallFmt          = "call %s: %w"
	HelperUnexpectedReply  = "unexpected reply from removal helper"
	HelperStreamIncomplete = "removal helper stopped before reporting every path"
)

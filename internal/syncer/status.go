package syncer

// Status is the orchestrator's connection state machine:
// idle → syncing → {online, offline}.
type Status int

const (
	StatusIdle Status = iota
	StatusSyncing
	StatusOnline
	StatusOffline
)

func (s Status) String() string {
	switch s {
	case StatusSyncing:
		return "syncing"
	case StatusOnline:
		return "online"
	case StatusOffline:
		return "offline"
	default:
		return "idle"
	}
}

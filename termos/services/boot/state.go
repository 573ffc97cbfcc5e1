package boot

// State is a phase of the boot sequence.
type State uint8

const (
	StatePOST State = iota + 1
	StateBootloader
	StateKernelInit
	StateRecoveryMenu
	StateDone
)

func (s State) String() string {
	switch s {
	case StatePOST:
		return "POST"
	case StateBootloader:
		return "BOOTLOADER"
	case StateKernelInit:
		return "KERNEL_INIT"
	case StateRecoveryMenu:
		return "RECOVERY_MENU"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Mode is the session-visible outcome of the recovery menu.
type Mode uint8

const (
	ModeNormal Mode = iota
	ModeRecovery
	ModeSafe
	ModeDeveloper
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeRecovery:
		return "recovery"
	case ModeSafe:
		return "safe"
	case ModeDeveloper:
		return "developer"
	default:
		return "unknown"
	}
}

// Result is passed to the completion callback.
type Result struct {
	Mode    Mode
	Skipped bool
	// Path lists the states visited, ending with StateDone.
	Path []State
}

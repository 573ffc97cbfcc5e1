package boot

type postCheck struct {
	label  string
	detail string
}

var postChecks = []postCheck{
	{"CPU", "1 core @ 3.20 GHz"},
	{"Memory", "655360K OK"},
	{"Storage", "vfs0 mounted"},
	{"Keyboard", "detected"},
	{"Display", "80x24 ANSI"},
	{"Network", "loopback up"},
}

var kernelLines = []string{
	"[    0.000000] Linux version 6.1.0-termos (gcc 12.2.0) #1 SMP PREEMPT",
	"[    0.000000] Command line: BOOT_IMAGE=/boot/vmlinuz root=/dev/vfs0 ro quiet",
	"[    0.004211] Memory: 640K/655360K available",
	"[    0.016384] Initializing cgroup subsys cpuset",
	"[    0.042017] devtmpfs: initialized",
	"[    0.100320] NET: Registered PF_INET protocol family",
	"[    0.231002] vfs: mounted root filesystem (ordered data mode)",
}

var services = []string{
	"Started Journal Service.",
	"Mounted /home.",
	"Started Network Manager.",
	"Reached target Multi-User System.",
	"Started Terminal Session.",
}

type menuOption struct {
	mode  Mode
	label string
	info  []string
}

var menuOptions = []menuOption{
	{ModeNormal, "Normal boot", []string{
		"Continuing normal boot...",
	}},
	{ModeRecovery, "Recovery shell", []string{
		"Mounting root filesystem read-only...",
		"Recovery mode enabled. Run `fsck` to check the filesystem.",
	}},
	{ModeSafe, "Safe mode", []string{
		"Disabling extension kernel...",
		"Safe mode: only built-in commands are available.",
	}},
	{ModeDeveloper, "Developer mode", []string{
		"Enabling verbose diagnostics...",
		"Developer mode: app failures show stack frames.",
	}},
}

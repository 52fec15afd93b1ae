// Package notify provides cross-platform notification support for waveorc.
//
// The notify package implements a notification system that alerts users when
// waveorc runs and waves complete, fail, hit a merge conflict, or time out.
// It supports three major
// operating systems (macOS, Linux, Windows) using only os/exec to call native
// OS tools, ensuring zero external Go dependencies and CGO_ENABLED=0 compatibility.
//
// # Features
//
//   - Visual notifications via native OS notification systems
//   - Audio alerts via system sound tools
//   - Configurable notification hooks (on_run_complete, on_wave_complete, on_error,
//     on_merge_conflict, on_timeout, on_long_running)
//   - Graceful degradation when notification tools are unavailable
//   - Dispatch that waits at most a fixed 5 seconds for the sender
//
// # Platform Support
//
//   - macOS: osascript for visual notifications, afplay for sound
//   - Linux: notify-send for visual notifications, paplay for sound
//   - Windows: PowerShell for toast notifications and sound
//
// # Usage
//
//	config := notify.NotificationConfig{
//		Enabled:       true,
//		Type:          notify.OutputBoth,
//		OnRunComplete: true,
//		OnError:       true,
//	}
//	handler := notify.NewHandler(config)
//	handler.OnRunComplete("run-1", true, 5*time.Second)
package notify

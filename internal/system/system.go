package system

import (
	"log"
	"os/exec"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// InitResourceLimits raises the open-file soft limit. Long exports keep
// the encoder pipe, temp files and frame sources open at the same time.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Printf("[!] could not read open-file limit: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Printf("[!] could not raise open-file limit: %v", err)
	}
}

// BestH264Encoder probes the local ffmpeg for hardware H.264 encoders.
// Priority: VideoToolbox (macOS), NVENC (NVIDIA), then software x264.
func BestH264Encoder() string {
	out, err := exec.Command("ffmpeg", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	for _, enc := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(string(out), enc) {
			return enc
		}
	}
	return "libx264"
}

// PrefetchDepth sizes the export pipeline's composited-frame buffer
// from the machine it runs on: enough to keep the encoder fed, bounded
// by core count and by available memory at frameBytes per slot.
func PrefetchDepth(frameBytes int) int {
	depth := 4
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		depth = n
	}
	if depth < 2 {
		depth = 2
	}
	if depth > 8 {
		depth = 8
	}

	if frameBytes > 0 {
		if vm, err := mem.VirtualMemory(); err == nil && vm.Available > 0 {
			// Never pin more than a quarter of available memory on
			// in-flight frames.
			byMem := int(vm.Available / 4 / uint64(frameBytes))
			if byMem < depth {
				depth = byMem
			}
		}
	}
	if depth < 2 {
		depth = 2
	}
	return depth
}

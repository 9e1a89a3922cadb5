package export

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/autoclip/autoclip-agent/internal/library"
)

const maxClipNameLen = 80

// CollectionEDL resolves the collection's playlist against its project and
// renders it as an EDL. Clip ids with no matching clip are skipped and
// reported back so the caller can surface them; they never fail the export.
func CollectionEDL(p *library.Project, c *library.Collection, frameRate float64) (string, []string, error) {
	var resolved []ResolvedClip
	var unresolved []string

	for _, id := range c.ClipIDs {
		clip := p.Clip(id)
		if clip == nil {
			unresolved = append(unresolved, id)
			continue
		}

		startMs, err := parseTimestampMs(clip.StartTime)
		if err != nil {
			return "", nil, fmt.Errorf("clip %s start time: %w", id, err)
		}
		endMs, err := parseTimestampMs(clip.EndTime)
		if err != nil {
			return "", nil, fmt.Errorf("clip %s end time: %w", id, err)
		}
		if endMs <= startMs {
			return "", nil, fmt.Errorf("clip %s has non-positive duration", id)
		}

		name := clip.Title
		if name == "" {
			name = clip.GeneratedTitle
		}
		resolved = append(resolved, ResolvedClip{
			ClipID:   id,
			ClipName: SanitizeName(name, maxClipNameLen),
			StartMs:  startMs,
			EndMs:    endMs,
		})
	}

	title := SanitizeName(c.Title, maxClipNameLen)
	if title == "" {
		title = SanitizeName(p.Name, maxClipNameLen)
	}

	return GenerateEDL(resolved, title, frameRate), unresolved, nil
}

func GenerateEDL(clips []ResolvedClip, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	recordOffsetMs := 0
	for i, clip := range clips {
		srcIn := msToTimecode(clip.StartMs, fps)
		srcOut := msToTimecode(clip.EndMs, fps)
		recIn := msToTimecode(recordOffsetMs, fps)
		durationMs := clip.EndMs - clip.StartMs
		recOut := msToTimecode(recordOffsetMs+durationMs, fps)

		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "V", srcIn, srcOut, recIn, recOut),
			fmt.Sprintf("* FROM CLIP NAME:  %s", clip.ClipName),
			fmt.Sprintf("* SOURCE CLIP ID:  %s", clip.ClipID),
		)

		recordOffsetMs += durationMs
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func msToTimecode(ms int, fps int) string {
	totalFrames := int(math.Round(float64(ms) * float64(fps) / 1000.0))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}

// parseTimestampMs parses the clip timestamp strings the pipeline emits,
// HH:MM:SS,mmm with the milliseconds and hours parts optional and either
// ',' or '.' before the milliseconds.
func parseTimestampMs(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty timestamp")
	}

	base := s
	ms := 0
	if i := strings.IndexAny(s, ",."); i >= 0 {
		base = s[:i]
		frac := s[i+1:]
		if frac == "" || len(frac) > 3 {
			return 0, fmt.Errorf("invalid timestamp %q", s)
		}
		n, err := strconv.Atoi(frac)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q", s)
		}
		for j := len(frac); j < 3; j++ {
			n *= 10
		}
		ms = n
	}

	parts := strings.Split(base, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}

	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", s)
		}
		total = total*60 + n
	}
	return total*1000 + ms, nil
}

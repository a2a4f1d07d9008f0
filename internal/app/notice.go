package app

import (
	"fmt"
	"time"

	"github.com/dkeye/Relay/internal/domain"
)

func noticeText(event domain.NoticeEvent, s domain.CallSession, now time.Time) string {
	switch event {
	case domain.NoticeStarted:
		kind := "voice"
		if s.IsVideo {
			kind = "video"
		}
		return fmt.Sprintf("%s started a %s call", s.From.DisplayName(), kind)
	case domain.NoticeAccepted:
		return fmt.Sprintf("%s accepted the call", s.To.DisplayName())
	case domain.NoticeEnded:
		if s.AcceptedAt == nil {
			return "Call ended"
		}
		return fmt.Sprintf("Call ended (%s)", formatCallDuration(now.Sub(*s.AcceptedAt)))
	case domain.NoticeMissed:
		return fmt.Sprintf("Missed call from %s", s.From.DisplayName())
	}
	return ""
}

// formatCallDuration renders mm:ss, or h:mm:ss past an hour.
func formatCallDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Round(time.Second) / time.Second)
	h, m, s := secs/3600, (secs%3600)/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Package delivery turns reply units into a paced plan and sends it.
package delivery

import (
	"time"
	"unicode/utf8"

	"github.com/PabloGalante/tur-agent/internal/domain"
)

const (
	minInitialDelay = 1500 * time.Millisecond
	maxInitialDelay = 4 * time.Second
	initialPerChar  = 80 * time.Millisecond

	gapBase     = time.Second
	minGapDelay = 2 * time.Second
	maxGapDelay = 6 * time.Second
	gapPerChar  = 120 * time.Millisecond

	// ImagePause follows every image send.
	ImagePause = time.Second
)

// InitialDelay is the "thinking" pause before the first unit, proportional to its length.
func InitialDelay(text string) time.Duration {
	return clamp(time.Duration(utf8.RuneCountInString(text))*initialPerChar, minInitialDelay, maxInitialDelay)
}

// GapDelay is the "typing" pause before every unit after the first.
func GapDelay(text string) time.Duration {
	return clamp(gapBase+time.Duration(utf8.RuneCountInString(text))*gapPerChar, minGapDelay, maxGapDelay)
}

func clamp(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

// NewPlan assigns each text its pause. Attachments keep their order and go after the texts.
func NewPlan(userID domain.UserID, channel domain.Channel, texts []string, attachments []domain.Attachment) domain.DeliveryPlan {
	plan := domain.DeliveryPlan{
		UserID:      userID,
		Channel:     channel,
		Units:       make([]domain.DeliveryUnit, 0, len(texts)),
		Attachments: attachments,
	}
	for i, t := range texts {
		delay := GapDelay(t)
		if i == 0 {
			delay = InitialDelay(t)
		}
		plan.Units = append(plan.Units, domain.DeliveryUnit{Text: t, EstimatedDelay: delay})
	}
	return plan
}

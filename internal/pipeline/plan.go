package pipeline

import (
	"fmt"
	"sort"

	"github.com/educoreai-lotus/ContentStudio-sub001/internal/domain"
)

// BuildSlidePlan joins images and speeches by index. Both sides must cover
// the same 1..n range; any gap, duplicate or count difference is reported as
// domain.ErrSlideMismatch.
func BuildSlidePlan(images []domain.SlideImage, speeches []domain.SlideSpeech) ([]domain.SlidePlanEntry, error) {
	if len(images) != len(speeches) {
		return nil, fmt.Errorf("%w: %d images, %d speeches", domain.ErrSlideMismatch, len(images), len(speeches))
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: no slides", domain.ErrSlideMismatch)
	}
	sortedImages := append([]domain.SlideImage(nil), images...)
	sort.SliceStable(sortedImages, func(i, j int) bool { return sortedImages[i].Index < sortedImages[j].Index })
	sortedSpeeches := append([]domain.SlideSpeech(nil), speeches...)
	sort.SliceStable(sortedSpeeches, func(i, j int) bool { return sortedSpeeches[i].Index < sortedSpeeches[j].Index })

	plan := make([]domain.SlidePlanEntry, 0, len(sortedImages))
	for i := range sortedImages {
		want := i + 1
		img, speech := sortedImages[i], sortedSpeeches[i]
		if img.Index != want {
			return nil, fmt.Errorf("%w: expected image index %d, got %d", domain.ErrSlideMismatch, want, img.Index)
		}
		if speech.Index != want {
			return nil, fmt.Errorf("%w: expected speech index %d, got %d", domain.ErrSlideMismatch, want, speech.Index)
		}
		if img.ImageURL == "" {
			return nil, fmt.Errorf("%w: slide %d has no image url", domain.ErrSlideMismatch, want)
		}
		plan = append(plan, domain.SlidePlanEntry{
			Index:       want,
			ImageURL:    img.ImageURL,
			SpeakerText: speech.SpeakerText,
		})
	}
	return plan, nil
}

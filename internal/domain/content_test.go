package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPatch(t *testing.T) {
	cover := "old-cover"
	rec := ContentRecord{ID: 1, Title: "T", Description: "D", CoverRef: &cover}

	assert.True(t, Patch{}.Empty())
	assert.Equal(t, rec, Patch{}.Apply(rec))

	title := "New"
	got := Patch{Title: &title}.Apply(rec)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, "D", got.Description)
	assert.Equal(t, "T", rec.Title, "original untouched")

	newCover := "new-cover"
	got = Patch{CoverRef: &newCover}.Apply(rec)
	assert.Equal(t, "new-cover", *got.CoverRef)

	got = Patch{CoverRef: &newCover, ClearCover: true}.Apply(rec)
	assert.Nil(t, got.CoverRef, "clear wins")
}

func TestErrors(t *testing.T) {
	stale := fmt.Errorf("open: %w", &StaleSelectionError{Kind: KindWebinar, ID: 3})
	assert.ErrorIs(t, stale, ErrContentNotFound)

	processed := &AlreadyProcessedError{RequestID: 4, Status: ConsultationApproved}
	assert.ErrorIs(t, processed, ErrAlreadyProcessed)
	assert.Contains(t, processed.Error(), "approved")

	cause := errors.New("blocked")
	delivery := &RecipientDeliveryError{UserID: 9, Err: cause}
	assert.ErrorIs(t, delivery, cause)
}

func TestKinds(t *testing.T) {
	for _, k := range ContentKinds {
		assert.True(t, k.Valid())
	}
	assert.False(t, ContentKind("podcast").Valid())
	assert.True(t, FileVideoNote.Valid())
	assert.False(t, FileKind("sticker").Valid())
	assert.True(t, BroadcastLacksPhone.Valid())
	assert.False(t, BroadcastFilter("vip").Valid())
}

package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/set-night/seyedbot/internal/domain"
)

func TestAttachments_Classify(t *testing.T) {
	tests := []struct {
		name string
		in   Attachments
		want domain.Media
		ok   bool
	}{
		{"video wins over everything", Attachments{Video: "v", Voice: "o", Audio: "a", Document: "d", Photo: "p", VideoNote: "n"}, domain.Media{FileRef: "v", Kind: domain.FileVideo}, true},
		{"voice over audio", Attachments{Voice: "o", Audio: "a"}, domain.Media{FileRef: "o", Kind: domain.FileVoice}, true},
		{"audio over document", Attachments{Audio: "a", Document: "d"}, domain.Media{FileRef: "a", Kind: domain.FileAudio}, true},
		{"document over photo", Attachments{Document: "d", Photo: "p"}, domain.Media{FileRef: "d", Kind: domain.FileDocument}, true},
		{"photo over round video", Attachments{Photo: "p", VideoNote: "n"}, domain.Media{FileRef: "p", Kind: domain.FilePhoto}, true},
		{"round video", Attachments{VideoNote: "n"}, domain.Media{FileRef: "n", Kind: domain.FileVideoNote}, true},
		{"nothing", Attachments{}, domain.Media{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.in.Classify()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestState_Content(t *testing.T) {
	kind, step, ok := ContentState(domain.KindCaseStudy, StepEditCover).Content()
	assert.True(t, ok)
	assert.Equal(t, domain.KindCaseStudy, kind)
	assert.Equal(t, StepEditCover, step)

	_, _, ok = StateBroadcastMenu.Content()
	assert.False(t, ok)

	browsing, ok := BrowseState(domain.KindLesson).Browsing()
	assert.True(t, ok)
	assert.Equal(t, domain.KindLesson, browsing)
}

func TestMemberStatus_Joined(t *testing.T) {
	for _, st := range []MemberStatus{MemberCreator, MemberAdministrator, MemberMember, MemberRestricted} {
		assert.True(t, st.Joined(), st)
	}
	for _, st := range []MemberStatus{MemberLeft, MemberKicked, ""} {
		assert.False(t, st.Joined(), st)
	}
}

package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildIsDeterministic(t *testing.T) {
	first := Build("A proposal for modular batteries.")
	second := Build("A proposal for modular batteries.")
	assert.Equal(t, first, second)
}

func TestBuildAppendsProposalText(t *testing.T) {
	got := Build("Proposal about X")
	assert.True(t, strings.HasSuffix(got, "Proposal about X"), "proposal text must be the trailing segment")
	assert.Contains(t, strings.ToLower(got), "novelty")
}

func TestBuildOnlyTrailingSegmentVaries(t *testing.T) {
	fixed := criteriaHeader + proposalSeparator
	a := Build("first proposal")
	b := Build("second proposal")

	assert.True(t, strings.HasPrefix(a, fixed))
	assert.True(t, strings.HasPrefix(b, fixed))
	assert.Equal(t, "first proposal", strings.TrimPrefix(a, fixed))
	assert.Equal(t, "second proposal", strings.TrimPrefix(b, fixed))
}

func TestBuildEmptyInputKeepsHeaderVerbatim(t *testing.T) {
	got := Build("")
	assert.Contains(t, got, criteriaHeader)
	assert.Equal(t, criteriaHeader+proposalSeparator, got)
}

func TestBuildTrimsProposalText(t *testing.T) {
	got := Build("\n\n  the pitch  \t\n")
	assert.True(t, strings.HasSuffix(got, "the pitch"))
}

func TestHeaderListsAllSixCriteria(t *testing.T) {
	lower := strings.ToLower(criteriaHeader)
	for _, token := range []string{
		"novelty",
		"market/customer understanding",
		"social needs and methodology",
		"impact magnitude",
		"intellectual property and validation",
		"team competences",
	} {
		assert.Contains(t, lower, token)
	}
	// Behavioral constraints ride along with the criteria.
	assert.Contains(t, lower, "do not make a final funding decision")
	assert.Contains(t, lower, "sensitive personal attributes")
}

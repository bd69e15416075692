package strategy

import (
	"context"
	"strings"
	"testing"

	"github.com/macrolens/menulens/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewMining_Blocks(t *testing.T) {
	page := &domain.PageContent{
		URL: "https://reviews.example/luigis",
		HTML: `<div class="review"><p>I ordered the chicken tikka masala and it was perfect.</p></div>
<div class="review">The service was great. Try the garlic naan!</div>`,
		Images: []domain.ImageRef{{URL: "https://img.example/1.jpg", Alt: "Our famous Margherita Pizza is amazing"}},
	}

	cands, err := NewReviewMining().Extract(context.Background(), page)
	require.NoError(t, err)

	var names []string
	for _, c := range cands {
		names = append(names, c.Name)
		assert.Equal(t, domain.StrategyReviewMining, c.Strategy)
		assert.Empty(t, c.RawPrice)
		assert.True(t, strings.HasPrefix(c.Provenance, "review: "))
	}
	assert.ElementsMatch(t, []string{"chicken tikka masala", "garlic naan", "Margherita Pizza"}, names)
}

func TestReviewMining_FallsBackToPageText(t *testing.T) {
	page := &domain.PageContent{Text: "We recommend the lamb shank with rosemary."}

	cands, err := NewReviewMining().Extract(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "lamb shank", cands[0].Name)
	assert.True(t, strings.HasPrefix(cands[0].Provenance, "page text: "))
}

func TestMineReviewText_RejectsNonDishes(t *testing.T) {
	text := "The service was great. The wait was amazing. I had the best time."
	assert.Empty(t, MineReviewText(text, "", domain.StrategyReviewMining, "review"))
}

package strategy

import (
	"context"
	"testing"

	"github.com/macrolens/menulens/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorPattern_ItemContainers(t *testing.T) {
	html := `<section class="menu-section"><h2>Starters</h2>
<div class="menu-items">
  <div class="menu-item">
    <h3 class="menu-item__name">Garlic Knots</h3>
    <p class="menu-item__description">Six knots with marinara</p>
    <span class="menu-item__price">$7.50</span>
  </div>
  <div class="menu-item">
    <h3 class="menu-item__name">Burrata</h3>
    <span class="menu-item__price">$13</span>
  </div>
</div></section>`

	cands, err := NewSelectorPattern(DefaultSelectorLibrary()).Extract(context.Background(),
		&domain.PageContent{URL: "https://example.com/menu", HTML: html})
	require.NoError(t, err)
	require.Len(t, cands, 2)

	assert.Equal(t, "Garlic Knots", cands[0].Name)
	assert.Equal(t, "$7.50", cands[0].RawPrice)
	assert.Equal(t, "Six knots with marinara", cands[0].Description)
	assert.Equal(t, "Starters", cands[0].Category)
	assert.Equal(t, domain.StrategySelectorPattern, cands[0].Strategy)

	assert.Equal(t, "Burrata", cands[1].Name)
	assert.Equal(t, "$13", cands[1].RawPrice)
	assert.Empty(t, cands[1].Description)
}

func TestSelectorPattern_TableRows(t *testing.T) {
	html := `<table class="menu">
<tr><td>Pad Thai</td><td>$12.95</td></tr>
<tr><td>Green Curry</td><td>$13.50</td></tr>
</table>`

	cands, err := NewSelectorPattern(SelectorLibrary{}).Extract(context.Background(), &domain.PageContent{HTML: html})
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "Pad Thai", cands[0].Name)
	assert.Equal(t, "$12.95", cands[0].RawPrice)
	assert.Equal(t, "Green Curry", cands[1].Name)
	assert.Equal(t, "$13.50", cands[1].RawPrice)
}

func TestSelectorPattern_NameFromText(t *testing.T) {
	html := `<ul class="menu"><li>Caesar Salad - romaine, parmesan $9</li></ul>`

	cands, err := NewSelectorPattern(SelectorLibrary{}).Extract(context.Background(), &domain.PageContent{HTML: html})
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "Caesar Salad", cands[0].Name)
	assert.Equal(t, "romaine, parmesan", cands[0].Description)
	assert.Equal(t, "$9", cands[0].RawPrice)
}

func TestSelectorPattern_NoContainers(t *testing.T) {
	cands, err := NewSelectorPattern(SelectorLibrary{}).Extract(context.Background(),
		&domain.PageContent{HTML: `<div><p>Welcome to our restaurant</p></div>`})
	assert.NoError(t, err)
	assert.Empty(t, cands)
}

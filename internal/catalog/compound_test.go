package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supptracker-server/internal/domain"
)

func testCompounds() []*domain.Compound {
	return []*domain.Compound{
		{
			ID:       "caffeine",
			Name:     "Caffeine",
			Synonyms: []string{"1,3,7-trimethylxanthine", "guaranine"},
			ExternalIDs: map[string]string{
				"cas": "58-08-2",
			},
		},
		{
			ID:       "st_johns_wort",
			Name:     "St. John's Wort",
			Synonyms: []string{"hypericum perforatum"},
			Aliases:  []string{"SJW"},
		},
		{ID: "sertraline", Name: "Sertraline", Aliases: []string{"zoloft"}},
		{ID: "creatine", Name: "Creatine", Synonyms: []string{"creatine monohydrate"}},
		{ID: "rhodiola", Name: "Rhodiola Rosea", Synonyms: []string{"golden root"}},
	}
}

func TestResolveByID(t *testing.T) {
	c := NewCompoundCatalog(testCompounds())

	comp, err := c.Resolve("caffeine")
	require.NoError(t, err)
	assert.Equal(t, "caffeine", comp.ID)
}

func TestResolveByNameCaseInsensitive(t *testing.T) {
	c := NewCompoundCatalog(testCompounds())

	comp, err := c.Resolve("CAFFEINE")
	require.NoError(t, err)
	assert.Equal(t, "caffeine", comp.ID)

	comp, err = c.Resolve("st. john's wort")
	require.NoError(t, err)
	assert.Equal(t, "st_johns_wort", comp.ID)
}

func TestResolveBySynonymAndAlias(t *testing.T) {
	c := NewCompoundCatalog(testCompounds())

	comp, err := c.Resolve("guaranine")
	require.NoError(t, err)
	assert.Equal(t, "caffeine", comp.ID)

	comp, err = c.Resolve("sjw")
	require.NoError(t, err)
	assert.Equal(t, "st_johns_wort", comp.ID)

	comp, err = c.Resolve("zoloft")
	require.NoError(t, err)
	assert.Equal(t, "sertraline", comp.ID)
}

func TestResolveByExternalID(t *testing.T) {
	c := NewCompoundCatalog(testCompounds())

	comp, err := c.Resolve("58-08-2")
	require.NoError(t, err)
	assert.Equal(t, "caffeine", comp.ID)
}

func TestResolveFuzzyTypo(t *testing.T) {
	c := NewCompoundCatalog(testCompounds())

	comp, err := c.Resolve("caffein")
	require.NoError(t, err)
	assert.Equal(t, "caffeine", comp.ID)
}

func TestResolveNotFound(t *testing.T) {
	c := NewCompoundCatalog(testCompounds())

	_, err := c.Resolve("xylophone")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = c.Resolve("")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestResolveTieReportsCandidates(t *testing.T) {
	compounds := []*domain.Compound{
		{ID: "a", Name: "Ginsenoside Alpha"},
		{ID: "b", Name: "Ginsenoside Alphb"},
	}
	c := NewCompoundCatalog(compounds)

	_, err := c.Resolve("ginsenoside alph")
	var ambiguous *domain.AmbiguousError
	require.True(t, errors.As(err, &ambiguous))
	assert.Equal(t, []string{"Ginsenoside Alpha", "Ginsenoside Alphb"}, ambiguous.Candidates)
}

func TestNameCollisionSmallestIDWins(t *testing.T) {
	compounds := []*domain.Compound{
		{ID: "zz_dup", Name: "Berberine"},
		{ID: "aa_dup", Name: "Berberine"},
	}
	c := NewCompoundCatalog(compounds)

	comp, err := c.Resolve("berberine")
	require.NoError(t, err)
	assert.Equal(t, "aa_dup", comp.ID)
}

func TestSearchRanking(t *testing.T) {
	c := NewCompoundCatalog(testCompounds())

	matches := c.Search("ca", 10)
	require.NotEmpty(t, matches)
	assert.Equal(t, "caffeine", matches[0].Compound.ID)
	assert.Equal(t, MatchPrefix, matches[0].MatchType)
}

func TestSearchExactBeatsPrefix(t *testing.T) {
	compounds := []*domain.Compound{
		{ID: "zinc", Name: "Zinc"},
		{ID: "zinc_picolinate", Name: "Zinc Picolinate"},
	}
	c := NewCompoundCatalog(compounds)

	matches := c.Search("zinc", 10)
	require.Len(t, matches, 2)
	assert.Equal(t, "zinc", matches[0].Compound.ID)
	assert.Equal(t, MatchExact, matches[0].MatchType)
	assert.Equal(t, MatchPrefix, matches[1].MatchType)
}

func TestSearchSynonymMatch(t *testing.T) {
	c := NewCompoundCatalog(testCompounds())

	matches := c.Search("golden root", 10)
	require.NotEmpty(t, matches)
	assert.Equal(t, "rhodiola", matches[0].Compound.ID)
	assert.Equal(t, MatchExact, matches[0].MatchType)
}

func TestSearchLimit(t *testing.T) {
	c := NewCompoundCatalog(testCompounds())

	matches := c.Search("e", 2)
	assert.LessOrEqual(t, len(matches), 2)
}

func TestSearchEmptyQuery(t *testing.T) {
	c := NewCompoundCatalog(testCompounds())

	assert.Nil(t, c.Search("", 10))
	assert.Nil(t, c.Search("caffeine", 0))
}

func TestAllOrderedByID(t *testing.T) {
	c := NewCompoundCatalog(testCompounds())

	all := c.All()
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID, all[i].ID)
	}
}

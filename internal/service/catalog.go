package service

import (
	"golang.org/x/text/language"

	"github.com/julianstephens/huddle/internal/i18n"
	"github.com/julianstephens/huddle/internal/models"
)

// Category is one of the fixed habit group themes.
type Category struct {
	ID    string   `json:"id"`
	Emoji string   `json:"emoji"`
	Key   i18n.Key `json:"-"`
}

var categories = []Category{
	{ID: "learning", Emoji: "📚", Key: i18n.CategoryLearning},
	{ID: "physical_health", Emoji: "💪", Key: i18n.CategoryPhysicalHealth},
	{ID: "mental_health", Emoji: "🧘", Key: i18n.CategoryMentalHealth},
	{ID: "finance", Emoji: "💰", Key: i18n.CategoryFinance},
	{ID: "lifestyle", Emoji: "🌿", Key: i18n.CategoryLifestyle},
	{ID: "social", Emoji: "🤝", Key: i18n.CategorySocial},
	{ID: "challenges", Emoji: "🏆", Key: i18n.CategoryChallenges},
}

// Categories lists the known group categories in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

func LookupCategory(id string) (Category, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// withTag fills the display tag of g for locale. Groups whose category is
// no longer known are tagged General.
func withTag(g models.HabitGroup, locale language.Tag) models.HabitGroup {
	key := i18n.CategoryGeneral
	if c, ok := LookupCategory(g.Category); ok {
		key = c.Key
	}
	g.Tag = models.GroupTag{Emoji: g.Emoji, Text: i18n.T(locale, key)}
	return g
}

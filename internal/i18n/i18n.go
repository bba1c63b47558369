// Package i18n resolves the handful of strings the backend renders itself.
//
// Lookups are typed: every string has a Key constant and a table entry per
// supported locale. A key missing from a locale falls back to English, and a
// key missing from English renders as the key itself.
package i18n

import (
	"context"
	"fmt"

	"golang.org/x/text/language"
)

type Key string

const (
	CategoryLearning       Key = "category.learning"
	CategoryPhysicalHealth Key = "category.physical_health"
	CategoryMentalHealth   Key = "category.mental_health"
	CategoryFinance        Key = "category.finance"
	CategoryLifestyle      Key = "category.lifestyle"
	CategorySocial         Key = "category.social"
	CategoryChallenges     Key = "category.challenges"
	CategoryGeneral        Key = "category.general"

	NotifyMessage     Key = "notify.message"
	NotifyCheer       Key = "notify.cheer"
	NotifyPush        Key = "notify.push"
	NotifyComment     Key = "notify.comment"
	NotifyJoinRequest Key = "notify.join_request"
)

var (
	English    = language.English
	Indonesian = language.Indonesian
)

var tables = map[language.Tag]map[Key]string{
	English: {
		CategoryLearning:       "Learning & Self-Development",
		CategoryPhysicalHealth: "Physical Health & Fitness",
		CategoryMentalHealth:   "Mental & Emotional Health",
		CategoryFinance:        "Finance & Career",
		CategoryLifestyle:      "Lifestyle & Hobbies",
		CategorySocial:         "Social & Relationships",
		CategoryChallenges:     "Challenges",
		CategoryGeneral:        "General",

		NotifyMessage:     "%s sent you a message.",
		NotifyCheer:       "%s gave you a cheer!",
		NotifyPush:        "%s sent you a push.",
		NotifyComment:     "%s commented on your post.",
		NotifyJoinRequest: "%s wants to join a habit group.",
	},
	Indonesian: {
		CategoryLearning:       "Belajar & Pengembangan Diri",
		CategoryPhysicalHealth: "Kesehatan Fisik & Kebugaran",
		CategoryMentalHealth:   "Kesehatan Mental & Emosional",
		CategoryFinance:        "Keuangan & Karir",
		CategoryLifestyle:      "Gaya Hidup & Hobi",
		CategorySocial:         "Sosial & Hubungan",
		CategoryChallenges:     "Tantangan",
		CategoryGeneral:        "Umum",

		NotifyMessage:     "%s mengirimi Anda pesan.",
		NotifyCheer:       "%s memberi Anda semangat!",
		NotifyPush:        "%s mengirimi Anda dorongan.",
		NotifyComment:     "%s mengomentari postingan Anda.",
		NotifyJoinRequest: "%s ingin bergabung dengan grup kebiasaan.",
	},
}

// Supported lists the locales with a table, preferred first.
var Supported = []language.Tag{English, Indonesian}

var matcher = language.NewMatcher(Supported)

// Match picks the best supported locale for an Accept-Language header value.
// Unparseable or empty input yields English.
func Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return English
	}
	_, idx, _ := matcher.Match(tags...)
	return Supported[idx]
}

// Parse resolves a single locale name such as "id" or "en-US".
func Parse(name string) language.Tag {
	tag, err := language.Parse(name)
	if err != nil {
		return English
	}
	_, idx, _ := matcher.Match(tag)
	return Supported[idx]
}

// T renders key in locale, formatting args into the template.
func T(locale language.Tag, key Key, args ...any) string {
	tmpl, ok := tables[locale][key]
	if !ok {
		if tmpl, ok = tables[English][key]; !ok {
			return string(key)
		}
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

type ctxKey struct{}

// WithLocale stores the request locale on ctx.
func WithLocale(ctx context.Context, locale language.Tag) context.Context {
	return context.WithValue(ctx, ctxKey{}, locale)
}

// FromContext returns the locale stored by WithLocale, or English.
func FromContext(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(ctxKey{}).(language.Tag); ok {
		return tag
	}
	return English
}

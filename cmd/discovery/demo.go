package main

import (
	"time"

	"github.com/fernwehlabs/discovery/internal/corpus"
)

// demoCorpus returns a small sample corpus so the service can be run and
// poked at without a content database.
func demoCorpus() []corpus.Post {
	day := func(d string) time.Time {
		t, _ := time.Parse("2006-01-02", d)
		return t
	}
	return []corpus.Post{
		{
			ID:                 "demo-1",
			Slug:               "street-food-tour-bangkok",
			Title:              "A Street Food Tour Through Bangkok",
			Content:            "From pad thai at Thip Samai to mango sticky rice near Wat Pho, Bangkok rewards anyone willing to eat standing up. We spent three evenings working through Chinatown's stalls.",
			Excerpt:            "Three evenings of eating our way through Bangkok's street food scene.",
			Tags:               []string{"food", "thailand", "street-food"},
			Category:           "food",
			Location:           "Bangkok",
			Country:            "Thailand",
			Date:               day("2025-11-04"),
			Language:           corpus.LangEN,
			ReadingTimeMinutes: 7,
		},
		{
			ID:                 "demo-2",
			Slug:               "temples-of-chiang-mai",
			Title:              "Temple Hopping in Chiang Mai",
			Content:            "Chiang Mai's old city packs dozens of temples into a single square mile. Wat Chedi Luang at dusk is the highlight, but the quiet food stalls outside Wat Phra Singh fed us all week.",
			Excerpt:            "A week among the temples and food stalls of Chiang Mai's old city.",
			Tags:               []string{"temples", "thailand", "culture", "food"},
			Category:           "culture",
			Location:           "Chiang Mai",
			Country:            "Thailand",
			Date:               day("2025-11-18"),
			Language:           corpus.LangEN,
			ReadingTimeMinutes: 9,
		},
		{
			ID:                 "demo-3",
			Slug:               "hanoi-pho-crawl",
			Title:              "The Hanoi Pho Crawl",
			Content:            "Hanoi does pho for breakfast, and so did we, five mornings running. Pho Gia Truyen's brisket bowl was the best of the trip, eaten on a plastic stool on Bat Dan street.",
			Excerpt:            "Five mornings, five bowls of pho across Hanoi's old quarter.",
			Tags:               []string{"food", "vietnam", "street-food"},
			Category:           "food",
			Location:           "Hanoi",
			Country:            "Vietnam",
			Date:               day("2025-12-02"),
			Language:           corpus.LangEN,
			ReadingTimeMinutes: 6,
		},
		{
			ID:                 "demo-4",
			Slug:               "berliner-museumsinsel",
			Title:              "Ein Wochenende auf der Berliner Museumsinsel",
			Content:            "Fünf Museen, zwei Tage, ein Regenschirm. Das Pergamonmuseum bleibt geschlossen, aber die Alte Nationalgalerie und das Neue Museum füllen ein Wochenende mühelos.",
			Excerpt:            "Zwei Tage zwischen den Museen der Berliner Museumsinsel.",
			Tags:               []string{"museums", "germany", "culture"},
			Category:           "culture",
			Location:           "Berlin",
			Country:            "Germany",
			Date:               day("2026-01-10"),
			Language:           corpus.LangDE,
			ReadingTimeMinutes: 8,
		},
	}
}

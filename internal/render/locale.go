package render

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

type locale struct {
	tag            language.Tag
	promptLanguage string
	headings       map[string]string
	readOriginal   string
	watch          string
	hoursAgo       string
	footer         string
	subject        func(t time.Time) string
}

var ptWeekdays = [...]string{"Domingo", "Segunda", "Terça", "Quarta", "Quinta", "Sexta", "Sábado"}

var ptMonths = [...]string{"", "Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro"}

var brazilian = locale{
	tag:            language.BrazilianPortuguese,
	promptLanguage: "BRAZILIAN PORTUGUESE",
	headings: map[string]string{
		sectionWorld:        "# 🌍 MUNDO REAL",
		sectionBreaking:     "# 🔥 BREAKING",
		sectionAIModels:     "# 🤖 AI & MODELS",
		sectionSaaS:         "# 💰 SaaS & ENTERPRISE",
		sectionBigTech:      "# 💼 BIG TECH MOVES",
		sectionToolOfDay:    "# 🛠️ FERRAMENTA DO DIA",
		sectionUnclassified: "# 📌 OUTRAS NOTÍCIAS",
		sectionAnalysis:     "# 🔮 ANÁLISE DO DIA",
		sectionWatchLater:   "# 📺 WATCH LATER",
	},
	readOriginal: "Ver original",
	watch:        "Assistir",
	hoursAgo:     "Há %sh",
	footer:       "\n---\n\n*Curated by The Daily Byte*\n\n*[Gerenciar assinatura]({{ unsubscribe_url }})*\n",
	subject: func(t time.Time) string {
		return fmt.Sprintf("🔥 Daily Byte - %s, %d de %s", ptWeekdays[t.Weekday()], t.Day(), ptMonths[t.Month()])
	},
}

var english = locale{
	tag:            language.English,
	promptLanguage: "ENGLISH",
	headings: map[string]string{
		sectionWorld:        "# 🌍 REAL WORLD",
		sectionBreaking:     "# 🔥 BREAKING",
		sectionAIModels:     "# 🤖 AI & MODELS",
		sectionSaaS:         "# 💰 SaaS & ENTERPRISE",
		sectionBigTech:      "# 💼 BIG TECH MOVES",
		sectionToolOfDay:    "# 🛠️ TOOL OF THE DAY",
		sectionUnclassified: "# 📌 MORE NEWS",
		sectionAnalysis:     "# 🔮 DAILY ANALYSIS",
		sectionWatchLater:   "# 📺 WATCH LATER",
	},
	readOriginal: "Read original",
	watch:        "Watch",
	hoursAgo:     "%sh ago",
	footer:       "\n---\n\n*Curated by The Daily Byte*\n\n*[Manage subscription]({{ unsubscribe_url }})*\n",
	subject: func(t time.Time) string {
		return fmt.Sprintf("🔥 Daily Byte - %s, %s %d", t.Weekday(), t.Month(), t.Day())
	},
}

var supported = []locale{brazilian, english}

var matcher = language.NewMatcher([]language.Tag{brazilian.tag, english.tag})

// matchLocale picks the closest supported locale; anything unparseable falls back to pt-BR.
func matchLocale(raw string) locale {
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return brazilian
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return brazilian
	}
	return supported[index]
}

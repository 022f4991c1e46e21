package weather

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/m3rciful/weatherbot/core/telegram/format"
)

const (
	reportLayout   = "Monday, January 2, 2006, 15:04:05"
	intervalLayout = "1/2/2006, 3:04:05 PM"
)

// Format renders f as Telegram Markdown (v1). The current block is
// stamped with now in loc; interval stamps use the entry time in loc.
func Format(f Forecast, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	var b strings.Builder
	fmt.Fprintf(&b, "*Weather Forecast for %s, %s* 🌍\n\n", format.EscapeV1(f.City), format.EscapeV1(f.Country))

	if len(f.Entries) == 0 {
		return b.String()
	}
	cur := f.Entries[0]
	b.WriteString("*Current Weather Report:*\n")
	fmt.Fprintf(&b, "🌡️ Temperature: %s°C\n", formatTemp(cur.Temp))
	fmt.Fprintf(&b, "💧 Humidity: %d%%\n", cur.Humidity)
	fmt.Fprintf(&b, "🌬️ Wind Speed: %s m/s\n", formatWind(cur.Wind))
	fmt.Fprintf(&b, "🌦️ Condition: %s\n", format.EscapeV1(capitalize(cur.Description)))
	fmt.Fprintf(&b, "📅 Date and Time: %s\n\n", now.In(loc).Format(reportLayout))

	b.WriteString("*Next 3-hour Forecast:*\n")
	for i := 1; i < len(f.Entries) && i < minEntries; i++ {
		e := f.Entries[i]
		fmt.Fprintf(&b, "\n*%s*\n", e.At.In(loc).Format(intervalLayout))
		fmt.Fprintf(&b, "🌡️ Temp: %s°C | 💧 Humidity: %d%% | 🌬️ Wind: %s m/s\n",
			formatTemp(e.Temp), e.Humidity, formatWind(e.Wind))
		fmt.Fprintf(&b, "🌦️ Condition: %s\n", format.EscapeV1(capitalize(e.Description)))
	}
	return b.String()
}

func formatTemp(t float64) string {
	return strconv.FormatFloat(t, 'f', 1, 64)
}

// formatWind prints the shortest exact form: 4 -> "4", 3.6 -> "3.6".
func formatWind(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

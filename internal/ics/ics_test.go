package ics

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ipowatch/internal/types"
)

var fixedNow = time.Date(2026, 2, 1, 10, 30, 0, 0, time.UTC)

func sampleOffering() types.Offering {
	return types.Offering{
		Symbol:       "NIFRA",
		Company:      "Nepal Infrastructure Bank",
		OpeningDate:  "2026-02-01",
		ClosingDate:  "2026-02-09",
		IssueManager: "NIBL Ace Capital",
		Type:         types.OfferingIPO,
	}
}

func TestEscape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "Final Day", "Final Day"},
		{"semicolon", "a;b", `a\;b`},
		{"comma", "a,b", `a\,b`},
		{"newline", "a\nb", `a\nb`},
		{"backslash", `a\b`, `a\\b`},
		{"backslash before semicolon is not double-escaped", `\;`, `\\\;`},
		{"all special characters", "\\;,\n", `\\\;\,\n`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Escape(tt.in))
		})
	}
}

func TestEscapeUnescapeRoundTrip(t *testing.T) {
	inputs := []string{
		"plain",
		`back\slash`,
		"semi;colon, comma\nand newline",
		`already escaped looking \n text`,
		"mixed \\ ; , \n all at once",
		"उत्कृष्ट जलविद्युत कम्पनी; लिमिटेड",
	}
	for _, in := range inputs {
		assert.Equal(t, in, Unescape(Escape(in)), "round-trip failed for %q", in)
	}
}

func TestFold_ShortLinesUntouched(t *testing.T) {
	doc := "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"
	assert.Equal(t, doc, Fold(doc))
}

func TestFold_Properties(t *testing.T) {
	long := "DESCRIPTION:" + strings.Repeat("word ", 60) + "end"
	doc := long + "\r\nSHORT:x\r\n"

	folded := Fold(doc)
	for _, line := range strings.Split(folded, "\r\n") {
		assert.LessOrEqual(t, len(line), 70, "folded line exceeds 70 octets: %q", line)
	}
	assert.Equal(t, doc, Unfold(folded), "unfolding must reconstruct the original exactly")
}

func TestFold_NeverSplitsUTF8Sequences(t *testing.T) {
	long := "SUMMARY:" + strings.Repeat("–", 80) // 3-byte rune
	folded := Fold(long + "\r\n")
	for _, line := range strings.Split(folded, "\r\n") {
		assert.LessOrEqual(t, len(line), 70)
		assert.True(t, utf8.ValidString(line), "folded chunk split a rune: %q", line)
	}
	assert.Equal(t, long+"\r\n", Unfold(folded))
}

func TestBuildInvite_GoldenTimes(t *testing.T) {
	doc, err := BuildInvite(sampleOffering(), "NIFRA|2026-02-01",
		"alice@example.com", "noreply@example.com", "IPO Alerts", fixedNow)
	require.NoError(t, err)

	unfolded := Unfold(doc)
	// 09:00-10:00 local (UTC+05:45) on the closing date maps to
	// 03:15-04:15 UTC.
	assert.Contains(t, unfolded, "DTSTART:20260209T031500Z")
	assert.Contains(t, unfolded, "DTEND:20260209T041500Z")
	assert.Contains(t, unfolded, "DTSTAMP:20260201T103000Z")
	assert.Contains(t, unfolded, "SUMMARY:Final Day: IPO Nepal Infrastructure Bank (NIFRA)")
	assert.Contains(t, unfolded, "METHOD:REQUEST")
	assert.Contains(t, unfolded, "SEQUENCE:0")
	assert.Contains(t, unfolded, "STATUS:CONFIRMED")
	assert.Contains(t, unfolded, "TRANSP:OPAQUE")
	assert.Contains(t, unfolded,
		"ATTENDEE;CN=alice@example.com;ROLE=REQ-PARTICIPANT;PARTSTAT=NEEDS-ACTION;RSVP=TRUE:mailto:alice@example.com")
	assert.Contains(t, unfolded, "ORGANIZER;CN=IPO Alerts:mailto:noreply@example.com")
}

func TestBuildInvite_CRLFAndFoldWidth(t *testing.T) {
	o := sampleOffering()
	o.Company = strings.Repeat("Very Long Company Name ", 5)
	doc, err := BuildInvite(o, "NIFRA|2026-02-01",
		"alice@example.com", "noreply@example.com", "IPO Alerts", fixedNow)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(doc, "\r\n"), "document must end with CRLF")
	assert.NotContains(t, strings.ReplaceAll(doc, "\r\n", ""), "\n",
		"no bare LF line endings")
	for _, line := range strings.Split(doc, "\r\n") {
		assert.LessOrEqual(t, len(line), 70, "line exceeds 70 octets: %q", line)
	}
}

func TestBuildInvite_StableUIDPerOffering(t *testing.T) {
	a, err := BuildInvite(sampleOffering(), "NIFRA|2026-02-01",
		"alice@example.com", "noreply@example.com", "IPO Alerts", fixedNow)
	require.NoError(t, err)
	b, err := BuildInvite(sampleOffering(), "NIFRA|2026-02-01",
		"bob@example.com", "noreply@example.com", "IPO Alerts", fixedNow)
	require.NoError(t, err)

	uidOf := func(doc string) string {
		for _, line := range strings.Split(Unfold(doc), "\r\n") {
			if strings.HasPrefix(line, "UID:") {
				return line
			}
		}
		return ""
	}
	// Recipient-independent UID: every recipient of the same offering gets
	// the same event.
	assert.Equal(t, uidOf(a), uidOf(b))
	assert.NotEmpty(t, uidOf(a))
}

func TestBuildInvite_InvalidClosingDate(t *testing.T) {
	tests := []struct {
		name    string
		closing string
	}{
		{"blank", ""},
		{"whitespace", "   "},
		{"not a date", "soon"},
		{"wrong format", "09/02/2026"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := sampleOffering()
			o.ClosingDate = tt.closing
			_, err := BuildInvite(o, "NIFRA|2026-02-01",
				"alice@example.com", "noreply@example.com", "IPO Alerts", fixedNow)
			require.Error(t, err)
			appErr := &types.AppError{}
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, types.ErrCodeOfferingInvalidDate, appErr.Code)
			assert.True(t, appErr.Code.Recoverable())
		})
	}
}

// The generated document must be consumable by a real calendar parser.
func TestBuildInvite_ParsesWithCalendarLibrary(t *testing.T) {
	o := sampleOffering()
	o.Company = "Company; With, Special\\Characters"
	doc, err := BuildInvite(o, "NIFRA|2026-02-01",
		"alice@example.com", "noreply@example.com", "IPO Alerts", fixedNow)
	require.NoError(t, err)

	cal, err := ical.ParseCalendar(strings.NewReader(doc))
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 1)

	start, err := events[0].GetStartAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 9, 3, 15, 0, 0, time.UTC), start.UTC())

	end, err := events[0].GetEndAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 9, 4, 15, 0, 0, time.UTC), end.UTC())

	uid := events[0].GetProperty(ical.ComponentPropertyUniqueId)
	require.NotNil(t, uid)
	assert.Len(t, uid.Value, 64)
}

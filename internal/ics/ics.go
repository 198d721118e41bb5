// Package ics builds the single-event calendar invite attached to every
// notification email. The document uses METHOD:REQUEST (meeting-invite
// semantics) so common mail clients render an actionable RSVP card rather
// than a passive attachment.
//
// Generation is deliberately hand-assembled rather than delegated to a
// calendar library: the invite format is pinned down to the octet (70-octet
// folding, CRLF termination, exact property ordering) and a library's own
// folding rules would drift from it.
package ics

import (
	"strings"
	"time"

	"ipowatch/internal/identity"
	"ipowatch/internal/types"
)

// foldLimit is the maximum content-line width in octets. Longer lines are
// folded onto continuation lines beginning with a single space.
const foldLimit = 70

// marketZone is the civil time of the target market (Nepal, UTC+05:45).
// A fixed offset, never derived from the host locale.
var marketZone = time.FixedZone("NPT", 5*3600+45*60)

// reminderHour is the local wall-clock hour of the event start on the
// closing date.
const reminderHour = 9

const (
	icsTimeLayout = "20060102T150405Z"
	dateLayout    = "2006-01-02"
)

// Escape applies calendar text escaping to a free-text value. Backslash
// escaping runs first so characters introduced by the later rules are not
// double-escaped.
func Escape(value string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\n", `\n`,
	)
	return r.Replace(value)
}

// Unescape is the inverse of Escape. It exists for round-trip verification
// and is not used on the send path.
func Unescape(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		if value[i] != '\\' || i+1 == len(value) {
			b.WriteByte(value[i])
			continue
		}
		i++
		switch value[i] {
		case 'n':
			b.WriteByte('\n')
		default:
			b.WriteByte(value[i])
		}
	}
	return b.String()
}

// Fold rewrites a CRLF-terminated calendar document so that no line exceeds
// foldLimit octets. Continuation lines begin with one space; the space
// counts toward the continuation line's own width. Chunks never split a
// UTF-8 sequence, so unfolding reconstructs the original content exactly.
func Fold(doc string) string {
	lines := strings.Split(doc, "\r\n")
	folded := make([]string, 0, len(lines))
	for _, line := range lines {
		if len(line) <= foldLimit {
			folded = append(folded, line)
			continue
		}
		for len(line) > foldLimit {
			cut := foldLimit
			for cut > 0 && !isRuneStart(line[cut]) {
				cut--
			}
			folded = append(folded, line[:cut])
			line = " " + line[cut:]
		}
		folded = append(folded, line)
	}
	return strings.Join(folded, "\r\n")
}

// isRuneStart reports whether b can begin a UTF-8 sequence, i.e. it is not
// a continuation byte.
func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// Unfold removes CRLF+space continuations, reconstructing the unfolded
// document. Inverse of Fold; used by tests.
func Unfold(doc string) string {
	return strings.ReplaceAll(doc, "\r\n ", "")
}

// BuildInvite assembles the folded, CRLF-terminated calendar document for
// one offering and one recipient. The event runs 09:00-10:00 on the closing
// date in the market's civil time; both instants are emitted in UTC. now
// supplies DTSTAMP and is injected so tests can fix it.
//
// Returns offering_invalid_date when the closing date is absent or does not
// parse as a calendar date; the caller must skip the offering rather than
// send a malformed invite.
func BuildInvite(o types.Offering, offeringID, recipient, organizerEmail, organizerName string, now time.Time) (string, error) {
	closing, err := time.ParseInLocation(dateLayout, strings.TrimSpace(o.ClosingDate), marketZone)
	if err != nil {
		return "", types.NewAppErrorWithDetails(types.ErrCodeOfferingInvalidDate,
			"closing date is missing or unparsable", err,
			map[string]any{"offering": offeringID, "closing_date": o.ClosingDate})
	}

	start := time.Date(closing.Year(), closing.Month(), closing.Day(), reminderHour, 0, 0, 0, marketZone)
	end := start.Add(time.Hour)

	summary := Escape("Final Day: " + string(o.Type) + " " + o.Company + " (" + o.Symbol + ")")
	description := Escape("Final day to apply (9:00–10:00 AM NPT reminder).\n" +
		"Close: " + o.ClosingDate + "\n" +
		"Issue Manager: " + o.IssueManager)

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//nep-ipo-reminder//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:REQUEST",
		"BEGIN:VEVENT",
		"UID:" + identity.EventUID(offeringID),
		"DTSTAMP:" + now.UTC().Format(icsTimeLayout),
		"ORGANIZER;CN=" + Escape(organizerName) + ":mailto:" + organizerEmail,
		"ATTENDEE;CN=" + Escape(recipient) + ";ROLE=REQ-PARTICIPANT;PARTSTAT=NEEDS-ACTION;RSVP=TRUE:mailto:" + recipient,
		"SUMMARY:" + summary,
		"DESCRIPTION:" + description,
		"DTSTART:" + start.UTC().Format(icsTimeLayout),
		"DTEND:" + end.UTC().Format(icsTimeLayout),
		"SEQUENCE:0",
		"STATUS:CONFIRMED",
		"TRANSP:OPAQUE",
		"END:VEVENT",
		"END:VCALENDAR",
	}

	return Fold(strings.Join(lines, "\r\n") + "\r\n"), nil
}

// Package types defines the shared domain model for the ipowatch notifier:
// offering records scraped from the listings page, the error taxonomy, and
// the small set of cross-cutting interfaces (Clock, Logger) injected into
// the core components.
package types

import "strings"

// OfferingType identifies the kind of public share sale. The values match
// the tab labels on the listings page verbatim, since they flow into email
// subjects and calendar summaries unchanged.
type OfferingType string

const (
	OfferingIPO        OfferingType = "IPO"
	OfferingFPO        OfferingType = "FPO"
	OfferingRightShare OfferingType = "Right Share"
	OfferingMutualFund OfferingType = "Mutual Fund"
	OfferingIPOLocal   OfferingType = "IPO-Local"
	OfferingBonds      OfferingType = "Bonds/Debentures"
	OfferingIPOMigrant OfferingType = "IPO to Migrant Workers"
	OfferingIPOQII     OfferingType = "IPO for QIIs"
)

// Offering is one open share-sale row from the listings page, validated at
// the scraper boundary before it enters the core. Dates are calendar dates
// in ISO-8601 form (YYYY-MM-DD) exactly as scraped; no time component.
type Offering struct {
	Symbol       string
	Company      string
	OpeningDate  string
	ClosingDate  string
	IssueManager string
	Type         OfferingType
	TypeID       int
}

// HasClosingDate reports whether the offering carries a non-blank closing
// date. Offerings without one cannot be scheduled and are skipped by the
// orchestrator.
func (o Offering) HasClosingDate() bool {
	return strings.TrimSpace(o.ClosingDate) != ""
}

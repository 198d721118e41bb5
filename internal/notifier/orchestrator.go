// Package notifier contains the send orchestrator: the single sequential
// pass that turns open offerings and a recipient list into deduplicated
// email sends, recording every successful transmission in the ledger.
package notifier

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"ipowatch/internal/config"
	"ipowatch/internal/identity"
	"ipowatch/internal/ics"
	"ipowatch/internal/ledger"
	"ipowatch/internal/mailer"
	"ipowatch/internal/types"
)

// OfferingSource provides the currently open offerings. A nil or empty
// typeIDs slice means the source's default type filter.
type OfferingSource interface {
	FetchOpenOfferings(ctx context.Context, typeIDs []int) ([]types.Offering, error)
}

// ContactSource provides the flattened mailing-list recipient addresses.
type ContactSource interface {
	FetchRecipients(ctx context.Context) ([]string, error)
}

// Mailer transmits one composed message, or fails with a transport error.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// LedgerStore loads and persists the dedupe ledger.
type LedgerStore interface {
	Load() (ledger.Ledger, error)
	Save(l ledger.Ledger) error
}

// Orchestrator runs one notification pass. Execution is fully sequential:
// one offering at a time, one recipient at a time, one terminal ledger
// save. There is no concurrent ledger access to reason about.
type Orchestrator struct {
	offerings OfferingSource
	contacts  ContactSource
	mailer    Mailer
	store     LedgerStore
	clock     types.Clock
	logger    types.Logger
	cfg       *config.Config
	compose   *composer

	// TypeIDs optionally narrows the offering types scraped; nil uses the
	// source default (IPO, FPO, Right Share).
	TypeIDs []int
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Offerings OfferingSource
	Contacts  ContactSource
	Mailer    Mailer
	Store     LedgerStore
	Clock     types.Clock
	Logger    types.Logger
}

// New creates an Orchestrator. Clock and Logger default to RealClock and a
// no-op logger when absent.
func New(cfg *config.Config, deps Deps) (*Orchestrator, error) {
	c, err := newComposer()
	if err != nil {
		return nil, err
	}
	if deps.Clock == nil {
		deps.Clock = types.RealClock{}
	}
	if deps.Logger == nil {
		deps.Logger = types.NopLogger{}
	}
	return &Orchestrator{
		offerings: deps.Offerings,
		contacts:  deps.Contacts,
		mailer:    deps.Mailer,
		store:     deps.Store,
		clock:     deps.Clock,
		logger:    deps.Logger,
		cfg:       cfg,
		compose:   c,
	}, nil
}

// Run executes one notification pass and returns the number of emails
// sent. Transport errors are not recovered: they propagate and abort the
// run with any not-yet-persisted sends unrecorded, so a re-run may re-send
// invites for offerings processed before the failure point.
func (o *Orchestrator) Run(ctx context.Context) (int, error) {
	log := o.logger.With("run_id", uuid.NewString())
	modes := o.cfg.Modes

	open, err := o.offerings.FetchOpenOfferings(ctx, o.TypeIDs)
	if err != nil {
		return 0, err
	}
	log.Info("fetched open offerings", "count", len(open))
	if len(open) == 0 {
		// Nothing to announce: skip contact fetch and all ledger work.
		return 0, nil
	}

	recipients, err := o.contacts.FetchRecipients(ctx)
	if err != nil {
		return 0, err
	}
	log.Info("fetched recipients", "count", len(recipients))

	if modes.DevMode {
		recipients = []string{modes.DevRecipient}
		log.Info("dev mode: redirecting all sends", "recipient", modes.DevRecipient)
	}

	// Dev mode never touches persisted state: the ledger stays empty
	// in-memory and is neither pruned nor saved.
	l := ledger.Ledger{}
	if !modes.DevMode {
		if l, err = o.store.Load(); err != nil {
			return 0, err
		}
		retention := time.Duration(o.cfg.Ledger.RetentionDays) * 24 * time.Hour
		l.Prune(retention, o.clock.Now())
	}

	sent := 0
	for _, offering := range open {
		offeringID, err := identity.ForOffering(offering)
		if err != nil {
			log.Debug("skipping offering", "symbol", offering.Symbol, "error", err.Error())
			continue
		}
		if !offering.HasClosingDate() {
			log.Debug("skipping offering: missing closing date", "offering", offeringID)
			continue
		}

		content, err := o.compose.compose(offering)
		if err != nil {
			return sent, err
		}

		n, err := o.notifyRecipients(ctx, log, offering, offeringID, content, recipients, l)
		sent += n
		if err != nil {
			var appErr *types.AppError
			if errors.As(err, &appErr) && appErr.Code.Recoverable() {
				log.Debug("skipping offering", "offering", offeringID, "error", err.Error())
				continue
			}
			return sent, err
		}
	}

	if sent > 0 && !modes.DevMode {
		if err := o.store.Save(l); err != nil {
			return sent, err
		}
	}
	log.Info("run complete", "sent", sent)
	return sent, nil
}

// notifyRecipients handles one offering across all recipients: invite
// construction, the dedupe decision, transmission, and ledger recording.
// A recoverable error (bad closing date) skips the offering; a transport
// error aborts the run.
func (o *Orchestrator) notifyRecipients(
	ctx context.Context,
	log types.Logger,
	offering types.Offering,
	offeringID string,
	content composed,
	recipients []string,
	l ledger.Ledger,
) (int, error) {
	modes := o.cfg.Modes
	sent := 0
	for _, recipient := range recipients {
		invite, err := ics.BuildInvite(offering, offeringID, recipient,
			o.cfg.Sender.Email, o.cfg.Sender.Name, o.clock.Now())
		if err != nil {
			return sent, err
		}
		if modes.DumpICS {
			o.dumpInvite(log, invite)
		}

		key := identity.DedupeKey(o.cfg.DedupeSalt, recipient, offeringID)
		if !modes.ForceSend && !modes.DevMode && l.Contains(offeringID, key) {
			log.Debug("already notified, skipping", "offering", offeringID)
			continue
		}

		if err := o.mailer.Send(ctx, mailer.Message{
			Recipient: recipient,
			Subject:   content.Subject,
			TextBody:  content.TextBody,
			HTMLBody:  content.HTMLBody,
			Invite:    invite,
		}); err != nil {
			return sent, err
		}
		if !modes.DevMode {
			l.Record(offeringID, key, o.clock.Now())
		}
		sent++
	}
	return sent, nil
}

// dumpInvite writes the most recent calendar artifact to the configured
// debug path. Failures are logged, never fatal.
func (o *Orchestrator) dumpInvite(log types.Logger, invite string) {
	path := o.cfg.Modes.DumpICSPath
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Warn("ics dump failed", "path", path, "error", err.Error())
			return
		}
	}
	if err := os.WriteFile(path, []byte(invite), 0o644); err != nil {
		log.Warn("ics dump failed", "path", path, "error", err.Error())
	}
}

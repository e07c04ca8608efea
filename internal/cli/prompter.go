package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/expenseflow/ledger-match/internal/model"
	"github.com/expenseflow/ledger-match/internal/service"
)

// ReviewStats summarizes one interactive review session.
type ReviewStats struct {
	Accepted   int
	Rejected   int
	Reassigned int
	Skipped    int
}

// Prompter walks a human through the review queue item by item.
type Prompter struct {
	storage service.Storage
	reader  *bufio.Reader
	writer  io.Writer
}

// NewPrompter creates a review prompter with the given reader and writer.
func NewPrompter(storage service.Storage, reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	return &Prompter{
		storage: storage,
		reader:  bufio.NewReader(reader),
		writer:  writer,
	}
}

// Run reviews every queued item, applying decisions immediately. Quitting
// mid-session keeps earlier decisions; the rest of the queue stays pending.
func (p *Prompter) Run(ctx context.Context) (ReviewStats, error) {
	var stats ReviewStats

	items, err := p.storage.GetReviewQueue(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to load review queue: %w", err)
	}
	if len(items) == 0 {
		fmt.Fprintln(p.writer, FormatSuccess("Review queue is empty."))
		return stats, nil
	}

	fmt.Fprintln(p.writer, TitleStyle.Render(fmt.Sprintf("Reviewing %d queued items", len(items))))

	for i := range items {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		item := &items[i]
		fmt.Fprintln(p.writer, SubtleStyle.Render(fmt.Sprintf("Item %d of %d", i+1, len(items))))
		fmt.Fprintln(p.writer, RenderBox("Document", p.formatDocument(&item.Document)))
		if item.Transaction != nil {
			fmt.Fprintln(p.writer, RenderBox("Proposed transaction", p.formatTransaction(item.Transaction)))
			fmt.Fprintln(p.writer, p.formatVerdict(&item.Result))
		} else {
			fmt.Fprintln(p.writer, FormatWarning("No transaction matched: "+string(item.Result.Reason)))
		}

		done, err := p.decide(ctx, item, &stats)
		if err != nil {
			return stats, err
		}
		if done {
			break
		}
	}

	fmt.Fprintln(p.writer, FormatSuccess(fmt.Sprintf(
		"Session complete: %d accepted, %d rejected, %d reassigned, %d skipped",
		stats.Accepted, stats.Rejected, stats.Reassigned, stats.Skipped)))

	return stats, nil
}

// decide prompts for and applies a single decision. Returns true when the
// user quits the session.
func (p *Prompter) decide(ctx context.Context, item *model.ReviewItem, stats *ReviewStats) (bool, error) {
	choices := []string{"t", "s", "q"}
	if item.Transaction != nil {
		fmt.Fprintln(p.writer, "  [A] Accept match")
		fmt.Fprintln(p.writer, "  [R] Reject match")
		choices = append(choices, "a", "r")
	}
	fmt.Fprintln(p.writer, "  [T] Assign a different transaction")
	fmt.Fprintln(p.writer, "  [S] Skip for now")
	fmt.Fprintln(p.writer, "  [Q] Quit review")

	choice, err := p.promptChoice(ctx, "Choice", choices)
	if err != nil {
		return false, err
	}

	switch choice {
	case "a":
		if err := p.storage.AcceptMatch(ctx, item.Result.ID); err != nil {
			return false, fmt.Errorf("failed to accept match: %w", err)
		}
		stats.Accepted++
		fmt.Fprintln(p.writer, FormatSuccess("Match accepted"))
	case "r":
		if err := p.storage.RejectMatch(ctx, item.Result.ID); err != nil {
			return false, fmt.Errorf("failed to reject match: %w", err)
		}
		stats.Rejected++
		fmt.Fprintln(p.writer, FormatSuccess("Match rejected"))
	case "t":
		txnID, err := p.promptLine(ctx, "Transaction ID")
		if err != nil {
			return false, err
		}
		if txnID == "" {
			stats.Skipped++
			return false, nil
		}
		if err := p.storage.ReassignMatch(ctx, item.Result.ID, txnID); err != nil {
			fmt.Fprintln(p.writer, FormatError(fmt.Sprintf("Reassignment failed: %v", err)))
			stats.Skipped++
			return false, nil
		}
		stats.Reassigned++
		fmt.Fprintln(p.writer, FormatSuccess("Reassigned to "+txnID))
	case "s":
		stats.Skipped++
	case "q":
		return true, nil
	}

	return false, nil
}

func (p *Prompter) formatDocument(doc *model.ExtractedDocument) string {
	lines := []string{
		fmt.Sprintf("Merchant:  %s", doc.MerchantName),
		fmt.Sprintf("Total:     %s %s", doc.Total.StringFixed(2), doc.Currency),
	}
	if !doc.Date.IsZero() {
		lines = append(lines, fmt.Sprintf("Date:      %s", doc.Date.Format("2006-01-02")))
	}
	if doc.InvoiceNumber != "" {
		lines = append(lines, fmt.Sprintf("Invoice:   %s", doc.InvoiceNumber))
	}
	lines = append(lines, SubtleStyle.Render(fmt.Sprintf("%s  %s", doc.Type, doc.ID)))
	return strings.Join(lines, "\n")
}

func (p *Prompter) formatTransaction(txn *model.Transaction) string {
	lines := []string{
		fmt.Sprintf("Name:      %s", txn.Name),
		fmt.Sprintf("Amount:    %s %s", txn.Amount.StringFixed(2), txn.Currency),
		fmt.Sprintf("Date:      %s", txn.Date.Format("2006-01-02")),
		SubtleStyle.Render(fmt.Sprintf("%s  %s", txn.AccountID, txn.ID)),
	}
	return strings.Join(lines, "\n")
}

func (p *Prompter) formatVerdict(result *model.MatchResult) string {
	confidence := fmt.Sprintf("%.0f%%", result.Confidence*100)
	verdict := fmt.Sprintf("Tier: %s  Confidence: %s", result.Tier, confidence)
	if result.Reason != "" {
		verdict += "  Reason: " + string(result.Reason)
	}
	if result.Confidence >= 0.8 {
		return SuccessStyle.Render(verdict)
	}
	return WarningStyle.Render(verdict)
}

// promptChoice reads input until the user gives one of the valid choices.
func (p *Prompter) promptChoice(ctx context.Context, prompt string, valid []string) (string, error) {
	for {
		fmt.Fprint(p.writer, FormatPrompt(prompt))
		line, err := p.promptLine(ctx, "")
		if err != nil {
			return "", err
		}
		choice := strings.ToLower(line)
		for _, v := range valid {
			if choice == v {
				return choice, nil
			}
		}
		fmt.Fprintln(p.writer, FormatWarning("Invalid choice, try again"))
	}
}

func (p *Prompter) promptLine(ctx context.Context, prompt string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	if prompt != "" {
		fmt.Fprint(p.writer, FormatPrompt(prompt))
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

package app

import (
	"context"
	"fmt"
	"strings"

	"hotel_scout/internal/domain"
)

// showHistory trims stored history to the retention rule, persists the trim
// and renders what is left. Every listed search can be rerun by id.
func (c *Controller) showHistory(ctx context.Context, chatID int64) error {
	u, err := c.store.FindByID(ctx, chatID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", chatID, err)
	}
	u.TrimHistory()
	if err := c.store.Upsert(ctx, u); err != nil {
		return fmt.Errorf("persist trimmed history for user %d: %w", chatID, err)
	}

	if len(u.Searches) == 0 {
		if err := c.channel.SendText(ctx, chatID, "You have no saved searches yet."); err != nil {
			return err
		}
		return c.sendInitialMenu(ctx, chatID)
	}

	for i, s := range u.Searches {
		if err := c.channel.SendText(ctx, chatID, formatSearch(i+1, s)); err != nil {
			return err
		}
	}

	choices := make([]domain.Choice, 0, len(u.Searches)+2)
	for i, s := range u.Searches {
		choices = append(choices, domain.Choice{
			Label: fmt.Sprintf("Repeat search %d (%s)", i+1, s.Destination.Name),
			Data:  fmt.Sprintf("%s:%s", prefixRepeat, s.ID),
		})
	}
	choices = append(choices,
		domain.Choice{Label: "Delete the last search", Data: choiceClearLast},
		domain.Choice{Label: "Start a new search", Data: choiceNewSearch},
	)
	return c.channel.SendChoices(ctx, chatID, "What would you like to do with your history?", choices)
}

// clearLastSearch drops the most recent search from history.
func (c *Controller) clearLastSearch(ctx context.Context, chatID int64) error {
	u, err := c.store.FindByID(ctx, chatID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", chatID, err)
	}
	if !u.DropLastSearch() {
		if err := c.channel.SendText(ctx, chatID, "There is nothing to delete."); err != nil {
			return err
		}
		return c.sendInitialMenu(ctx, chatID)
	}
	if err := c.store.Upsert(ctx, u); err != nil {
		return fmt.Errorf("persist history for user %d: %w", chatID, err)
	}
	if err := c.channel.SendText(ctx, chatID, "The last search was deleted."); err != nil {
		return err
	}
	return c.showHistory(ctx, chatID)
}

// repeatSearch clones a stored search's parameters into a fresh entry and
// jumps straight to command selection.
func (c *Controller) repeatSearch(ctx context.Context, sess *session, parts []string) error {
	if len(parts) != 2 {
		return c.sendInitialMenu(ctx, sess.chatID)
	}
	u, err := c.store.FindByID(ctx, sess.chatID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", sess.chatID, err)
	}
	src := u.FindSearch(parts[1])
	if src == nil {
		if err := c.channel.SendText(ctx, sess.chatID, "That search is no longer in your history."); err != nil {
			return err
		}
		return c.showHistory(ctx, sess.chatID)
	}
	u.Searches = append(u.Searches, src.Replay(c.now()))
	if err := c.store.Upsert(ctx, u); err != nil {
		return fmt.Errorf("persist search for user %d: %w", sess.chatID, err)
	}

	sess.resetCollection()
	sess.state = stateAwaitingCommand
	return c.askCommand(ctx, sess.chatID, false)
}

func formatSearch(num int, s domain.Search) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search %d, %s\n", num, s.CreatedAt.UTC().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "City: %s\n", s.Destination.Name)
	fmt.Fprintf(&b, "Check-in %s, check-out %s\n", s.CheckIn, s.CheckOut)
	if s.Mode != "" {
		fmt.Fprintf(&b, "Strategy: %s\n", modeLabel(s.Mode))
	}
	if len(s.Results) == 0 {
		b.WriteString("No results were found.")
		return b.String()
	}
	b.WriteString("Hotels found:")
	for _, h := range s.Results {
		fmt.Fprintf(&b, "\n- %s ($%v per night)", h.Name, domain.Round2(h.PricePerNight))
	}
	return b.String()
}

func modeLabel(m domain.Mode) string {
	switch m {
	case domain.ModeLow:
		return "cheapest hotels"
	case domain.ModeHigh:
		return "priciest hotels"
	case domain.ModeBestDeal:
		return "custom search"
	default:
		return string(m)
	}
}

package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"hotel_scout/internal/domain"
)

// Choice payload grammar shared with the messaging transport. Parameters are
// colon-separated; the controller validates them against the session cursor.
const (
	choiceFindHotels = "find"
	choiceHistory    = "history"
	choiceNewSearch  = "new_data"
	choiceClearLast  = "clear_last"

	prefixCity     = "city"    // city:<index>
	prefixRooms    = "rooms"   // rooms:<n>
	prefixAdults   = "adults"  // adults:<room>:<n>
	prefixChildren = "childs"  // childs:<room>:<n>
	prefixAge      = "age"     // age:<room>:<child>:<age>
	prefixResults  = "results" // results:<n>
	prefixPhotos   = "photos"  // photos:<n>
	prefixMode     = "mode"    // mode:<LOW|HIGH|BEST_DEAL>
	prefixAgain    = "again"   // again:<LOW|HIGH|BEST_DEAL>
	prefixRepeat   = "repeat"  // repeat:<search id>
)

// Occupancy bounds offered by the prompts.
const (
	maxRooms       = 8
	maxRoomAdults  = 14
	maxRoomKids    = 6
	maxChildAge    = 17
	maxResultCount = 5
	maxPhotoCount  = 5
)

const dateLayout = "2006-01-02"

const (
	msgSearchFailed = "Something went wrong. Please retry the search."
	msgChooseCmd    = "Choose one of the following commands"
	msgSearching    = "Searching now! This can take up to two minutes."
	msgHelp         = "Press Find hotels to start a new search. You will be asked for a city, " +
		"stay dates, rooms and guests, and how many results and photos to show. " +
		"Then pick a strategy: cheapest hotels, priciest hotels, or a custom search " +
		"with price and distance bounds. Show search history lists your last searches " +
		"and lets you rerun one with the same parameters."
)

// Profile carries the transport-side identity fields for user creation.
type Profile struct {
	FirstName string
	LastName  string
	Username  string
}

// Controller is the per-session finite-state machine that collects search
// parameters one interaction at a time and hands complete requests to the
// orchestrator. One inbound event is fully handled before the reply goes out.
type Controller struct {
	sessions  *sessionRegistry
	store     domain.UserStore
	orch      *Orchestrator
	cities    domain.CityDirectory
	channel   domain.MessagingChannel
	converter domain.CurrencyConverter
	greeting  domain.GreetingClassifier
	now       func() time.Time
	log       zerolog.Logger
}

func NewController(
	store domain.UserStore,
	orch *Orchestrator,
	cities domain.CityDirectory,
	channel domain.MessagingChannel,
	converter domain.CurrencyConverter,
	greeting domain.GreetingClassifier,
	log zerolog.Logger,
) *Controller {
	return &Controller{
		sessions:  newSessionRegistry(),
		store:     store,
		orch:      orch,
		cities:    cities,
		channel:   channel,
		converter: converter,
		greeting:  greeting,
		now:       time.Now,
		log:       log.With().Str("component", "conversation").Logger(),
	}
}

// HandleStart greets the user, creating the record on first contact, and
// resets the session to the initial menu.
func (c *Controller) HandleStart(ctx context.Context, chatID int64, p Profile) error {
	u, err := c.store.FindByID(ctx, chatID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		u = domain.User{ID: chatID, FirstName: p.FirstName, LastName: p.LastName, Username: p.Username}
		if err := c.store.Upsert(ctx, u); err != nil {
			return fmt.Errorf("create user %d: %w", chatID, err)
		}
		if err := c.channel.SendText(ctx, chatID, fmt.Sprintf("Hello, %s!", displayName(u))); err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("load user %d: %w", chatID, err)
	default:
		if err := c.channel.SendText(ctx, chatID, fmt.Sprintf("Good to see you again, %s!", displayName(u))); err != nil {
			return err
		}
	}

	// /start ends any conversation in flight
	c.sessions.drop(chatID)
	c.sessions.get(chatID)
	return c.sendInitialMenu(ctx, chatID)
}

func (c *Controller) HandleHelp(ctx context.Context, chatID int64) error {
	return c.channel.SendText(ctx, chatID, msgHelp)
}

// HandleText consumes one free-text input event.
func (c *Controller) HandleText(ctx context.Context, chatID int64, p Profile, text string) error {
	if c.greeting != nil && c.greeting(text) {
		return c.HandleStart(ctx, chatID, p)
	}

	sess := c.sessions.get(chatID)
	switch sess.state {
	case stateAwaitingCity:
		return c.resolveCity(ctx, sess, text)
	case stateAwaitingCheckIn:
		return c.acceptCheckIn(ctx, sess, text)
	case stateAwaitingCheckOut:
		return c.acceptCheckOut(ctx, sess, text)
	case stateAwaitingPriceMin:
		return c.acceptPriceMin(ctx, sess, text)
	case stateAwaitingPriceMax:
		return c.acceptPriceMax(ctx, sess, text)
	case stateAwaitingDistanceMin:
		return c.acceptDistanceMin(ctx, sess, text)
	case stateAwaitingDistanceMax:
		return c.acceptDistanceMax(ctx, sess, text)
	default:
		return c.sendInitialMenu(ctx, chatID)
	}
}

// HandleChoice consumes one discrete-choice event.
func (c *Controller) HandleChoice(ctx context.Context, chatID int64, data string) error {
	sess := c.sessions.get(chatID)
	parts := strings.Split(data, ":")

	switch parts[0] {
	case choiceFindHotels, choiceNewSearch:
		sess.resetCollection()
		return c.askCity(ctx, sess)
	case choiceHistory:
		return c.showHistory(ctx, chatID)
	case choiceClearLast:
		return c.clearLastSearch(ctx, chatID)
	case prefixCity:
		return c.chooseCity(ctx, sess, parts)
	case prefixRooms:
		return c.chooseRoomCount(ctx, sess, parts)
	case prefixAdults:
		return c.chooseAdults(ctx, sess, parts)
	case prefixChildren:
		return c.chooseChildCount(ctx, sess, parts)
	case prefixAge:
		return c.chooseChildAge(ctx, sess, parts)
	case prefixResults:
		return c.chooseResultCount(ctx, sess, parts)
	case prefixPhotos:
		return c.choosePhotoCount(ctx, sess, parts)
	case prefixMode:
		return c.chooseMode(ctx, sess, parts, false)
	case prefixAgain:
		return c.chooseMode(ctx, sess, parts, true)
	case prefixRepeat:
		return c.repeatSearch(ctx, sess, parts)
	default:
		c.log.Warn().Int64("chat_id", chatID).Str("data", data).Msg("unknown choice payload")
		return c.sendInitialMenu(ctx, chatID)
	}
}

// ---- city ----

func (c *Controller) askCity(ctx context.Context, sess *session) error {
	sess.state = stateAwaitingCity
	return c.channel.SendText(ctx, sess.chatID, "Which city should I search? (example: Lisbon)")
}

func (c *Controller) resolveCity(ctx context.Context, sess *session, text string) error {
	candidates, err := c.cities.SearchCandidates(ctx, text)
	if err != nil || len(candidates) == 0 {
		if err != nil {
			c.log.Warn().Int64("chat_id", sess.chatID).Err(err).Msg("city lookup failed")
		}
		if err := c.channel.SendText(ctx, sess.chatID, "I could not find that city. Please enter a city name again."); err != nil {
			return err
		}
		return c.askCity(ctx, sess)
	}

	sess.candidates = candidates
	sess.state = stateAwaitingCitySelection

	choices := make([]domain.Choice, 0, len(candidates)+1)
	for i, cand := range candidates {
		choices = append(choices, domain.Choice{Label: cand.Name, Data: fmt.Sprintf("%s:%d", prefixCity, i)})
	}
	choices = append(choices, domain.Choice{Label: "A different city", Data: fmt.Sprintf("%s:%d", prefixCity, len(candidates))})
	return c.channel.SendChoices(ctx, sess.chatID,
		"Pick your city from the list. If it is not there, choose \"A different city\".", choices)
}

func (c *Controller) chooseCity(ctx context.Context, sess *session, parts []string) error {
	if sess.state != stateAwaitingCitySelection || len(parts) != 2 {
		return c.sendInitialMenu(ctx, sess.chatID)
	}
	idx, err := strconv.Atoi(parts[1])
	if err != nil || idx < 0 || idx > len(sess.candidates) {
		return c.sendInitialMenu(ctx, sess.chatID)
	}
	if idx == len(sess.candidates) {
		// the trailing "different city" option restarts city entry
		return c.askCity(ctx, sess)
	}

	dest := sess.candidates[idx]
	sess.candidates = nil

	u, err := c.store.FindByID(ctx, sess.chatID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", sess.chatID, err)
	}
	u.Searches = append(u.Searches, domain.NewSearch(dest, c.now()))
	if err := c.store.Upsert(ctx, u); err != nil {
		return fmt.Errorf("persist search for user %d: %w", sess.chatID, err)
	}

	sess.state = stateAwaitingCheckIn
	return c.channel.SendText(ctx, sess.chatID,
		"Enter the check-in date as YYYY-MM-DD (example: 2026-09-14)")
}

// ---- dates ----

func (c *Controller) acceptCheckIn(ctx context.Context, sess *session, text string) error {
	day, err := parseDay(text)
	if err != nil {
		return c.channel.SendText(ctx, sess.chatID,
			"That is not a valid date. Enter the check-in date as YYYY-MM-DD (example: 2026-09-14)")
	}
	sess.checkIn = day
	sess.state = stateAwaitingCheckOut
	return c.channel.SendText(ctx, sess.chatID,
		"Enter the check-out date as YYYY-MM-DD (example: 2026-09-19)")
}

func (c *Controller) acceptCheckOut(ctx context.Context, sess *session, text string) error {
	day, err := parseDay(text)
	if err != nil {
		return c.channel.SendText(ctx, sess.chatID,
			"That is not a valid date. Enter the check-out date as YYYY-MM-DD (example: 2026-09-19)")
	}
	if err := domain.ValidateStay(sess.checkIn, day); err != nil {
		return c.channel.SendText(ctx, sess.chatID,
			"Check-out must be after check-in. Enter the check-out date as YYYY-MM-DD.")
	}

	checkIn := sess.checkIn
	if err := c.mutateLastSearch(ctx, sess.chatID, func(s *domain.Search) {
		s.CheckIn = checkIn
		s.CheckOut = day
	}); err != nil {
		return err
	}

	sess.state = stateAwaitingRoomCount
	return c.askRoomCount(ctx, sess)
}

func parseDay(text string) (domain.Day, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(text))
	if err != nil {
		return domain.Day{}, err
	}
	return domain.Day{Day: t.Day(), Month: int(t.Month()), Year: t.Year()}, nil
}

// ---- occupancy ----

func (c *Controller) askRoomCount(ctx context.Context, sess *session) error {
	sess.state = stateAwaitingRoomCount
	sess.rooms = nil
	choices := make([]domain.Choice, 0, maxRooms)
	for n := 1; n <= maxRooms; n++ {
		choices = append(choices, domain.Choice{Label: strconv.Itoa(n), Data: fmt.Sprintf("%s:%d", prefixRooms, n)})
	}
	return c.channel.SendChoices(ctx, sess.chatID, "How many rooms would you like to book?", choices)
}

func (c *Controller) chooseRoomCount(ctx context.Context, sess *session, parts []string) error {
	if sess.state != stateAwaitingRoomCount || len(parts) != 2 {
		return c.sendInitialMenu(ctx, sess.chatID)
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil || n < 1 || n > maxRooms {
		return c.askRoomCount(ctx, sess)
	}
	sess.rooms = make([]roomDraft, n)
	sess.curRoom = 0
	sess.state = stateAwaitingAdults
	return c.askAdults(ctx, sess)
}

func (c *Controller) askAdults(ctx context.Context, sess *session) error {
	headroom := domain.MaxOccupants - sess.totalOccupants()
	if headroom < 1 {
		return c.abortOccupancy(ctx, sess)
	}
	limit := maxRoomAdults
	if headroom < limit {
		limit = headroom
	}
	choices := make([]domain.Choice, 0, limit)
	for n := 1; n <= limit; n++ {
		choices = append(choices, domain.Choice{
			Label: strconv.Itoa(n),
			Data:  fmt.Sprintf("%s:%d:%d", prefixAdults, sess.curRoom, n),
		})
	}
	return c.channel.SendChoices(ctx, sess.chatID,
		fmt.Sprintf("How many adults in room %d?", sess.curRoom+1), choices)
}

func (c *Controller) chooseAdults(ctx context.Context, sess *session, parts []string) error {
	if sess.state != stateAwaitingAdults || len(parts) != 3 {
		return c.sendInitialMenu(ctx, sess.chatID)
	}
	room, err1 := strconv.Atoi(parts[1])
	n, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || room != sess.curRoom || n < 1 || n > maxRoomAdults {
		return c.askAdults(ctx, sess)
	}
	if sess.totalOccupants()+n > domain.MaxOccupants {
		return c.abortOccupancy(ctx, sess)
	}
	sess.rooms[sess.curRoom].adults = n
	sess.state = stateAwaitingChildCount
	return c.askChildCount(ctx, sess)
}

func (c *Controller) askChildCount(ctx context.Context, sess *session) error {
	headroom := domain.MaxOccupants - sess.totalOccupants()
	limit := maxRoomKids
	if headroom < limit {
		limit = headroom
	}
	choices := []domain.Choice{{Label: "No children", Data: fmt.Sprintf("%s:%d:0", prefixChildren, sess.curRoom)}}
	for n := 1; n <= limit; n++ {
		choices = append(choices, domain.Choice{
			Label: strconv.Itoa(n),
			Data:  fmt.Sprintf("%s:%d:%d", prefixChildren, sess.curRoom, n),
		})
	}
	return c.channel.SendChoices(ctx, sess.chatID,
		fmt.Sprintf("How many children in room %d?", sess.curRoom+1), choices)
}

func (c *Controller) chooseChildCount(ctx context.Context, sess *session, parts []string) error {
	if sess.state != stateAwaitingChildCount || len(parts) != 3 {
		return c.sendInitialMenu(ctx, sess.chatID)
	}
	room, err1 := strconv.Atoi(parts[1])
	n, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || room != sess.curRoom || n < 0 || n > maxRoomKids {
		return c.askChildCount(ctx, sess)
	}
	if sess.totalOccupants()+n > domain.MaxOccupants {
		return c.abortOccupancy(ctx, sess)
	}
	if n == 0 {
		return c.advanceRoom(ctx, sess)
	}
	sess.totalChildren = n
	sess.curChild = 1
	sess.state = stateAwaitingChildAge
	return c.askChildAge(ctx, sess)
}

func (c *Controller) askChildAge(ctx context.Context, sess *session) error {
	choices := make([]domain.Choice, 0, maxChildAge+1)
	for age := 0; age <= maxChildAge; age++ {
		choices = append(choices, domain.Choice{
			Label: strconv.Itoa(age),
			Data:  fmt.Sprintf("%s:%d:%d:%d", prefixAge, sess.curRoom, sess.curChild, age),
		})
	}
	return c.channel.SendChoices(ctx, sess.chatID,
		fmt.Sprintf("Age of child %d in room %d?", sess.curChild, sess.curRoom+1), choices)
}

func (c *Controller) chooseChildAge(ctx context.Context, sess *session, parts []string) error {
	if sess.state != stateAwaitingChildAge || len(parts) != 4 {
		return c.sendInitialMenu(ctx, sess.chatID)
	}
	room, err1 := strconv.Atoi(parts[1])
	child, err2 := strconv.Atoi(parts[2])
	age, err3 := strconv.Atoi(parts[3])
	if err1 != nil || err2 != nil || err3 != nil ||
		room != sess.curRoom || child != sess.curChild || age < 0 || age > maxChildAge {
		return c.askChildAge(ctx, sess)
	}
	sess.rooms[sess.curRoom].childAges = append(sess.rooms[sess.curRoom].childAges, age)
	if sess.curChild < sess.totalChildren {
		sess.curChild++
		return c.askChildAge(ctx, sess)
	}
	return c.advanceRoom(ctx, sess)
}

func (c *Controller) advanceRoom(ctx context.Context, sess *session) error {
	sess.curChild = 0
	sess.totalChildren = 0
	sess.curRoom++
	if sess.curRoom < len(sess.rooms) {
		sess.state = stateAwaitingAdults
		return c.askAdults(ctx, sess)
	}
	return c.finishOccupancy(ctx, sess)
}

func (c *Controller) finishOccupancy(ctx context.Context, sess *session) error {
	rooms := make([]domain.RoomSpec, len(sess.rooms))
	for i, r := range sess.rooms {
		rooms[i] = domain.RoomSpec{Adults: r.adults, ChildAges: append([]int(nil), r.childAges...)}
	}
	if err := domain.ValidateOccupancy(rooms); err != nil {
		return c.abortOccupancy(ctx, sess)
	}
	if err := c.mutateLastSearch(ctx, sess.chatID, func(s *domain.Search) {
		s.Rooms = rooms
	}); err != nil {
		return err
	}
	sess.state = stateAwaitingResultCount
	return c.askResultCount(ctx, sess)
}

// abortOccupancy handles occupant overflow: the whole room block is discarded
// and collection returns to room-count selection.
func (c *Controller) abortOccupancy(ctx context.Context, sess *session) error {
	if err := c.channel.SendText(ctx, sess.chatID,
		fmt.Sprintf("The booking limit of %d guests was exceeded. Let's enter the rooms again.", domain.MaxOccupants)); err != nil {
		return err
	}
	sess.curRoom = 0
	sess.curChild = 0
	sess.totalChildren = 0
	return c.askRoomCount(ctx, sess)
}

// ---- result/photo counts ----

func (c *Controller) askResultCount(ctx context.Context, sess *session) error {
	choices := make([]domain.Choice, 0, maxResultCount)
	for n := 1; n <= maxResultCount; n++ {
		choices = append(choices, domain.Choice{Label: strconv.Itoa(n), Data: fmt.Sprintf("%s:%d", prefixResults, n)})
	}
	return c.channel.SendChoices(ctx, sess.chatID, "How many hotels would you like to see?", choices)
}

func (c *Controller) chooseResultCount(ctx context.Context, sess *session, parts []string) error {
	if sess.state != stateAwaitingResultCount || len(parts) != 2 {
		return c.sendInitialMenu(ctx, sess.chatID)
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil || n < 1 || n > maxResultCount {
		return c.askResultCount(ctx, sess)
	}
	if err := c.mutateLastSearch(ctx, sess.chatID, func(s *domain.Search) {
		s.RequestedCount = n
	}); err != nil {
		return err
	}
	sess.state = stateAwaitingPhotoCount
	return c.askPhotoCount(ctx, sess)
}

func (c *Controller) askPhotoCount(ctx context.Context, sess *session) error {
	choices := make([]domain.Choice, 0, maxPhotoCount+1)
	for n := 0; n <= maxPhotoCount; n++ {
		choices = append(choices, domain.Choice{Label: strconv.Itoa(n), Data: fmt.Sprintf("%s:%d", prefixPhotos, n)})
	}
	return c.channel.SendChoices(ctx, sess.chatID, "How many photos per hotel should I load?", choices)
}

func (c *Controller) choosePhotoCount(ctx context.Context, sess *session, parts []string) error {
	if sess.state != stateAwaitingPhotoCount || len(parts) != 2 {
		return c.sendInitialMenu(ctx, sess.chatID)
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil || n < 0 || n > maxPhotoCount {
		return c.askPhotoCount(ctx, sess)
	}
	if err := c.mutateLastSearch(ctx, sess.chatID, func(s *domain.Search) {
		s.PhotoCount = n
	}); err != nil {
		return err
	}
	sess.state = stateAwaitingCommand
	return c.askCommand(ctx, sess.chatID, false)
}

// ---- command / modes ----

func (c *Controller) askCommand(ctx context.Context, chatID int64, again bool) error {
	prefix := prefixMode
	if again {
		prefix = prefixAgain
	}
	choices := []domain.Choice{
		{Label: "Find cheapest hotels", Data: prefix + ":" + string(domain.ModeLow)},
		{Label: "Find priciest hotels", Data: prefix + ":" + string(domain.ModeHigh)},
		{Label: "Custom search", Data: prefix + ":" + string(domain.ModeBestDeal)},
	}
	if again {
		choices = append(choices, domain.Choice{Label: "Start another search", Data: choiceNewSearch})
	}
	return c.channel.SendChoices(ctx, chatID, msgChooseCmd, choices)
}

func (c *Controller) chooseMode(ctx context.Context, sess *session, parts []string, again bool) error {
	// mode buttons are only live once collection is complete; a stale callback
	// must not run a search on a half-built entry
	if sess.state != stateAwaitingCommand || len(parts) != 2 {
		return c.sendInitialMenu(ctx, sess.chatID)
	}
	mode := domain.Mode(parts[1])
	switch mode {
	case domain.ModeLow, domain.ModeHigh, domain.ModeBestDeal:
	default:
		return c.sendInitialMenu(ctx, sess.chatID)
	}

	u, err := c.store.FindByID(ctx, sess.chatID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", sess.chatID, err)
	}
	last := u.LastSearch()
	if last == nil {
		return c.sendInitialMenu(ctx, sess.chatID)
	}
	if again {
		// rerun with preserved parameters under a fresh id and timestamp
		u.Searches = append(u.Searches, last.Replay(c.now()))
		last = u.LastSearch()
	}
	last.Mode = mode
	if err := c.store.Upsert(ctx, u); err != nil {
		return fmt.Errorf("persist search for user %d: %w", sess.chatID, err)
	}
	sess.again = again

	if mode == domain.ModeBestDeal {
		sess.state = stateAwaitingPriceMin
		return c.channel.SendText(ctx, sess.chatID,
			"Enter the minimum nightly price as a whole number (example: 50)")
	}
	return c.runSearch(ctx, sess)
}

// ---- BEST_DEAL bounds ----

func (c *Controller) acceptPriceMin(ctx context.Context, sess *session, text string) error {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return c.channel.SendText(ctx, sess.chatID,
			"Invalid price format. Enter the minimum nightly price as a whole number (example: 50)")
	}
	sess.price.Min = float64(v)
	sess.state = stateAwaitingPriceMax
	return c.channel.SendText(ctx, sess.chatID,
		"Enter the maximum nightly price as a whole number (example: 150)")
}

func (c *Controller) acceptPriceMax(ctx context.Context, sess *session, text string) error {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return c.channel.SendText(ctx, sess.chatID,
			"Invalid price format. Enter the maximum nightly price as a whole number (example: 150)")
	}
	r := domain.Range{Min: sess.price.Min, Max: float64(v)}
	if err := domain.ValidateRange(r); err != nil {
		// re-prompt max only; min stays accepted
		return c.channel.SendText(ctx, sess.chatID,
			"The maximum price cannot be less than the minimum. Enter the maximum nightly price again.")
	}
	sess.price = r
	if err := c.mutateLastSearch(ctx, sess.chatID, func(s *domain.Search) {
		pr := r
		s.PriceRange = &pr
	}); err != nil {
		return err
	}
	sess.state = stateAwaitingDistanceMin
	return c.channel.SendText(ctx, sess.chatID,
		"Enter the minimum distance from the center in kilometers (example: 0.5)")
}

func (c *Controller) acceptDistanceMin(ctx context.Context, sess *session, text string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return c.channel.SendText(ctx, sess.chatID,
			"Invalid distance format. Enter the minimum distance in kilometers (example: 0.5)")
	}
	sess.distance.Min = v
	sess.state = stateAwaitingDistanceMax
	return c.channel.SendText(ctx, sess.chatID,
		"Enter the maximum distance from the center in kilometers (example: 4.5)")
}

func (c *Controller) acceptDistanceMax(ctx context.Context, sess *session, text string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return c.channel.SendText(ctx, sess.chatID,
			"Invalid distance format. Enter the maximum distance in kilometers (example: 4.5)")
	}
	r := domain.Range{Min: sess.distance.Min, Max: v}
	if err := domain.ValidateRange(r); err != nil {
		return c.channel.SendText(ctx, sess.chatID,
			"The maximum distance cannot be less than the minimum. Enter the maximum distance again.")
	}
	sess.distance = r
	if err := c.mutateLastSearch(ctx, sess.chatID, func(s *domain.Search) {
		dr := r
		s.DistanceRange = &dr
	}); err != nil {
		return err
	}
	return c.runSearch(ctx, sess)
}

// ---- search execution ----

// runSearch blocks the session until the orchestrator returns. On failure the
// collected parameters stay intact and the session returns to command
// selection with a plain retry message.
func (c *Controller) runSearch(ctx context.Context, sess *session) error {
	if err := c.channel.SendText(ctx, sess.chatID, msgSearching); err != nil {
		return err
	}

	u, err := c.store.FindByID(ctx, sess.chatID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", sess.chatID, err)
	}
	last := u.LastSearch()
	if last == nil {
		return c.sendInitialMenu(ctx, sess.chatID)
	}

	runErr := c.orch.Run(ctx, last)
	if err := c.store.Upsert(ctx, u); err != nil {
		return fmt.Errorf("persist results for user %d: %w", sess.chatID, err)
	}

	sess.state = stateAwaitingCommand
	if runErr != nil {
		if err := c.channel.SendText(ctx, sess.chatID, msgSearchFailed); err != nil {
			return err
		}
		return c.askCommand(ctx, sess.chatID, sess.again)
	}

	if err := c.sendResults(ctx, sess.chatID, *last); err != nil {
		return err
	}
	sess.again = true
	return c.askCommand(ctx, sess.chatID, true)
}

func (c *Controller) sendResults(ctx context.Context, chatID int64, s domain.Search) error {
	if len(s.Results) == 0 {
		return c.channel.SendText(ctx, chatID, "Unfortunately your search had no results.")
	}
	for i, h := range s.Results {
		caption := c.formatHotel(ctx, i+1, h, s.Nights())
		if err := c.channel.SendHotelCard(ctx, chatID, caption, h.PhotoURLs); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) formatHotel(ctx context.Context, num int, h domain.Hotel, nights int) string {
	perNight := fmt.Sprintf("$%v per night", domain.Round2(h.PricePerNight))
	total := ""
	if nights > 0 {
		total = fmt.Sprintf("$%v for %s", domain.Round2(h.PricePerNight*float64(nights)), nightsLabel(nights))
	}
	if c.converter != nil {
		if v, err := c.converter.Convert(ctx, h.PricePerNight); err == nil {
			perNight = fmt.Sprintf("%v RUB per night", v)
			if nights > 0 {
				if tv, err := c.converter.Convert(ctx, h.PricePerNight*float64(nights)); err == nil {
					total = fmt.Sprintf("%v RUB for %s", tv, nightsLabel(nights))
				}
			}
		}
	}
	lines := []string{fmt.Sprintf("%d. %s", num, h.Name)}
	if h.Address != "" {
		lines = append(lines, h.Address)
	}
	lines = append(lines,
		fmt.Sprintf("Distance from the center: %v km", domain.Round2(h.Distance)),
		perNight,
	)
	if total != "" {
		lines = append(lines, total)
	}
	return strings.Join(lines, "\n")
}

func nightsLabel(n int) string {
	if n == 1 {
		return "1 night"
	}
	return fmt.Sprintf("%d nights", n)
}

// ---- shared helpers ----

func (c *Controller) sendInitialMenu(ctx context.Context, chatID int64) error {
	return c.channel.SendChoices(ctx, chatID, "Choose a command to continue", []domain.Choice{
		{Label: "Find hotels", Data: choiceFindHotels},
		{Label: "Show search history", Data: choiceHistory},
	})
}

// mutateLastSearch applies fn to the most recent search and persists the user.
// Every accepted field lands in the store before the next prompt goes out.
func (c *Controller) mutateLastSearch(ctx context.Context, chatID int64, fn func(*domain.Search)) error {
	u, err := c.store.FindByID(ctx, chatID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", chatID, err)
	}
	last := u.LastSearch()
	if last == nil {
		return fmt.Errorf("user %d has no search in progress", chatID)
	}
	fn(last)
	if err := c.store.Upsert(ctx, u); err != nil {
		return fmt.Errorf("persist search for user %d: %w", chatID, err)
	}
	return nil
}

func displayName(u domain.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return "traveler"
}

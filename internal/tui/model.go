package tui

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/sundvall/ordna/internal/app"
	"github.com/sundvall/ordna/internal/domain"
)

// Service represents service data used by this package.
type Service interface {
	Load(ctx context.Context) error
	Orders() []domain.Order
	TaskGroups() []domain.TaskGroup
	Get(id string) (domain.Order, bool)
	Move(ctx context.Context, orderID, targetTask string) app.MoveResult
}

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeSearch
	modeMovePick
	modeConfirmCancel
	modeOrderInfo
)

// cancelConfirmSteps is the number of sequential confirmations a cancel
// move requires before it is forwarded.
const cancelConfirmSteps = 2

// ConfirmBridge satisfies the transition service's confirmation port with
// answers the model collected through its modal flow. Prompts arriving with
// no granted answers are declined.
type ConfirmBridge struct {
	grants int
}

// Grant pre-approves the next n confirmation prompts.
func (b *ConfirmBridge) Grant(n int) {
	if b == nil {
		return
	}
	b.grants = n
}

// Confirm consumes one granted answer.
func (b *ConfirmBridge) Confirm(string) bool {
	if b == nil || b.grants <= 0 {
		return false
	}
	b.grants--
	return true
}

// moveCapture records the request the move controller emitted so the update
// loop can turn it into a command.
type moveCapture struct {
	req app.MoveRequest
	ok  bool
}

// loadedMsg carries message data through update handling.
type loadedMsg struct {
	err error
}

// movedMsg carries one completed move result through update handling.
type movedMsg struct {
	result app.MoveResult
}

// Model represents model data used by this package.
type Model struct {
	svc     Service
	session app.Session
	touch   bool

	ready  bool
	width  int
	height int
	err    error

	status string

	help help.Model
	keys keyMap

	searchInput textinput.Model
	searchQuery string

	sort             app.SortKey
	includeCancel    bool
	singleColumn     bool
	singleColumnName string

	selectedColumn int
	selectedCard   int

	mode          inputMode
	moveTargets   []string
	moveIndex     int
	confirmStep   int
	pendingTarget string
	infoOrderID   string

	mover         *app.MoveController
	capture       *moveCapture
	confirmBridge *ConfirmBridge

	// md is shared by pointer so the width-keyed glamour renderer survives
	// the value copies the tea loop makes of the model.
	md *remarkRenderer
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	searchInput := textinput.New()
	searchInput.Prompt = "/ "
	searchInput.Placeholder = "customer or order number"
	searchInput.CharLimit = 120
	m := Model{
		svc:           svc,
		status:        "loading...",
		help:          h,
		keys:          newKeyMap(),
		searchInput:   searchInput,
		sort:          app.SortNewest,
		includeCancel: true,
		md:            &remarkRenderer{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	capture := &moveCapture{}
	m.capture = capture
	m.mover = app.NewMoveController(func(req app.MoveRequest) {
		capture.req = req
		capture.ok = true
	}, m.session, m.touch)
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadData
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, app.ErrSuperseded) {
				// A newer load replaced this one; its result will arrive.
				return m, nil
			}
			m.err = msg.err
			m.status = ""
			return m, nil
		}
		m.err = nil
		m.clampSelections()
		if m.status == "" || m.status == "loading..." || m.status == "reloading..." {
			m.status = "ready"
		}
		return m, nil

	case movedMsg:
		m.status = msg.result.Notice
		m.mover.SetStatus(msg.result.Notice)
		switch msg.result.Outcome {
		case app.OutcomeDeclined:
			m.status = "Move cancelled"
		case app.OutcomeNoop:
			if m.status == "" {
				m.status = "ready"
			}
		}
		m.clampSelections()
		return m, nil

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	default:
		return m, nil
	}
}

// handleNormalModeKey routes keys while no overlay is open.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadData

	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.colLeft):
		m.selectedColumn--
		m.clampSelections()
		return m, nil

	case key.Matches(msg, m.keys.colRight):
		m.selectedColumn++
		m.clampSelections()
		return m, nil

	case key.Matches(msg, m.keys.cardUp):
		m.selectedCard--
		m.clampSelections()
		return m, nil

	case key.Matches(msg, m.keys.cardDown):
		m.selectedCard++
		m.clampSelections()
		return m, nil

	case key.Matches(msg, m.keys.search):
		m.mode = modeSearch
		m.searchInput.SetValue(m.searchQuery)
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.cycleSort):
		m.sort = nextSortKey(m.sort)
		m.clampSelections()
		m.status = "sorted by " + string(m.sort)
		return m, nil

	case key.Matches(msg, m.keys.toggleCancel):
		m.includeCancel = !m.includeCancel
		m.clampSelections()
		if m.includeCancel {
			m.status = "cancel column shown"
		} else {
			m.status = "cancel column hidden"
		}
		return m, nil

	case key.Matches(msg, m.keys.toggleFlat):
		m.singleColumn = !m.singleColumn
		m.selectedColumn = 0
		m.clampSelections()
		return m, nil

	case key.Matches(msg, m.keys.orderInfo):
		order, ok := m.selectedOrder()
		if !ok {
			return m, nil
		}
		m.infoOrderID = order.ID
		m.mode = modeOrderInfo
		return m, nil

	case key.Matches(msg, m.keys.move):
		return m.startMove()

	default:
		return m, nil
	}
}

// handleInputModeKey routes keys while an overlay or the search input owns
// the keyboard.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeSearch:
		switch {
		case key.Matches(msg, m.keys.back):
			m.searchQuery = ""
			m.searchInput.SetValue("")
			m.searchInput.Blur()
			m.mode = modeNone
			m.clampSelections()
			return m, nil
		case key.Matches(msg, m.keys.confirm):
			m.searchInput.Blur()
			m.mode = modeNone
			return m, nil
		}
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		m.searchQuery = m.searchInput.Value()
		m.clampSelections()
		return m, cmd

	case modeMovePick:
		switch {
		case key.Matches(msg, m.keys.back):
			m.mover.Cancel()
			m.mode = modeNone
			m.status = "ready"
			return m, nil
		case key.Matches(msg, m.keys.cardUp):
			m.moveIndex = clamp(m.moveIndex-1, 0, len(m.moveTargets)-1)
			return m, nil
		case key.Matches(msg, m.keys.cardDown):
			m.moveIndex = clamp(m.moveIndex+1, 0, len(m.moveTargets)-1)
			return m, nil
		case key.Matches(msg, m.keys.confirm):
			if len(m.moveTargets) == 0 {
				m.mode = modeNone
				return m, nil
			}
			target := m.moveTargets[clamp(m.moveIndex, 0, len(m.moveTargets)-1)]
			if domain.SameStage(target, domain.StageCancel) {
				m.pendingTarget = target
				m.confirmStep = 0
				m.mode = modeConfirmCancel
				return m, nil
			}
			return m.finishMove(target)
		}
		return m, nil

	case modeConfirmCancel:
		switch msg.String() {
		case "esc", "n", "N":
			m.mover.Cancel()
			m.mode = modeNone
			m.confirmStep = 0
			m.pendingTarget = ""
			m.status = "Move cancelled"
			return m, nil
		case "enter", "y", "Y":
			if m.confirmStep < cancelConfirmSteps {
				m.confirmStep++
			}
			if m.confirmStep < cancelConfirmSteps {
				return m, nil
			}
			m.confirmBridge.Grant(cancelConfirmSteps)
			target := m.pendingTarget
			m.confirmStep = 0
			m.pendingTarget = ""
			return m.finishMove(target)
		}
		return m, nil

	case modeOrderInfo:
		switch {
		case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.confirm), key.Matches(msg, m.keys.orderInfo):
			m.mode = modeNone
			m.infoOrderID = ""
		}
		return m, nil

	default:
		m.mode = modeNone
		return m, nil
	}
}

// handleMouseWheel scrolls the card cursor within the selected column.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNone {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		m.selectedCard--
	case tea.MouseWheelDown:
		m.selectedCard++
	}
	m.clampSelections()
	return m, nil
}

// handleMouseClick selects the column under the pointer.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeNone {
		return m, nil
	}
	if msg.Button != tea.MouseLeft {
		return m, nil
	}
	board := m.board()
	if len(board.Columns) == 0 {
		return m, nil
	}
	colWidth := m.columnWidthFor(m.width) + 5 // border + padding approximation for mouse hit testing
	if colWidth <= 0 {
		return m, nil
	}
	m.selectedColumn = clamp(msg.X/colWidth, 0, len(board.Columns)-1)
	m.clampSelections()
	return m, nil
}

// startMove opens the target picker for the selected order.
func (m Model) startMove() (tea.Model, tea.Cmd) {
	order, ok := m.selectedOrder()
	if !ok {
		return m, nil
	}
	board := m.board()
	m.mover.Select(order.ID)
	targets := m.mover.ValidTargets(order.CurrentTask(), board.Columns)
	if len(targets) == 0 {
		m.mover.Cancel()
		m.status = "no move targets for order " + order.Number
		return m, nil
	}
	m.moveTargets = targets
	m.moveIndex = 0
	m.mode = modeMovePick
	return m, nil
}

// finishMove confirms the pending selection through the controller and turns
// the captured request into a command.
func (m Model) finishMove(target string) (tea.Model, tea.Cmd) {
	m.mode = modeNone
	m.moveTargets = nil
	m.capture.ok = false
	if !m.mover.Confirm(target) {
		return m, nil
	}
	if !m.capture.ok {
		return m, nil
	}
	req := m.capture.req
	m.capture.ok = false
	m.status = m.mover.Status()
	return m, m.moveCmd(req)
}

// moveCmd runs one move request off the event loop.
func (m Model) moveCmd(req app.MoveRequest) tea.Cmd {
	return func() tea.Msg {
		result := m.svc.Move(context.Background(), req.OrderID, req.TargetColumn)
		return movedMsg{result: result}
	}
}

// loadData loads required data for the current operation.
func (m Model) loadData() tea.Msg {
	return loadedMsg{err: m.svc.Load(context.Background())}
}

// board builds the current board view from live store state.
func (m Model) board() app.BoardView {
	return app.BuildBoard(m.svc.Orders(), m.svc.TaskGroups(), app.BoardOptions{
		Search:           m.searchQuery,
		Sort:             m.sort,
		AdminViewer:      m.session.IsAdmin(),
		IncludeCancel:    m.includeCancel,
		SingleColumn:     m.singleColumn,
		SingleColumnName: m.singleColumnName,
	})
}

// selectedOrder resolves the order under the cursor, if any.
func (m Model) selectedOrder() (domain.Order, bool) {
	board := m.board()
	if len(board.Columns) == 0 {
		return domain.Order{}, false
	}
	col := clamp(m.selectedColumn, 0, len(board.Columns)-1)
	bucket := board.Buckets[board.Columns[col]]
	if len(bucket) == 0 {
		return domain.Order{}, false
	}
	return bucket[clamp(m.selectedCard, 0, len(bucket)-1)], true
}

// clampSelections keeps the cursor inside the current board shape.
func (m *Model) clampSelections() {
	board := m.board()
	if len(board.Columns) == 0 {
		m.selectedColumn = 0
		m.selectedCard = 0
		return
	}
	m.selectedColumn = clamp(m.selectedColumn, 0, len(board.Columns)-1)
	bucket := board.Buckets[board.Columns[m.selectedColumn]]
	m.selectedCard = clamp(m.selectedCard, 0, len(bucket)-1)
}

// nextSortKey cycles through the four board sort orders.
func nextSortKey(key app.SortKey) app.SortKey {
	switch key {
	case app.SortNewest:
		return app.SortOldest
	case app.SortOldest:
		return app.SortNumber
	case app.SortNumber:
		return app.SortCustomer
	default:
		return app.SortNewest
	}
}

// View handles view.
func (m Model) View() tea.View {
	if m.err != nil {
		v := tea.NewView("error: " + m.err.Error() + "\n\npress r to retry • q quit\n")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}
	if !m.ready {
		v := tea.NewView("loading...")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}

	board := m.board()

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	header := titleStyle.Render("ordna")
	if m.session.DisplayName != "" {
		header += "  " + m.session.DisplayName
	}
	header += statusStyle.Render("  [" + strings.ToLower(string(m.session.Role)) + "]")
	if m.searchQuery != "" && m.mode != modeSearch {
		header += statusStyle.Render("  search: " + m.searchQuery)
	}
	header += statusStyle.Render("  sort: " + string(m.sort))
	if !m.includeCancel {
		header += statusStyle.Render("  cancel hidden")
	}
	if m.singleColumn {
		header += statusStyle.Render("  flat view")
	}
	header += statusStyle.Render(fmt.Sprintf("  %d active", board.ActiveCount()))

	body := m.renderColumns(board, accent, muted, dim)

	sections := []string{header, "", body}
	if m.mode == modeSearch {
		sections = append(sections, m.searchInput.View())
	}
	if live := m.liveStatus(); live != "" {
		sections = append(sections, statusStyle.Render(live))
	}
	content := strings.Join(sections, "\n")

	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	if m.height > 0 {
		helpHeight := lipgloss.Height(helpLine)
		content = fitLines(content, max(0, m.height-helpHeight))
	}

	fullContent := content + "\n" + helpLine
	if overlay := m.renderModeOverlay(accent, muted, m.width-8); overlay != "" {
		overlayHeight := lipgloss.Height(fullContent)
		if m.height > 0 {
			overlayHeight = m.height
		}
		fullContent = overlayOnContent(fullContent, overlay, max(1, m.width), max(1, overlayHeight))
	}

	v := tea.NewView(fullContent)
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// liveStatus picks the string for the transient status line: gesture
// progress while a move is in flight, the last result otherwise.
func (m Model) liveStatus() string {
	if s := strings.TrimSpace(m.mover.Status()); s != "" && m.status == "" {
		return s
	}
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		return m.status
	}
	return ""
}

// renderColumns draws the board columns side by side.
func (m Model) renderColumns(board app.BoardView, accent, muted, dim color.Color) string {
	if len(board.Columns) == 0 {
		return lipgloss.NewStyle().Foreground(muted).Render("no workflow columns")
	}

	colWidth := m.columnWidthFor(m.width)
	colHeight := m.columnHeight()
	baseColStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(1, 2).
		MarginRight(1).
		Width(colWidth)
	selColStyle := baseColStyle.BorderForeground(accent)
	colTitle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	closedTitle := lipgloss.NewStyle().Bold(true).Foreground(muted)
	selectedCardStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	subStyle := lipgloss.NewStyle().Foreground(muted)
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))

	pendingID, hasPending := m.mover.Pending()

	columnViews := make([]string, 0, len(board.Columns))
	for colIdx, name := range board.Columns {
		bucket := board.Buckets[name]

		headerStyle := colTitle
		if domain.IsClosedStage(name) {
			headerStyle = closedTitle
		}
		headerLine := headerStyle.Render(fmt.Sprintf("%s (%d)", name, len(bucket)))

		cardLines := make([]string, 0, max(1, len(bucket)*3))
		selectedStart, selectedEnd := -1, -1
		if len(bucket) == 0 {
			cardLines = append(cardLines, emptyStyle.Render("(empty)"))
		}
		for cardIdx, order := range bucket {
			selected := colIdx == m.selectedColumn && cardIdx == m.selectedCard
			pendingHere := hasPending && order.ID == pendingID
			prefix := "   "
			switch {
			case selected && pendingHere:
				prefix = "│* "
			case selected:
				prefix = "│  "
			case pendingHere:
				prefix = " * "
			}
			title := prefix + truncate(order.Number, max(1, colWidth-10))
			if order.IsEnquiry {
				title += " ⁇"
			}
			sub := truncate(order.CustomerName, max(1, colWidth-10))
			meta := formatWhen(order.StatusTimestamp())
			if selected {
				title = selectedCardStyle.Render(title)
			}

			rowStart := len(cardLines)
			cardLines = append(cardLines, title)
			if sub != "" {
				cardLines = append(cardLines, prefix+subStyle.Render(sub))
			}
			if meta != "" {
				cardLines = append(cardLines, prefix+subStyle.Render(meta))
			}
			if cardIdx < len(bucket)-1 {
				cardLines = append(cardLines, "")
			}
			if selected {
				selectedStart = rowStart
				selectedEnd = len(cardLines) - 1
			}
		}

		innerHeight := max(1, colHeight-4)
		cardWindow := max(1, innerHeight-1)
		scrollTop := 0
		if colIdx == m.selectedColumn && selectedStart >= 0 {
			if selectedEnd >= scrollTop+cardWindow {
				scrollTop = selectedEnd - cardWindow + 1
			}
			if selectedStart < scrollTop {
				scrollTop = selectedStart
			}
		}
		scrollTop = clamp(scrollTop, 0, max(0, len(cardLines)-cardWindow))
		if len(cardLines) > cardWindow {
			cardLines = cardLines[scrollTop : scrollTop+cardWindow]
		}

		lines := append([]string{headerLine}, cardLines...)
		content := fitLines(strings.Join(lines, "\n"), innerHeight)
		if colIdx == m.selectedColumn {
			columnViews = append(columnViews, selColStyle.Render(content))
		} else {
			columnViews = append(columnViews, baseColStyle.Render(content))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columnViews...)
}

// renderModeOverlay renders the modal for the active mode, if any.
func (m Model) renderModeOverlay(accent, muted color.Color, maxWidth int) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1)
	if maxWidth > 0 {
		boxStyle = boxStyle.Width(clamp(maxWidth, 28, 72))
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle := lipgloss.NewStyle().Foreground(muted)

	switch m.mode {
	case modeMovePick:
		order, _ := m.svc.Get(pendingOrDefault(m.mover))
		lines := []string{titleStyle.Render("Move order " + order.Number)}
		for idx, target := range m.moveTargets {
			prefix := "  "
			if idx == clamp(m.moveIndex, 0, len(m.moveTargets)-1) {
				prefix = "│ "
			}
			line := prefix + target
			if domain.SameStage(target, domain.StageCancel) {
				line += hintStyle.Render("  (requires confirmation)")
			}
			lines = append(lines, line)
		}
		lines = append(lines, hintStyle.Render("enter move • esc back"))
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeConfirmCancel:
		order, _ := m.svc.Get(pendingOrDefault(m.mover))
		prompt := fmt.Sprintf("Cancel order %s?", order.Number)
		if m.confirmStep >= cancelConfirmSteps-1 {
			prompt = fmt.Sprintf("Cancelling order %s cannot be undone. Confirm again?", order.Number)
		}
		lines := []string{
			titleStyle.Render("Cancel order"),
			prompt,
			hintStyle.Render("y/enter confirm • n/esc back"),
		}
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeOrderInfo:
		order, ok := m.svc.Get(m.infoOrderID)
		if !ok {
			return ""
		}
		stage := order.CurrentTask()
		if stage == "" {
			stage = domain.StageOther
		}
		lines := []string{
			titleStyle.Render("Order " + order.Number),
			order.CustomerName,
			hintStyle.Render("stage: " + stage + " • updated: " + formatWhen(order.StatusTimestamp())),
		}
		if order.IsEnquiry {
			lines = append(lines, hintStyle.Render("enquiry"))
		}
		if order.DeliveryDate != nil {
			lines = append(lines, hintStyle.Render("delivery: "+formatWhen(*order.DeliveryDate)))
		}
		if len(order.Items) > 0 {
			lines = append(lines, "")
			for _, item := range order.Items {
				lines = append(lines, fmt.Sprintf("  %s ×%g", item.Name, item.Quantity))
			}
		}
		if len(order.Status) > 0 {
			lines = append(lines, "", hintStyle.Render("history"))
			start := max(0, len(order.Status)-5)
			for _, ev := range order.Status[start:] {
				line := fmt.Sprintf("  %s  %s", formatWhen(ev.CreatedAt), ev.Task)
				if ev.AssignedTo != "" {
					line += hintStyle.Render("  " + ev.AssignedTo)
				}
				lines = append(lines, line)
			}
		}
		if remark := strings.TrimSpace(order.Remark); remark != "" {
			lines = append(lines, "", m.md.render(remark, clamp(maxWidth-4, minRemarkWrap, 68)))
		}
		lines = append(lines, "", hintStyle.Render("esc close"))
		return boxStyle.Render(strings.Join(lines, "\n"))

	default:
		return ""
	}
}

// pendingOrDefault returns the controller's pending order id, or empty.
func pendingOrDefault(mover *app.MoveController) string {
	id, _ := mover.Pending()
	return id
}

// columnWidthFor splits the board width across visible columns.
func (m Model) columnWidthFor(boardWidth int) int {
	count := len(m.board().Columns)
	if count == 0 {
		count = 1
	}
	if boardWidth <= 0 {
		return 28
	}
	return clamp(boardWidth/count-3, 18, 40)
}

// columnHeight reserves room for the header and help line.
func (m Model) columnHeight() int {
	if m.height <= 0 {
		return 20
	}
	return max(8, m.height-6)
}

// formatWhen renders a timestamp as a calendar date; zero times render empty.
func formatWhen(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// clamp bounds v to [minV, maxV].
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent overlays on content.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centeredOverlay := lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
	)
	overlayLayer := lipgloss.NewLayer(centeredOverlay).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate truncates the requested operation.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}

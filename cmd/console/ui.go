package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/adventure-engine/internal/game"
	"github.com/jwebster45206/adventure-engine/internal/handlers"
	"github.com/jwebster45206/adventure-engine/pkg/engine"
)

const (
	AgentName       = "Narrator"
	PlaceHolderText = "Type an action, a choice number, or /help..."
	maxEventLines   = 6
)

type entryRole int

const (
	roleNarrator entryRole = iota
	rolePlayer
	roleSystem
	roleError
)

type entry struct {
	role entryRole
	text string
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	api          *APIClient
	gameID       uuid.UUID
	transcript   []entry
	choices      []string
	health       int
	gameState    *handlers.GameStateResponse
	events       []string
	lastSaveID   string
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Class selection state
	showClassModal bool
	classes        []game.ClassSummary
	selectedClass  int
	loadingClasses bool

	// Quit confirmation state
	showQuitModal bool

	// Event stream for the current game
	eventChan    chan SSEEvent
	cancelEvents context.CancelFunc

	// Progress bar state
	progressTick int
}

type classesLoadedMsg struct {
	classes []game.ClassSummary
	err     error
}

type gameStartedMsg struct {
	resp *game.TurnResponse
	err  error
}

type turnMsg struct {
	resp *game.TurnResponse
	err  error
}

type gameStateMsg struct {
	gameState *handlers.GameStateResponse
	err       error
}

type savedMsg struct {
	saveID string
	err    error
}

type loadedMsg struct {
	resp *handlers.LoadResponse
	err  error
}

type savesListedMsg struct {
	saves *handlers.ListSavesResponse
	err   error
}

type eventMsg SSEEvent

type eventsClosedMsg struct{}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")) // purple

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, api *APIClient) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 500
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:         cfg,
		api:            api,
		textarea:       ta,
		chatViewport:   chatVp,
		metaViewport:   metaVp,
		showClassModal: true,
		loadingClasses: true,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return m.loadClasses()
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Events keep arriving while a modal is open.
	switch msg := msg.(type) {
	case eventMsg:
		m.recordEvent(SSEEvent(msg))
		return m, waitForEvent(m.eventChan)
	case eventsClosedMsg:
		return m, nil
	}

	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	if m.showClassModal {
		return m.updateClassModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			action := m.resolveChoice(input)
			if strings.EqualFold(action, engine.ActionLoadGame) {
				return m.loadChoice()
			}
			m.transcript = append(m.transcript, entry{rolePlayer, action})
			return m.startRequest(m.sendAction(action))
		}

	case turnMsg:
		m.loading = false
		if msg.err != nil {
			m.transcript = append(m.transcript, entry{roleError, "Error: " + msg.err.Error()})
			m.refresh()
			return m, nil
		}
		m.applyTurn(msg.resp)
		if msg.resp.Health <= 0 && len(msg.resp.Choices) == 0 {
			m.transcript = append(m.transcript, entry{roleSystem, "Use /new to begin another adventure or /load <save_id> to resume a save."})
			m.gameState = nil
			m.refresh()
			return m, nil
		}
		m.refresh()
		return m, m.refreshGameState()

	case gameStateMsg:
		if msg.err == nil && msg.gameState != nil {
			m.gameState = msg.gameState
			m.refreshMeta()
		}

	case savedMsg:
		m.loading = false
		if msg.err != nil {
			m.transcript = append(m.transcript, entry{roleError, "Error: " + msg.err.Error()})
		} else {
			m.lastSaveID = msg.saveID
			note := fmt.Sprintf("Game saved as %s.", msg.saveID)
			if err := clipboard.WriteAll(msg.saveID); err == nil {
				note += " The save ID is on your clipboard."
			}
			m.transcript = append(m.transcript, entry{roleSystem, note})
		}
		m.refresh()

	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.transcript = append(m.transcript, entry{roleError, "Error: " + msg.err.Error()})
			m.refresh()
			return m, nil
		}
		cmd := m.switchGame(msg.resp.GameID)
		m.health = msg.resp.Health
		m.choices = nil
		m.transcript = append(m.transcript, entry{roleSystem,
			fmt.Sprintf("%s. Health: %d. Location: %s.", msg.resp.Message, msg.resp.Health, msg.resp.Location)})
		m.refresh()
		return m, tea.Batch(cmd, m.refreshGameState())

	case savesListedMsg:
		m.loading = false
		if msg.err != nil {
			m.transcript = append(m.transcript, entry{roleError, "Error: " + msg.err.Error()})
		} else {
			m.transcript = append(m.transcript, entry{roleSystem, formatSaves(msg.saves)})
		}
		m.refresh()

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// resolveChoice turns a choice number into the choice's text.
func (m ConsoleUI) resolveChoice(input string) string {
	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > len(m.choices) {
		return input
	}
	return m.choices[n-1]
}

// loadChoice answers the death screen's Load Game choice locally: it loads
// the last save of this session, or lists saves with /load ready to finish.
func (m ConsoleUI) loadChoice() (tea.Model, tea.Cmd) {
	if m.lastSaveID != "" {
		m.transcript = append(m.transcript, entry{rolePlayer, "/load " + m.lastSaveID})
		return m.startRequest(m.loadGame(m.lastSaveID))
	}
	m.textarea.SetValue("/load ")
	m.transcript = append(m.transcript, entry{roleSystem, "Type a save ID after /load to resume."})
	return m.startRequest(m.listSaves())
}

func (m ConsoleUI) startRequest(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.loading = true
	m.progressTick = 0
	m.writeChatContent()
	return m, tea.Batch(cmd, progressTick())
}

func (m *ConsoleUI) applyTurn(resp *game.TurnResponse) {
	m.transcript = append(m.transcript, entry{roleNarrator, resp.Message})
	m.health = resp.Health
	m.choices = resp.Choices
}

func (m *ConsoleUI) recordEvent(ev SSEEvent) {
	if ev.Type == "connected" {
		return
	}
	line := time.Now().Format("15:04:05") + " " + ev.Type
	m.events = append(m.events, line)
	if len(m.events) > maxEventLines {
		m.events = m.events[len(m.events)-maxEventLines:]
	}
	m.refreshMeta()
}

// switchGame points the console at gameID and follows its event stream.
func (m *ConsoleUI) switchGame(gameID uuid.UUID) tea.Cmd {
	if gameID == m.gameID && m.eventChan != nil {
		return nil
	}
	if m.cancelEvents != nil {
		m.cancelEvents()
	}
	m.gameID = gameID
	m.events = nil

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan SSEEvent, 16)
	m.eventChan = ch
	m.cancelEvents = cancel

	api := m.api
	go func() {
		defer close(ch)
		_ = api.Listen(ctx, gameID, ch)
	}()
	return waitForEvent(ch)
}

func waitForEvent(ch <-chan SSEEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *ConsoleUI) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	chatWidth := int(float64(m.width)*0.72) - 4
	metaWidth := m.width - chatWidth - 6
	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

func (m *ConsoleUI) refresh() {
	m.writeChatContent()
	m.refreshMeta()
}

func (m *ConsoleUI) refreshMeta() {
	m.metaViewport.SetContent(writeMetadata(m))
}

// writeChatContent renders the transcript for the current viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6
	if chatWidth < 20 {
		chatWidth = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("ADVENTURE ENGINE") + "\n\n")
	content.WriteString("Type an action, or the number of a suggested choice.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth)) + "\n\n")

	for _, e := range m.transcript {
		switch e.role {
		case roleNarrator:
			content.WriteString(formatNarratorResponse(e.text, chatWidth) + "\n\n")
		case rolePlayer:
			content.WriteString(userStyle.Render("You: ") + wordwrap.String(e.text, chatWidth-5) + "\n\n")
		case roleSystem:
			content.WriteString(systemStyle.Render(wordwrap.String(e.text, chatWidth)) + "\n\n")
		case roleError:
			content.WriteString(errorStyle.Render(wordwrap.String(e.text, chatWidth)) + "\n\n")
		}
	}

	if len(m.choices) > 0 {
		content.WriteString(promptStyle.Render("What will you do?") + "\n")
		for i, c := range m.choices {
			content.WriteString(fmt.Sprintf("  %d. %s\n", i+1, c))
		}
		content.WriteString("\n")
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func formatNarratorResponse(response string, width int) string {
	prefix := AgentName + ": "
	wrapped := wordwrap.String(response, width-len(prefix))
	return narratorStyle.Render(prefix) + wrapped
}

func writeMetadata(m *ConsoleUI) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("ADVENTURER") + "\n\n")

	if m.gameID != uuid.Nil {
		content.WriteString("Game ID:\n")
		content.WriteString(m.gameID.String()[:8] + "...\n\n")
	}

	if gs := m.gameState; gs != nil && gs.State != nil {
		content.WriteString(fmt.Sprintf("%s the %s\n\n", gs.State.Name, gs.State.Class))
		content.WriteString(fmt.Sprintf("Health: %d\n\n", gs.State.Health))
		content.WriteString("Location:\n")
		if gs.LocationName != "" {
			content.WriteString(gs.LocationName + "\n\n")
		} else {
			content.WriteString(gs.State.Location + "\n\n")
		}
		content.WriteString("Inventory:\n")
		content.WriteString(formatInventory(gs.State.Inventory))
		content.WriteString("\n")
	} else if m.gameID != uuid.Nil {
		content.WriteString(fmt.Sprintf("Health: %d\n\n", m.health))
	}

	if m.lastSaveID != "" {
		content.WriteString("Last save:\n")
		content.WriteString(m.lastSaveID + "\n\n")
	}

	if len(m.events) > 0 {
		content.WriteString("Events:\n")
		for _, e := range m.events {
			content.WriteString(promptStyle.Render(e) + "\n")
		}
		content.WriteString("\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Enter: Act\n")
	content.WriteString("• /potion: Drink\n")
	content.WriteString("• /save, /load, /saves\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• Ctrl+C: Quit\n")

	return content.String()
}

func formatInventory(items []string) string {
	if len(items) == 0 {
		return "Empty\n"
	}
	counts := make(map[string]int, len(items))
	var names []string
	for _, item := range items {
		if counts[item] == 0 {
			names = append(names, item)
		}
		counts[item]++
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		if counts[name] > 1 {
			b.WriteString(fmt.Sprintf("• %s x%d\n", name, counts[name]))
		} else {
			b.WriteString(fmt.Sprintf("• %s\n", name))
		}
	}
	return b.String()
}

func formatSaves(resp *handlers.ListSavesResponse) string {
	if resp == nil || len(resp.Saves) == 0 {
		return "No saved games."
	}
	var b strings.Builder
	b.WriteString("Saved games:")
	for _, s := range resp.Saves {
		b.WriteString(fmt.Sprintf("\n• %s: %s the %s, health %d, at %s",
			s.SaveID, s.PlayerName, s.CharacterClass, s.Health, s.Location))
	}
	return b.String()
}

const helpText = `Commands:
• <number> - Take a suggested choice
• /potion - Drink a health potion
• /save - Save the game (the save ID is copied to your clipboard)
• /load <save_id> - Load a saved game into this session
• /saves - List saved games
• /copy - Copy the narrator's last message
• /new - Start a new adventure
• /help - Show this help
• Ctrl+C - Quit

Anything else you type is sent as your action. Type Restart to end the game.`

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])

	switch cmd {
	case "/help":
		m.transcript = append(m.transcript, entry{roleSystem, helpText})

	case "/potion":
		if m.gameID == uuid.Nil {
			break
		}
		m.transcript = append(m.transcript, entry{rolePlayer, "Drink health potion"})
		return m.startRequest(m.usePotion())

	case "/save":
		if m.gameID == uuid.Nil {
			break
		}
		return m.startRequest(m.saveGame())

	case "/load":
		if len(fields) < 2 {
			m.transcript = append(m.transcript, entry{roleError, "Usage: /load <save_id>"})
			break
		}
		return m.startRequest(m.loadGame(fields[1]))

	case "/saves":
		return m.startRequest(m.listSaves())

	case "/copy":
		text := m.lastNarration()
		if text == "" {
			break
		}
		if err := clipboard.WriteAll(text); err != nil {
			m.transcript = append(m.transcript, entry{roleError, "Clipboard unavailable: " + err.Error()})
		} else {
			m.transcript = append(m.transcript, entry{roleSystem, "Copied the last message to your clipboard."})
		}

	case "/new":
		m.showClassModal = true
		m.loadingClasses = len(m.classes) == 0
		m.err = nil
		if m.loadingClasses {
			return m, m.loadClasses()
		}
		return m, nil

	default:
		m.transcript = append(m.transcript, entry{roleError, "Unknown command " + cmd + ". Type /help for commands."})
	}

	m.refresh()
	return m, nil
}

func (m ConsoleUI) lastNarration() string {
	for i := len(m.transcript) - 1; i >= 0; i-- {
		if m.transcript[i].role == roleNarrator {
			return m.transcript[i].text
		}
	}
	return ""
}

func (m ConsoleUI) sendAction(action string) tea.Cmd {
	api, id := m.api, m.gameID
	return func() tea.Msg {
		resp, err := api.Act(id, action)
		return turnMsg{resp, err}
	}
}

func (m ConsoleUI) usePotion() tea.Cmd {
	api, id := m.api, m.gameID
	return func() tea.Msg {
		resp, err := api.UsePotion(id)
		return turnMsg{resp, err}
	}
}

func (m ConsoleUI) saveGame() tea.Cmd {
	api, id := m.api, m.gameID
	return func() tea.Msg {
		saveID, err := api.Save(id)
		return savedMsg{saveID, err}
	}
}

func (m ConsoleUI) loadGame(saveID string) tea.Cmd {
	api, id := m.api, m.gameID
	return func() tea.Msg {
		resp, err := api.Load(saveID, id)
		return loadedMsg{resp, err}
	}
}

func (m ConsoleUI) listSaves() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		saves, err := api.Saves()
		return savesListedMsg{saves, err}
	}
}

func (m ConsoleUI) refreshGameState() tea.Cmd {
	api, id := m.api, m.gameID
	return func() tea.Msg {
		gs, err := api.GameState(id)
		return gameStateMsg{gs, err}
	}
}

func (m ConsoleUI) loadClasses() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		classes, err := api.Classes()
		return classesLoadedMsg{classes, err}
	}
}

func (m ConsoleUI) startGame(class string) tea.Cmd {
	api, name := m.api, m.config.PlayerName
	return func() tea.Msg {
		resp, err := api.StartGame(name, class)
		return gameStartedMsg{resp, err}
	}
}

func (m ConsoleUI) updateClassModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case classesLoadedMsg:
		m.loadingClasses = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.classes = msg.classes
		}

	case gameStartedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.showClassModal = false
		m.transcript = nil
		m.lastSaveID = ""
		m.gameState = nil
		cmd := m.switchGame(msg.resp.GameID)
		m.applyTurn(msg.resp)
		m.resize()
		m.ready = true
		m.refresh()
		m.textarea.Focus()
		return m, tea.Batch(textarea.Blink, cmd, m.refreshGameState())

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			if m.loadingClasses {
				return m, tea.Quit
			}
			m.showQuitModal = true
			return m, nil
		}
		if m.loadingClasses || m.loading || m.err != nil {
			return m, nil
		}

		switch msg.Type {
		case tea.KeyUp:
			if m.selectedClass > 0 {
				m.selectedClass--
			}
		case tea.KeyDown:
			if m.selectedClass < len(m.classes)-1 {
				m.selectedClass++
			}
		case tea.KeyEnter:
			if len(m.classes) > 0 {
				m.loading = true
				return m, m.startGame(m.classes[m.selectedClass].Name)
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m.quit()
		default:
			switch msg.String() {
			case "y", "Y":
				return m.quit()
			case "n", "N":
				m.showQuitModal = false
				if m.showClassModal {
					return m, nil
				}
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) quit() (tea.Model, tea.Cmd) {
	if m.cancelEvents != nil {
		m.cancelEvents()
	}
	return m, tea.Quit
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to quit your adventure?")
	if m.gameID != uuid.Nil && m.lastSaveID == "" {
		content.WriteString("\n")
		content.WriteString(loadingStyle.Render("This game has not been saved."))
	}
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderClassModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	switch {
	case m.loadingClasses:
		content.WriteString(modalTitleStyle.Render("Loading Classes..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Please wait while we fetch the character classes..."))
	case m.err != nil:
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(wordwrap.String(m.err.Error(), 54)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	case m.loading:
		content.WriteString(modalTitleStyle.Render("Creating Game..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Setting up your adventure..."))
	default:
		content.WriteString(modalTitleStyle.Render("Choose Your Class"))
		content.WriteString("\n\n")

		for i, class := range m.classes {
			if i == m.selectedClass {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", class.Name)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", class.Name)))
			}
			content.WriteString("\n")
		}

		if len(m.classes) > 0 {
			selected := m.classes[m.selectedClass]
			content.WriteString("\n")
			content.WriteString(fmt.Sprintf("Strengths: %s\n", strings.Join(selected.Strengths, ", ")))
			content.WriteString(fmt.Sprintf("Weaknesses: %s\n", strings.Join(selected.Weaknesses, ", ")))
			content.WriteString(fmt.Sprintf("Starts with: %s\n", strings.Join(selected.StartingItems, ", ")))
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if m.showClassModal {
		return m.renderClassModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.72) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}

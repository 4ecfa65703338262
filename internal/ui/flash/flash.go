package flash

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/idursun/jjreview/internal/ui/common"
	"github.com/idursun/jjreview/internal/ui/intents"
)

type expireMessageMsg struct {
	id uint64
}

type flashMessage struct {
	text  string
	error error
	id    uint64
}

// Model shows transient notices stacked above the bottom right corner.
type Model struct {
	messages     []flashMessage
	timeout      time.Duration
	successStyle lipgloss.Style
	errorStyle   lipgloss.Style
	currentId    uint64
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case intents.AddMessage:
		id := m.add(msg.Text, msg.Err)
		if msg.Err == nil && !msg.Sticky && id != 0 && m.timeout > 0 {
			return tea.Tick(m.timeout, func(time.Time) tea.Msg {
				return expireMessageMsg{id: id}
			})
		}
	case intents.DismissOldest:
		m.DeleteOldest()
	case expireMessageMsg:
		m.removeLiveMessageByID(msg.id)
	}
	return nil
}

// View renders the boxes bottom up, right aligned to width.
func (m *Model) View(width int) string {
	if len(m.messages) == 0 {
		return ""
	}
	maxWidth := max(width-4, 1)
	boxes := make([]string, 0, len(m.messages))
	for i := len(m.messages) - 1; i >= 0; i-- {
		boxes = append(boxes, m.renderMessageContent(m.messages[i], maxWidth))
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, lipgloss.JoinVertical(lipgloss.Right, boxes...))
}

func (m *Model) removeLiveMessageByID(id uint64) bool {
	for i, message := range m.messages {
		if message.id != id {
			continue
		}
		m.messages = append(m.messages[:i], m.messages[i+1:]...)
		return true
	}
	return false
}

func (m *Model) renderMessageContent(message flashMessage, maxWidth int) string {
	style := m.successStyle
	text := message.text
	if message.error != nil {
		style = m.errorStyle
		text = message.error.Error()
	}
	content := style.Render(text)
	if w, _ := lipgloss.Size(content); w > maxWidth {
		content = lipgloss.NewStyle().Width(maxWidth).Render(content)
	}
	return lipgloss.NewStyle().Border(lipgloss.NormalBorder()).PaddingLeft(1).PaddingRight(1).BorderForeground(style.GetForeground()).Render(content)
}

func (m *Model) add(text string, error error) uint64 {
	text = strings.TrimSpace(text)
	if text == "" && error == nil {
		return 0
	}
	msg := flashMessage{
		id:    m.nextId(),
		text:  text,
		error: error,
	}
	m.messages = append(m.messages, msg)
	return msg.id
}

func (m *Model) Any() bool {
	return len(m.messages) > 0
}

func (m *Model) LiveMessagesCount() int {
	return len(m.messages)
}

func (m *Model) DeleteOldest() {
	if len(m.messages) == 0 {
		return
	}
	m.messages = m.messages[1:]
}

func (m *Model) nextId() uint64 {
	m.currentId = m.currentId + 1
	return m.currentId
}

// New creates a model whose messages expire after timeout; errors and
// sticky messages stay until dismissed.
func New(palette *common.Palette, timeout time.Duration) *Model {
	if palette == nil {
		palette = common.DefaultPalette
	}
	return &Model{
		timeout:      timeout,
		successStyle: palette.Get("flash success"),
		errorStyle:   palette.Get("flash error"),
	}
}

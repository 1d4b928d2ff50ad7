package service

import (
	"context"
	"fmt"
	"sync"
	"tradebot/internal/core/domain"
)

type sentPost struct {
	channelID string
	post      domain.Post
}

type directMessage struct {
	userID string
	text   string
}

// fakeMessenger records every outbound call. Errors can be injected per method, dmErr per user.
type fakeMessenger struct {
	mu sync.Mutex

	posts     []sentPost
	edits     map[domain.MessageRef]domain.Post
	deleted   []domain.MessageRef
	dms       []directMessage
	reactions []string
	created   []domain.ChannelSpec
	removed   chan string
	messages  map[string][]domain.RenderedMessage
	reactCnt  int

	sendErr     error
	editErr     error
	deleteErr   error
	createErr   error
	fetchErr    error
	dmErr       map[string]error
	nextMessage int
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		edits:    make(map[domain.MessageRef]domain.Post),
		removed:  make(chan string, 10),
		messages: make(map[string][]domain.RenderedMessage),
		dmErr:    make(map[string]error),
	}
}

func (f *fakeMessenger) SendPost(_ context.Context, channelID string, post domain.Post) (domain.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return domain.MessageRef{}, f.sendErr
	}

	f.nextMessage++
	f.posts = append(f.posts, sentPost{channelID: channelID, post: post})

	return domain.MessageRef{ChannelID: channelID, MessageID: fmt.Sprintf("m%d", f.nextMessage)}, nil
}

func (f *fakeMessenger) EditPost(_ context.Context, ref domain.MessageRef, post domain.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.editErr != nil {
		return f.editErr
	}

	f.edits[ref] = post
	return nil
}

func (f *fakeMessenger) DeleteMessage(_ context.Context, ref domain.MessageRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleted = append(f.deleted, ref)
	return f.deleteErr
}

func (f *fakeMessenger) SendDirectMessage(_ context.Context, userID string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.dmErr[userID]; err != nil {
		return err
	}

	f.dms = append(f.dms, directMessage{userID: userID, text: text})
	return nil
}

func (f *fakeMessenger) AddReaction(_ context.Context, _ domain.MessageRef, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reactions = append(f.reactions, emoji)
	return nil
}

func (f *fakeMessenger) CreateChannel(_ context.Context, spec domain.ChannelSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return "", f.createErr
	}

	f.created = append(f.created, spec)
	return fmt.Sprintf("chan-%d", len(f.created)), nil
}

func (f *fakeMessenger) DeleteChannel(_ context.Context, channelID string) error {
	f.removed <- channelID
	return nil
}

func (f *fakeMessenger) FetchRecentMessages(_ context.Context, channelID string, limit int) ([]domain.RenderedMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fetchErr != nil {
		return nil, f.fetchErr
	}

	msgs := f.messages[channelID]
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func (f *fakeMessenger) FetchMessage(_ context.Context, ref domain.MessageRef) (domain.RenderedMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fetchErr != nil {
		return domain.RenderedMessage{}, f.fetchErr
	}

	for _, m := range f.messages[ref.ChannelID] {
		if m.ID == ref.MessageID {
			return m, nil
		}
	}
	return domain.RenderedMessage{}, domain.ErrNotFound
}

func (f *fakeMessenger) FetchReactionCount(context.Context, domain.MessageRef, string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.reactCnt, f.fetchErr
}

func (f *fakeMessenger) dmCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.dms)
}

type fakeNotifier struct {
	texts []string
}

func (n *fakeNotifier) NotifyStaff(_ context.Context, text string) error {
	n.texts = append(n.texts, text)
	return nil
}

type fakeMetrics struct {
	mu       sync.Mutex
	outcomes map[string][]string
	records  map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{outcomes: make(map[string][]string), records: make(map[string]int)}
}

func (m *fakeMetrics) ObserveInteraction(action, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[action] = append(m.outcomes[action], outcome)
}

func (m *fakeMetrics) SetActiveRecords(kind string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[kind] = n
}

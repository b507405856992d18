package bot

import (
	"sync"

	"docbrief/internal/pipeline"
	"docbrief/internal/summarizer"
)

// chatState holds per-chat preferences and the last summary sent, which
// the translate and listen buttons act on.
type chatState struct {
	Tier         summarizer.LengthTier
	Mode         pipeline.Mode
	Provider     string
	Summary      string
	Translations map[string]string
}

type chatStore struct {
	mu    sync.Mutex
	chats map[int64]*chatState
}

func newChatStore() *chatStore {
	return &chatStore{chats: make(map[int64]*chatState)}
}

func defaultChatState() *chatState {
	return &chatState{
		Tier:         summarizer.LengthStandard,
		Mode:         pipeline.ModeAuto,
		Translations: make(map[string]string),
	}
}

// get returns a copy of the chat state.
func (s *chatStore) get(chatID int64) chatState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.chats[chatID]
	if !ok {
		return *defaultChatState()
	}

	out := *st
	out.Translations = make(map[string]string, len(st.Translations))
	for k, v := range st.Translations {
		out.Translations[k] = v
	}

	return out
}

func (s *chatStore) update(chatID int64, fn func(st *chatState)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.chats[chatID]
	if !ok {
		st = defaultChatState()
		s.chats[chatID] = st
	}

	fn(st)
}
